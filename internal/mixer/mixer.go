package mixer

import (
	"fmt"
	"log/slog"

	"soundscape/internal/config"
	"soundscape/internal/logging"
)

// Backend is the audio output stage the mixer drives. Parameter names are the
// ones produced by LayerVolumeParam, WarmthCutoffParam, and MasterVolumeParam.
type Backend interface {
	// SetParam updates a named output parameter. Unknown names are an error.
	SetParam(name string, value float64) error

	// Play starts looping playback of raw audio data on a layer, replacing
	// whatever the layer was playing.
	Play(layer int, data []byte) error

	// Stop halts playback on a layer and releases its stream.
	Stop(layer int) error

	// PauseAll suspends playback on every layer without releasing streams.
	PauseAll() error

	// ResumeAll restarts playback paused by PauseAll.
	ResumeAll() error

	Close() error
}

// Mixer translates normalized scene settings into backend parameters.
type Mixer struct {
	backend Backend
	logger  *slog.Logger
	lowHz   float64
	highHz  float64
}

// New builds a mixer over the given backend and applies the configured master
// volume.
func New(backend Backend, cfg config.Mixer, logger *slog.Logger) (*Mixer, error) {
	m := &Mixer{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "mixer"),
		lowHz:   cfg.LowCutoffHz,
		highHz:  cfg.HighCutoffHz,
	}
	if err := m.SetMasterVolume(cfg.MasterVolume); err != nil {
		return nil, err
	}
	return m, nil
}

// SetLayerVolume sets a layer's volume from a normalized [0, 1] value. An
// out-of-range layer index is ignored.
func (m *Mixer) SetLayerVolume(layer int, volume float64) error {
	if !validLayer(layer) {
		return nil
	}
	db := VolumeToDecibels(volume)
	if err := m.backend.SetParam(LayerVolumeParam(layer), db); err != nil {
		return fmt.Errorf("set layer %d volume: %w", layer, err)
	}
	m.logger.Debug("layer volume set",
		logging.Int("layer", layer),
		logging.Float64("volume", volume),
		logging.Float64("db", db))
	return nil
}

// SetLayerWarmth sets a layer's low-pass cutoff from a normalized [0, 1]
// warmth value. An out-of-range layer index is ignored.
func (m *Mixer) SetLayerWarmth(layer int, warmth float64) error {
	if !validLayer(layer) {
		return nil
	}
	cutoff := WarmthToCutoff(warmth, m.lowHz, m.highHz)
	if err := m.backend.SetParam(WarmthCutoffParam(layer), cutoff); err != nil {
		return fmt.Errorf("set layer %d warmth: %w", layer, err)
	}
	m.logger.Debug("layer warmth set",
		logging.Int("layer", layer),
		logging.Float64("warmth", warmth),
		logging.Float64("cutoff_hz", cutoff))
	return nil
}

// SetMasterVolume sets the master volume from a normalized [0, 1] value.
func (m *Mixer) SetMasterVolume(volume float64) error {
	db := VolumeToDecibels(volume)
	if err := m.backend.SetParam(MasterVolumeParam, db); err != nil {
		return fmt.Errorf("set master volume: %w", err)
	}
	return nil
}

// PlayLayer starts looping playback on a layer. An out-of-range layer index is
// ignored.
func (m *Mixer) PlayLayer(layer int, data []byte) error {
	if !validLayer(layer) || len(data) == 0 {
		return nil
	}
	if err := m.backend.Play(layer, data); err != nil {
		return fmt.Errorf("play layer %d: %w", layer, err)
	}
	return nil
}

// StopLayer halts playback on a layer. An out-of-range layer index is ignored.
func (m *Mixer) StopLayer(layer int) error {
	if !validLayer(layer) {
		return nil
	}
	if err := m.backend.Stop(layer); err != nil {
		return fmt.Errorf("stop layer %d: %w", layer, err)
	}
	return nil
}

// ClearLayer stops a layer and resets its volume and warmth to their neutral
// values. An out-of-range layer index is ignored.
func (m *Mixer) ClearLayer(layer int) error {
	if !validLayer(layer) {
		return nil
	}
	if err := m.StopLayer(layer); err != nil {
		return err
	}
	if err := m.SetLayerVolume(layer, 1.0); err != nil {
		return err
	}
	return m.SetLayerWarmth(layer, 0.0)
}

// PauseAll suspends every playing layer.
func (m *Mixer) PauseAll() error {
	return m.backend.PauseAll()
}

// ResumeAll restarts layers paused by PauseAll.
func (m *Mixer) ResumeAll() error {
	return m.backend.ResumeAll()
}

// Close stops all layers and releases the backend.
func (m *Mixer) Close() error {
	return m.backend.Close()
}

func validLayer(layer int) bool {
	return layer >= 0 && layer < NumLayers
}
