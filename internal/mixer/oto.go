package mixer

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"

	"soundscape/internal/config"
	"soundscape/internal/logging"
)

// OtoBackend plays layers as looping 16-bit PCM streams through the OS audio
// device. One oto player per layer; warmth is applied in the stream as a
// one-pole low-pass filter, volume through the player gain.
type OtoBackend struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
	logger     *slog.Logger

	mu         sync.Mutex
	masterGain float64
	layers     [NumLayers]*otoLayer
	paused     bool
}

type otoLayer struct {
	gain   float64
	cutoff float64
	stream *loopStream
	player *oto.Player
}

// NewOtoBackend opens the audio device and blocks until it is ready.
func NewOtoBackend(cfg config.Mixer, logger *slog.Logger) (*OtoBackend, error) {
	if cfg.SampleRate != 44100 && cfg.SampleRate != 48000 {
		return nil, fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", cfg.SampleRate)
	}
	if cfg.ChannelCount != 1 && cfg.ChannelCount != 2 {
		return nil, fmt.Errorf("channel count must be 1 or 2, got %d", cfg.ChannelCount)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	b := &OtoBackend{
		ctx:        ctx,
		sampleRate: cfg.SampleRate,
		channels:   cfg.ChannelCount,
		logger:     logging.NewComponentLogger(logger, "audio"),
		masterGain: 1.0,
	}
	for i := range b.layers {
		b.layers[i] = &otoLayer{gain: 1.0, cutoff: cfg.HighCutoffHz}
	}
	return b, nil
}

func (b *OtoBackend) SetParam(name string, value float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if name == MasterVolumeParam {
		b.masterGain = DecibelsToGain(value)
		for _, l := range b.layers {
			b.applyGain(l)
		}
		return nil
	}
	for i := 0; i < NumLayers; i++ {
		switch name {
		case LayerVolumeParam(i):
			b.layers[i].gain = DecibelsToGain(value)
			b.applyGain(b.layers[i])
			return nil
		case WarmthCutoffParam(i):
			b.layers[i].cutoff = value
			if b.layers[i].stream != nil {
				b.layers[i].stream.setCutoff(value)
			}
			return nil
		}
	}
	return fmt.Errorf("unknown mixer parameter %q", name)
}

func (b *OtoBackend) applyGain(l *otoLayer) {
	if l.player == nil {
		return
	}
	gain := b.masterGain * l.gain
	if gain > 1 {
		gain = 1
	}
	l.player.SetVolume(gain)
}

func (b *OtoBackend) Play(layer int, data []byte) error {
	if !validLayer(layer) {
		return fmt.Errorf("layer %d out of range", layer)
	}
	pcm := stripWAVHeader(data)
	if len(pcm) == 0 {
		return fmt.Errorf("layer %d: no audio data", layer)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	l := b.layers[layer]
	b.stopLocked(l)

	l.stream = newLoopStream(pcm, b.sampleRate, b.channels, l.cutoff)
	l.player = b.ctx.NewPlayer(l.stream)
	b.applyGain(l)
	if !b.paused {
		l.player.Play()
	}
	b.logger.Debug("layer playing",
		logging.Int("layer", layer),
		logging.Int("pcm_bytes", len(pcm)))
	return nil
}

func (b *OtoBackend) Stop(layer int) error {
	if !validLayer(layer) {
		return fmt.Errorf("layer %d out of range", layer)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopLocked(b.layers[layer])
	return nil
}

func (b *OtoBackend) stopLocked(l *otoLayer) {
	if l.player != nil {
		l.player.Pause()
		l.player.Close()
		l.player = nil
	}
	l.stream = nil
}

func (b *OtoBackend) PauseAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
	for _, l := range b.layers {
		if l.player != nil {
			l.player.Pause()
		}
	}
	return nil
}

func (b *OtoBackend) ResumeAll() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = false
	for _, l := range b.layers {
		if l.player != nil {
			l.player.Play()
		}
	}
	return nil
}

// Close stops every layer. The oto context itself has no close; it is
// released when the process exits.
func (b *OtoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.layers {
		b.stopLocked(l)
	}
	return nil
}

// loopStream is an endless reader over 16-bit little-endian PCM. It rewinds at
// the end of the data and applies a one-pole low-pass filter whose coefficient
// can be retuned while playing.
type loopStream struct {
	data       []byte
	pos        int
	sampleRate int
	channels   int
	alphaBits  atomic.Uint64
	state      []float64
}

func newLoopStream(pcm []byte, sampleRate, channels int, cutoffHz float64) *loopStream {
	frame := channels * 2
	s := &loopStream{
		data:       pcm[:len(pcm)/frame*frame],
		sampleRate: sampleRate,
		channels:   channels,
		state:      make([]float64, channels),
	}
	s.setCutoff(cutoffHz)
	return s
}

// setCutoff retunes the filter. Cutoffs at or above Nyquist bypass it.
func (s *loopStream) setCutoff(cutoffHz float64) {
	alpha := 1.0
	if cutoffHz < float64(s.sampleRate)/2 {
		alpha = 1 - math.Exp(-2*math.Pi*cutoffHz/float64(s.sampleRate))
	}
	s.alphaBits.Store(math.Float64bits(alpha))
}

func (s *loopStream) Read(p []byte) (int, error) {
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	alpha := math.Float64frombits(s.alphaBits.Load())

	n := len(p) / 2 * 2
	for i := 0; i < n; i += 2 {
		if s.pos >= len(s.data) {
			s.pos = 0
		}
		x := float64(int16(binary.LittleEndian.Uint16(s.data[s.pos:])))
		ch := (s.pos / 2) % s.channels
		s.state[ch] += alpha * (x - s.state[ch])
		y := s.state[ch]
		if y > math.MaxInt16 {
			y = math.MaxInt16
		} else if y < math.MinInt16 {
			y = math.MinInt16
		}
		binary.LittleEndian.PutUint16(p[i:], uint16(int16(y)))
		s.pos += 2
	}
	return n, nil
}

// stripWAVHeader returns the PCM payload of a RIFF/WAVE file, or the input
// unchanged when it is not one.
func stripWAVHeader(data []byte) []byte {
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return data
	}
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		if off+8+size > len(data) {
			size = len(data) - off - 8
		}
		if id == "data" {
			return data[off+8 : off+8+size]
		}
		off += 8 + size
		if size%2 == 1 {
			off++
		}
	}
	return data
}
