package scene

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"soundscape/internal/catalog"
	"soundscape/internal/logging"
	"soundscape/internal/mixer"
)

// MaxSlots is the scene capacity, one slot per mixer layer.
const MaxSlots = mixer.NumLayers

// Default settings applied to a newly added slot.
const (
	DefaultVolume = 1.0
	DefaultWarmth = 1.0
)

// Slot binds a mixer layer to a catalog entry plus its settings. Volume and
// warmth are normalized to [0, 1].
type Slot struct {
	ID         uuid.UUID
	LayerIndex int
	Entry      *catalog.Entry
	Volume     float64
	Warmth     float64
}

// Observer receives the full slot list and the playing flag after every scene
// transition. Called outside the engine lock; the slice is a private copy.
type Observer func(slots []Slot, playing bool)

// AudioResolver hydrates an entry's audio payload on demand. Implemented by
// the catalog store.
type AudioResolver interface {
	ResolveAudio(ctx context.Context, e *catalog.Entry) ([]byte, error)
}

// Engine is the scene state machine. All methods are safe for concurrent use.
type Engine struct {
	mixer    *mixer.Mixer
	resolver AudioResolver
	logger   *slog.Logger

	mu        sync.Mutex
	slots     []*Slot
	playing   bool
	observers []Observer
}

// NewEngine builds an empty, non-playing scene.
func NewEngine(m *mixer.Mixer, resolver AudioResolver, logger *slog.Logger) *Engine {
	return &Engine{
		mixer:    m,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "scene"),
	}
}

// Subscribe registers an observer for scene changes. Not safe to call from
// within an observer.
func (e *Engine) Subscribe(obs Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, obs)
}

// AddSound adds an entry to the scene with default settings. At capacity it
// delegates to ReplaceSound, so the call never fails for being full.
func (e *Engine) AddSound(ctx context.Context, entry *catalog.Entry) (*Slot, error) {
	e.mu.Lock()
	if len(e.slots) >= MaxSlots {
		e.mu.Unlock()
		return e.ReplaceSound(ctx, entry)
	}

	slot := &Slot{
		ID:         uuid.New(),
		LayerIndex: e.lowestFreeLayerLocked(),
		Entry:      entry,
		Volume:     DefaultVolume,
		Warmth:     DefaultWarmth,
	}
	e.slots = append(e.slots, slot)

	err := e.startSlotLocked(ctx, slot)
	e.syncPlayingLocked()
	e.notifyAndUnlock()

	if err != nil {
		return slot, err
	}
	e.logger.Info("sound added",
		logging.String("key", entry.Key),
		logging.Int("layer", slot.LayerIndex))
	return slot, nil
}

// ReplaceSound swaps the last slot's entry in place, keeping its layer and
// settings. With an empty scene it behaves as AddSound.
func (e *Engine) ReplaceSound(ctx context.Context, entry *catalog.Entry) (*Slot, error) {
	e.mu.Lock()
	if len(e.slots) == 0 {
		e.mu.Unlock()
		return e.AddSound(ctx, entry)
	}

	slot := e.slots[len(e.slots)-1]
	slot.Entry = entry

	err := e.startSlotLocked(ctx, slot)
	e.syncPlayingLocked()
	e.notifyAndUnlock()

	if err != nil {
		return slot, err
	}
	e.logger.Info("sound replaced",
		logging.String("key", entry.Key),
		logging.Int("layer", slot.LayerIndex))
	return slot, nil
}

// RemoveSound removes the slot with the given ID and clears its layer.
func (e *Engine) RemoveSound(id uuid.UUID) error {
	e.mu.Lock()
	idx := -1
	for i, s := range e.slots {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("no slot with id %s", id)
	}

	slot := e.slots[idx]
	e.slots = append(e.slots[:idx], e.slots[idx+1:]...)
	err := e.mixer.ClearLayer(slot.LayerIndex)
	e.syncPlayingLocked()
	e.notifyAndUnlock()

	if err != nil {
		return err
	}
	e.logger.Info("sound removed",
		logging.String("key", slot.Entry.Key),
		logging.Int("layer", slot.LayerIndex))
	return nil
}

// RemoveLayer removes the slot occupying the given layer index.
func (e *Engine) RemoveLayer(layer int) error {
	e.mu.Lock()
	var id uuid.UUID
	found := false
	for _, s := range e.slots {
		if s.LayerIndex == layer {
			id = s.ID
			found = true
			break
		}
	}
	e.mu.Unlock()
	if !found {
		return fmt.Errorf("no slot on layer %d", layer)
	}
	return e.RemoveSound(id)
}

// ClearScene removes every slot and pauses playback.
func (e *Engine) ClearScene() error {
	e.mu.Lock()
	var firstErr error
	for _, s := range e.slots {
		if err := e.mixer.ClearLayer(s.LayerIndex); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	e.slots = nil
	e.syncPlayingLocked()
	e.notifyAndUnlock()

	if firstErr != nil {
		return firstErr
	}
	e.logger.Info("scene cleared")
	return nil
}

// SetSlotVolume updates the volume of the slot on the given layer.
func (e *Engine) SetSlotVolume(layer int, volume float64) error {
	e.mu.Lock()
	slot := e.slotOnLayerLocked(layer)
	if slot == nil {
		e.mu.Unlock()
		return fmt.Errorf("no slot on layer %d", layer)
	}
	slot.Volume = clamp01(volume)
	err := e.mixer.SetLayerVolume(layer, slot.Volume)
	e.notifyAndUnlock()
	return err
}

// SetSlotWarmth updates the warmth of the slot on the given layer.
func (e *Engine) SetSlotWarmth(layer int, warmth float64) error {
	e.mu.Lock()
	slot := e.slotOnLayerLocked(layer)
	if slot == nil {
		e.mu.Unlock()
		return fmt.Errorf("no slot on layer %d", layer)
	}
	slot.Warmth = clamp01(warmth)
	err := e.mixer.SetLayerWarmth(layer, slot.Warmth)
	e.notifyAndUnlock()
	return err
}

// SetPlaying overrides the scene-level playing flag, pausing or resuming all
// layers without touching slot membership.
func (e *Engine) SetPlaying(playing bool) error {
	e.mu.Lock()
	e.playing = playing
	var err error
	if playing {
		err = e.mixer.ResumeAll()
	} else {
		err = e.mixer.PauseAll()
	}
	e.notifyAndUnlock()
	return err
}

// IsPlaying reports the scene-level playing flag.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Slots returns a copy of the current slot list in scene order.
func (e *Engine) Slots() []Slot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// startSlotLocked applies the slot's settings to the mixer and starts
// playback, resolving the audio payload asynchronously when it is not
// hydrated yet.
func (e *Engine) startSlotLocked(ctx context.Context, slot *Slot) error {
	if err := e.mixer.SetLayerVolume(slot.LayerIndex, slot.Volume); err != nil {
		return err
	}
	if err := e.mixer.SetLayerWarmth(slot.LayerIndex, slot.Warmth); err != nil {
		return err
	}

	entry := slot.Entry
	if entry.Audio != nil {
		return e.mixer.PlayLayer(slot.LayerIndex, entry.Audio)
	}
	if entry.IsPlaceholder() {
		e.logger.Warn("slot has no playable audio",
			logging.String("key", entry.Key),
			logging.String(logging.FieldImpact, "layer stays silent"))
		return nil
	}

	go e.resolveAndPlay(ctx, slot.ID, entry)
	return nil
}

// resolveAndPlay hydrates an entry's audio in the background. The result is
// applied only if the slot still references the entry it was resolved for;
// a slot replaced mid-flight silently discards the stale payload.
func (e *Engine) resolveAndPlay(ctx context.Context, slotID uuid.UUID, entry *catalog.Entry) {
	data, err := e.resolver.ResolveAudio(ctx, entry)
	if err != nil {
		e.logger.Warn("audio resolution failed",
			logging.String("key", entry.Key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "layer stays silent"))
		return
	}
	if data == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.slots {
		if s.ID == slotID && s.Entry == entry {
			if err := e.mixer.PlayLayer(s.LayerIndex, data); err != nil {
				e.logger.Warn("playback failed",
					logging.String("key", entry.Key),
					logging.Error(err))
			}
			return
		}
	}
	e.logger.Debug("discarding stale audio result", logging.String("key", entry.Key))
}

// syncPlayingLocked follows slot membership: a non-empty scene resumes, an
// empty one pauses. Explicit SetPlaying calls override this afterwards.
func (e *Engine) syncPlayingLocked() {
	playing := len(e.slots) > 0
	if playing == e.playing {
		return
	}
	e.playing = playing
	if playing {
		if err := e.mixer.ResumeAll(); err != nil {
			e.logger.Warn("resume failed", logging.Error(err))
		}
	} else {
		if err := e.mixer.PauseAll(); err != nil {
			e.logger.Warn("pause failed", logging.Error(err))
		}
	}
}

// notifyAndUnlock snapshots state, releases the lock, and invokes observers.
func (e *Engine) notifyAndUnlock() {
	slots := e.snapshotLocked()
	playing := e.playing
	observers := make([]Observer, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	for _, obs := range observers {
		obs(slots, playing)
	}
}

func (e *Engine) snapshotLocked() []Slot {
	out := make([]Slot, len(e.slots))
	for i, s := range e.slots {
		out[i] = *s
	}
	return out
}

func (e *Engine) slotOnLayerLocked(layer int) *Slot {
	for _, s := range e.slots {
		if s.LayerIndex == layer {
			return s
		}
	}
	return nil
}

// lowestFreeLayerLocked returns the lowest layer index not held by any slot.
// Equals len(slots) when no slot was ever removed.
func (e *Engine) lowestFreeLayerLocked() int {
	for layer := 0; layer < MaxSlots; layer++ {
		if e.slotOnLayerLocked(layer) == nil {
			return layer
		}
	}
	return MaxSlots - 1
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
