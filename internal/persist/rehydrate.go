package persist

import (
	"context"
	"fmt"

	"soundscape/internal/catalog"
	"soundscape/internal/logging"
	"soundscape/internal/scene"
)

// Rehydrate rebuilds the live scene from the persisted slot states. Keys that
// no longer exist in the catalog become placeholder slots so the saved scene
// shape is preserved. Playback starts unless the restored scene is empty.
func (s *Store) Rehydrate(ctx context.Context, cat *catalog.Store, engine *scene.Engine) error {
	states, err := s.LoadScene(ctx)
	if err != nil {
		return fmt.Errorf("load persisted scene: %w", err)
	}
	if len(states) == 0 {
		return nil
	}

	for _, state := range states {
		entry := cat.FindByKey(state.Key)
		if entry == nil {
			s.logger.Warn("persisted sound missing from catalog",
				logging.String("key", state.Key),
				logging.String(logging.FieldImpact, "slot restored without audio"))
			entry = catalog.Placeholder(state.Key)
		}

		slot, err := engine.AddSound(ctx, entry)
		if err != nil {
			s.logger.Warn("failed to restore slot",
				logging.String("key", state.Key),
				logging.Error(err))
			continue
		}
		if err := engine.SetSlotVolume(slot.LayerIndex, state.Volume); err != nil {
			s.logger.Warn("failed to restore volume", logging.String("key", state.Key), logging.Error(err))
		}
		if err := engine.SetSlotWarmth(slot.LayerIndex, state.Warmth); err != nil {
			s.logger.Warn("failed to restore warmth", logging.String("key", state.Key), logging.Error(err))
		}
	}

	if err := engine.SetPlaying(true); err != nil {
		return fmt.Errorf("start restored scene: %w", err)
	}
	s.logger.Info("scene restored", logging.Int("slot_count", len(states)))
	return nil
}
