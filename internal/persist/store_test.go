package persist

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"soundscape/internal/catalog"
	"soundscape/internal/config"
	"soundscape/internal/logging"
	"soundscape/internal/mixer"
	"soundscape/internal/remote"
	"soundscape/internal/scene"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "soundscape.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSceneRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved := []SlotState{
		{Key: "Ocean", Volume: 0.8, Warmth: 0.3},
		{Key: "Rain", Volume: 1.0, Warmth: 0.0},
		{Key: "Cabin", Volume: 0.5, Warmth: 1.0},
	}
	if err := store.SaveScene(ctx, saved); err != nil {
		t.Fatalf("SaveScene failed: %v", err)
	}

	loaded, err := store.LoadScene(ctx)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if len(loaded) != len(saved) {
		t.Fatalf("loaded %d slots, want %d", len(loaded), len(saved))
	}
	for i := range saved {
		if loaded[i] != saved[i] {
			t.Errorf("slot %d = %+v, want %+v", i, loaded[i], saved[i])
		}
	}
}

func TestSaveSceneReplacesWholesale(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveScene(ctx, []SlotState{
		{Key: "Ocean", Volume: 1, Warmth: 1},
		{Key: "Rain", Volume: 1, Warmth: 1},
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.SaveScene(ctx, []SlotState{{Key: "Cabin", Volume: 0.5, Warmth: 0.5}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := store.LoadScene(ctx)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Key != "Cabin" {
		t.Errorf("second save should replace the first: %+v", loaded)
	}

	// An empty save clears the scene entirely.
	if err := store.SaveScene(ctx, nil); err != nil {
		t.Fatalf("empty save: %v", err)
	}
	loaded, err = store.LoadScene(ctx)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("scene should be empty, got %+v", loaded)
	}
}

func TestFavorites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"Ocean", "Rain", "Ocean"} {
		if err := store.AddFavorite(ctx, key); err != nil {
			t.Fatalf("AddFavorite(%s): %v", key, err)
		}
	}

	keys, err := store.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites failed: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("duplicate add should be a no-op, got %v", keys)
	}

	ok, err := store.IsFavorite(ctx, "ocean")
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if !ok {
		t.Error("favorite lookup should be case-insensitive")
	}

	if err := store.RemoveFavorite(ctx, "OCEAN"); err != nil {
		t.Fatalf("RemoveFavorite failed: %v", err)
	}
	ok, err = store.IsFavorite(ctx, "Ocean")
	if err != nil {
		t.Fatalf("IsFavorite failed: %v", err)
	}
	if ok {
		t.Error("removal should be case-insensitive")
	}

	if err := store.AddFavorite(ctx, "  "); err == nil {
		t.Error("blank favorite key should be rejected")
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soundscape.db")
	store, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = Open(path, logging.NewNop())
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

type staticSource struct {
	count int
}

func (s *staticSource) FetchCatalog(context.Context) ([]remote.Sound, error) {
	return nil, errors.New("offline")
}
func (s *staticSource) FetchCount(context.Context) (int, error) { return s.count, nil }
func (s *staticSource) Ping(context.Context) error              { return nil }

type staticAssets struct{}

func (staticAssets) ResolveImage(context.Context, string, string, string) ([]byte, string, error) {
	return nil, "", nil
}
func (staticAssets) ResolveAudio(_ context.Context, key, _, _ string) ([]byte, string, error) {
	return []byte(key), "", nil
}

// loadedCatalog builds a catalog store serving the given keys from a local
// snapshot.
func loadedCatalog(t *testing.T, keys ...string) *catalog.Store {
	t.Helper()
	entries := make([]*catalog.Entry, len(keys))
	for i, key := range keys {
		entries[i] = &catalog.Entry{Key: key, AudioURL: "https://cdn/" + key + ".wav", Category: "Nature"}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	snapshot := filepath.Join(t.TempDir(), "sound_data.json")
	if err := os.WriteFile(snapshot, data, 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	cat := catalog.NewStore(catalog.Options{
		SnapshotPath:   snapshot,
		Source:         &staticSource{count: len(keys)},
		Assets:         staticAssets{},
		Logger:         logging.NewNop(),
		HydrateWorkers: 1,
	})
	if err := cat.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}
	return cat
}

func newTestEngine(t *testing.T) *scene.Engine {
	t.Helper()
	cfg := config.Mixer{LowCutoffHz: 200, HighCutoffHz: 8000, MasterVolume: 1.0}
	m, err := mixer.New(mixer.NewNopBackend(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("mixer.New: %v", err)
	}
	return scene.NewEngine(m, noopResolver{}, logging.NewNop())
}

type noopResolver struct{}

func (noopResolver) ResolveAudio(context.Context, *catalog.Entry) ([]byte, error) {
	return nil, nil
}

func TestRehydrateRestoresScene(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cat := loadedCatalog(t, "Ocean", "Rain", "Cabin")
	engine := newTestEngine(t)

	saved := []SlotState{
		{Key: "Rain", Volume: 0.7, Warmth: 0.2},
		{Key: "Cabin", Volume: 0.4, Warmth: 0.9},
	}
	if err := store.SaveScene(ctx, saved); err != nil {
		t.Fatalf("SaveScene failed: %v", err)
	}

	if err := store.Rehydrate(ctx, cat, engine); err != nil {
		t.Fatalf("Rehydrate failed: %v", err)
	}

	slots := engine.Slots()
	if len(slots) != 2 {
		t.Fatalf("restored %d slots, want 2", len(slots))
	}
	for i, want := range saved {
		if slots[i].Entry.Key != want.Key {
			t.Errorf("slot %d key = %q, want %q", i, slots[i].Entry.Key, want.Key)
		}
		if slots[i].Volume != want.Volume || slots[i].Warmth != want.Warmth {
			t.Errorf("slot %d settings = (%v, %v), want (%v, %v)",
				i, slots[i].Volume, slots[i].Warmth, want.Volume, want.Warmth)
		}
	}
	if !engine.IsPlaying() {
		t.Error("restored non-empty scene should be playing")
	}
}

func TestRehydrateMissingKeyBecomesPlaceholder(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	cat := loadedCatalog(t, "Rain")
	engine := newTestEngine(t)

	if err := store.SaveScene(ctx, []SlotState{
		{Key: "Ocean", Volume: 1, Warmth: 1},
		{Key: "Rain", Volume: 1, Warmth: 1},
	}); err != nil {
		t.Fatalf("SaveScene failed: %v", err)
	}

	if err := store.Rehydrate(ctx, cat, engine); err != nil {
		t.Fatalf("Rehydrate failed: %v", err)
	}

	slots := engine.Slots()
	if len(slots) != 2 {
		t.Fatalf("missing key must not drop the slot: %d slots", len(slots))
	}
	if slots[0].Entry.Key != "Ocean" || !slots[0].Entry.IsPlaceholder() {
		t.Errorf("slot 0 should be an Ocean placeholder: %+v", slots[0].Entry)
	}
	if slots[1].Entry.Key != "Rain" || slots[1].Entry.IsPlaceholder() {
		t.Errorf("slot 1 should be the live Rain entry: %+v", slots[1].Entry)
	}
}

func TestRehydrateEmptySceneStaysStopped(t *testing.T) {
	store := openTestStore(t)
	cat := loadedCatalog(t, "Rain")
	engine := newTestEngine(t)

	if err := store.Rehydrate(context.Background(), cat, engine); err != nil {
		t.Fatalf("Rehydrate failed: %v", err)
	}
	if len(engine.Slots()) != 0 {
		t.Error("nothing should be restored")
	}
	if engine.IsPlaying() {
		t.Error("empty restore should not start playback")
	}
}

func TestSceneObserverPersists(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	engine := newTestEngine(t)
	engine.Subscribe(store.SceneObserver())

	entry := &catalog.Entry{Key: "Ocean", AudioURL: "https://cdn/ocean.wav", Audio: []byte("pcm")}
	if _, err := engine.AddSound(ctx, entry); err != nil {
		t.Fatalf("AddSound failed: %v", err)
	}
	if err := engine.SetSlotVolume(0, 0.6); err != nil {
		t.Fatalf("SetSlotVolume failed: %v", err)
	}

	loaded, err := store.LoadScene(ctx)
	if err != nil {
		t.Fatalf("LoadScene failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 persisted slot, got %d", len(loaded))
	}
	if loaded[0].Key != "Ocean" || loaded[0].Volume != 0.6 {
		t.Errorf("persisted slot = %+v", loaded[0])
	}
}
