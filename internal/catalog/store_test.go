package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"soundscape/internal/logging"
	"soundscape/internal/remote"
)

type fakeSource struct {
	sounds       []remote.Sound
	count        int
	countErr     error
	fetchErr     error
	pingErr      error
	fetchCalls   int
	countCalls   int
	pingAttempts int
}

func (f *fakeSource) FetchCatalog(context.Context) ([]remote.Sound, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.sounds, nil
}

func (f *fakeSource) FetchCount(context.Context) (int, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeSource) Ping(context.Context) error {
	f.pingAttempts++
	return f.pingErr
}

type fakeAssets struct {
	imageData map[string][]byte
	audioData map[string][]byte
	audioErr  map[string]error
}

func (f *fakeAssets) ResolveImage(_ context.Context, key, sourceURL, localPath string) ([]byte, string, error) {
	if sourceURL == "" {
		return nil, "", nil
	}
	return f.imageData[key], "images/" + key + ".png", nil
}

func (f *fakeAssets) ResolveAudio(_ context.Context, key, sourceURL, localPath string) ([]byte, string, error) {
	if err := f.audioErr[key]; err != nil {
		return nil, "", err
	}
	if sourceURL == "" {
		return nil, "", nil
	}
	return f.audioData[key], "audio/" + key + ".wav", nil
}

func testSounds() []remote.Sound {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return []remote.Sound{
		{Key: "Ocean", AudioURL: "https://cdn/ocean.wav", ImageURL: "https://cdn/ocean.png", Category: "Nature", CreatedAt: created},
		{Key: "Rain", AudioURL: "https://cdn/rain.wav", Category: "Nature", Premium: true, CreatedAt: created.Add(time.Hour)},
		{Key: "Cabin", AudioURL: "https://cdn/cabin.wav", Category: "Ambience", CreatedAt: created.Add(2 * time.Hour)},
	}
}

func newTestStore(t *testing.T, source *fakeSource, assets Assets) *Store {
	t.Helper()
	if assets == nil {
		assets = &fakeAssets{
			imageData: map[string][]byte{"Ocean": []byte("img")},
			audioData: map[string][]byte{"Ocean": []byte("aud"), "Rain": []byte("aud"), "Cabin": []byte("aud")},
		}
	}
	return NewStore(Options{
		SnapshotPath:      filepath.Join(t.TempDir(), "sound_data.json"),
		Source:            source,
		Assets:            assets,
		Logger:            logging.NewNop(),
		HydrateWorkers:    2,
		ReadyPollInterval: 10 * time.Millisecond,
	})
}

func TestLoadOrRefreshColdStart(t *testing.T) {
	source := &fakeSource{sounds: testSounds()}
	store := newTestStore(t, source, nil)

	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}

	if store.Count() != 3 {
		t.Errorf("expected 3 entries, got %d", store.Count())
	}
	if source.fetchCalls != 1 {
		t.Errorf("expected 1 full fetch, got %d", source.fetchCalls)
	}

	// The snapshot must exist and carry the hydrated cache paths.
	data, err := os.ReadFile(store.snapshotPath)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	var persisted []*Entry
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("snapshot not parsable: %v", err)
	}
	if persisted[0].LocalAudioPath == "" {
		t.Error("local audio path missing from snapshot")
	}
}

func TestLoadOrRefreshFreshSnapshotSkipsFullFetch(t *testing.T) {
	source := &fakeSource{sounds: testSounds(), count: 3}
	store := newTestStore(t, source, nil)

	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("cold start: %v", err)
	}
	if source.fetchCalls != 1 {
		t.Fatalf("cold start should fetch once, got %d", source.fetchCalls)
	}

	// Second startup against the written snapshot with a matching count.
	store2 := NewStore(Options{
		SnapshotPath:      store.snapshotPath,
		Source:            source,
		Assets:            store.assets,
		Logger:            logging.NewNop(),
		HydrateWorkers:    2,
		ReadyPollInterval: 10 * time.Millisecond,
	})
	if err := store2.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("warm start: %v", err)
	}
	if source.fetchCalls != 1 {
		t.Errorf("fresh snapshot should not re-fetch the catalog, got %d fetches", source.fetchCalls)
	}
	if store2.Count() != 3 {
		t.Errorf("warm start entry count: %d", store2.Count())
	}
}

func TestLoadOrRefreshStaleCountForcesRefresh(t *testing.T) {
	source := &fakeSource{sounds: testSounds(), count: 3}
	store := newTestStore(t, source, nil)
	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("cold start: %v", err)
	}

	// Remote grew by one sound since the snapshot was written.
	source.sounds = append(testSounds(), remote.Sound{Key: "Thunder", AudioURL: "https://cdn/thunder.wav", Category: "Nature"})
	source.count = 4

	store2 := NewStore(Options{
		SnapshotPath:      store.snapshotPath,
		Source:            source,
		Assets:            store.assets,
		Logger:            logging.NewNop(),
		HydrateWorkers:    2,
		ReadyPollInterval: 10 * time.Millisecond,
	})
	if err := store2.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("stale start: %v", err)
	}
	if source.fetchCalls != 2 {
		t.Errorf("stale snapshot should force a full fetch, got %d fetches", source.fetchCalls)
	}
	if store2.Count() != 4 {
		t.Errorf("expected 4 entries after refresh, got %d", store2.Count())
	}
}

func TestLoadOrRefreshCorruptSnapshotForcesRefresh(t *testing.T) {
	source := &fakeSource{sounds: testSounds()}
	store := newTestStore(t, source, nil)

	if err := os.WriteFile(store.snapshotPath, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt snapshot: %v", err)
	}

	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}
	if source.fetchCalls != 1 {
		t.Errorf("corrupt snapshot should force refresh, got %d fetches", source.fetchCalls)
	}
	if store.Count() != 3 {
		t.Errorf("entry count after recovery: %d", store.Count())
	}
}

func TestLoadOrRefreshProbeFailureServesLocal(t *testing.T) {
	source := &fakeSource{sounds: testSounds(), count: 3}
	store := newTestStore(t, source, nil)
	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("cold start: %v", err)
	}

	offline := &fakeSource{countErr: errors.New("offline"), fetchErr: errors.New("offline"), pingErr: errors.New("offline")}
	store2 := NewStore(Options{
		SnapshotPath:      store.snapshotPath,
		Source:            offline,
		Assets:            store.assets,
		Logger:            logging.NewNop(),
		HydrateWorkers:    2,
		ReadyPollInterval: 10 * time.Millisecond,
	})
	if err := store2.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("probe failure should degrade, not fail: %v", err)
	}
	if store2.Count() != 3 {
		t.Errorf("local snapshot should be served, got %d entries", store2.Count())
	}
	if offline.fetchCalls != 0 {
		t.Errorf("no full fetch should be attempted offline, got %d", offline.fetchCalls)
	}
}

func TestRefreshUnreachableRemote(t *testing.T) {
	source := &fakeSource{fetchErr: errors.New("boom")}
	store := newTestStore(t, source, nil)

	err := store.Refresh(context.Background())
	if !errors.Is(err, ErrCatalogUnreachable) {
		t.Errorf("expected ErrCatalogUnreachable, got %v", err)
	}
}

func TestRefreshWaitsForReadiness(t *testing.T) {
	source := &fakeSource{sounds: testSounds(), pingErr: errors.New("starting up")}
	store := newTestStore(t, source, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := store.Refresh(ctx)
	if !errors.Is(err, ErrCatalogUnreachable) {
		t.Errorf("expected ErrCatalogUnreachable after ctx timeout, got %v", err)
	}
	if source.pingAttempts < 2 {
		t.Errorf("expected readiness polling, got %d attempts", source.pingAttempts)
	}
}

func TestHydratePartialFailureTolerated(t *testing.T) {
	source := &fakeSource{sounds: testSounds()}
	assets := &fakeAssets{
		imageData: map[string][]byte{"Ocean": []byte("img")},
		audioData: map[string][]byte{"Ocean": []byte("aud"), "Cabin": []byte("aud")},
		audioErr:  map[string]error{"Rain": errors.New("cdn 404")},
	}
	store := newTestStore(t, source, assets)

	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}

	if store.Count() != 3 {
		t.Fatalf("failed entry should not be dropped, got %d entries", store.Count())
	}
	rain := store.FindByKey("Rain")
	if rain == nil {
		t.Fatal("Rain entry missing")
	}
	if rain.Audio != nil {
		t.Error("Rain audio should be empty after failed hydration")
	}
	ocean := store.FindByKey("Ocean")
	if ocean == nil || ocean.Audio == nil {
		t.Error("Ocean should still be hydrated")
	}
}

func TestRefreshCarriesOverLocalPaths(t *testing.T) {
	source := &fakeSource{sounds: testSounds()}
	store := newTestStore(t, source, nil)
	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("cold start: %v", err)
	}

	before := store.FindByKey("Ocean")
	if before == nil || before.LocalAudioPath == "" {
		t.Fatal("precondition: Ocean should have a cached audio path")
	}

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	after := store.FindByKey("Ocean")
	if after == nil || after.LocalAudioPath != before.LocalAudioPath {
		t.Errorf("local audio path not carried over: %+v", after)
	}
}

func TestFindByKeyCaseInsensitive(t *testing.T) {
	source := &fakeSource{sounds: testSounds()}
	store := newTestStore(t, source, nil)
	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}

	if store.FindByKey("ocean") == nil {
		t.Error("lowercase lookup should match")
	}
	if store.FindByKey("OCEAN") == nil {
		t.Error("uppercase lookup should match")
	}
	if store.FindByKey("Blizzard") != nil {
		t.Error("unknown key should return nil")
	}
	if store.FindByKey("  ") != nil {
		t.Error("blank key should return nil")
	}
}

func TestGroupByCategoryOrdering(t *testing.T) {
	source := &fakeSource{sounds: testSounds()}
	store := newTestStore(t, source, nil)
	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}

	groups := store.GroupByCategory()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Name != "Ambience" || groups[1].Name != "Nature" {
		t.Errorf("groups out of order: %s, %s", groups[0].Name, groups[1].Name)
	}
	if len(groups[1].Entries) != 2 {
		t.Errorf("Nature should hold 2 entries, got %d", len(groups[1].Entries))
	}
}

func TestDuplicateKeysDeduped(t *testing.T) {
	sounds := testSounds()
	sounds = append(sounds, remote.Sound{Key: "ocean", AudioURL: "https://cdn/other.wav", Category: "Nature"})
	source := &fakeSource{sounds: sounds}
	store := newTestStore(t, source, nil)

	if err := store.LoadOrRefresh(context.Background()); err != nil {
		t.Fatalf("LoadOrRefresh failed: %v", err)
	}
	if store.Count() != 3 {
		t.Errorf("case-insensitive duplicate should be dropped, got %d entries", store.Count())
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder("Ocean")
	if p.Key != "Ocean" {
		t.Errorf("placeholder key: %q", p.Key)
	}
	if !p.IsPlaceholder() {
		t.Error("placeholder should report itself as such")
	}
}
