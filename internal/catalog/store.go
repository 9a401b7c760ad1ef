package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"soundscape/internal/fileutil"
	"soundscape/internal/logging"
	"soundscape/internal/remote"
)

var (
	// ErrCatalogUnreachable is returned when a forced refresh cannot reach
	// the remote source. It is surfaced to the caller, not retried here.
	ErrCatalogUnreachable = errors.New("catalog unreachable")

	// ErrSnapshotCorrupt marks an unparsable local snapshot. Recovered
	// internally by treating the snapshot as absent.
	ErrSnapshotCorrupt = errors.New("catalog snapshot corrupt")
)

// Source is the remote catalog capability the store depends on.
type Source interface {
	FetchCatalog(ctx context.Context) ([]remote.Sound, error)
	FetchCount(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// Assets resolves per-entry artwork and audio payloads disk-first.
type Assets interface {
	ResolveImage(ctx context.Context, key, sourceURL, localPath string) ([]byte, string, error)
	ResolveAudio(ctx context.Context, key, sourceURL, localPath string) ([]byte, string, error)
}

// Options configures a Store.
type Options struct {
	SnapshotPath      string
	Source            Source
	Assets            Assets
	Logger            *slog.Logger
	HydrateWorkers    int
	ReadyPollInterval time.Duration
}

// Store owns all catalog entries. See the package documentation for the
// synchronization and ownership contract.
type Store struct {
	mu           sync.RWMutex
	entries      []*Entry
	snapshotPath string
	source       Source
	assets       Assets
	logger       *slog.Logger
	workers      int
	pollInterval time.Duration
}

// NewStore builds a catalog store. The store starts empty; call LoadOrRefresh
// to populate it.
func NewStore(opts Options) *Store {
	workers := opts.HydrateWorkers
	if workers < 1 {
		workers = 1
	}
	poll := opts.ReadyPollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Store{
		snapshotPath: opts.SnapshotPath,
		source:       opts.Source,
		assets:       opts.Assets,
		logger:       logging.NewComponentLogger(opts.Logger, "catalog"),
		workers:      workers,
		pollInterval: poll,
	}
}

// LoadOrRefresh populates the store on startup. A readable local snapshot
// whose entry count matches the remote count is treated as fresh and hydrated
// locally-first; a missing, corrupt, or stale snapshot forces a full remote
// refresh. A failed staleness probe degrades to serving the local snapshot.
func (s *Store) LoadOrRefresh(ctx context.Context) error {
	entries, err := s.loadSnapshot()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no local snapshot, fetching remote catalog")
		} else {
			s.logger.Warn("local snapshot unusable, forcing remote refresh",
				logging.Error(err),
				logging.String(logging.FieldImpact, "full catalog re-download"))
		}
		return s.Refresh(ctx)
	}

	s.setEntries(entries)
	s.logger.Info("loaded catalog snapshot", logging.Int("entry_count", len(entries)))

	count, err := s.source.FetchCount(ctx)
	if err != nil {
		s.logger.Warn("staleness probe failed, serving local snapshot",
			logging.Error(err),
			logging.String(logging.FieldImpact, "catalog may be out of date"))
		s.HydrateAssets(ctx)
		return nil
	}

	if count != len(entries) {
		s.logger.Info("local snapshot stale, refreshing",
			logging.Int("local_count", len(entries)),
			logging.Int("remote_count", count))
		return s.Refresh(ctx)
	}

	s.HydrateAssets(ctx)
	return nil
}

// Refresh fetches the full remote catalog, replacing the snapshot. Local
// cache paths are carried over for keys that survive the refresh so hydration
// can reuse files already on disk. The remote client is polled for readiness
// first, bounded by ctx.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.waitReady(ctx); err != nil {
		return err
	}

	sounds, err := s.source.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogUnreachable, err)
	}

	s.mu.Lock()
	previous := make(map[string]*Entry, len(s.entries))
	for _, e := range s.entries {
		previous[strings.ToLower(e.Key)] = e
	}

	entries := make([]*Entry, 0, len(sounds))
	seen := make(map[string]struct{}, len(sounds))
	for _, sound := range sounds {
		key := strings.TrimSpace(sound.Key)
		if key == "" {
			continue
		}
		lower := strings.ToLower(key)
		if _, dup := seen[lower]; dup {
			s.logger.Warn("duplicate catalog key ignored", logging.String("key", key))
			continue
		}
		seen[lower] = struct{}{}

		entry := &Entry{
			Key:       key,
			AudioURL:  sound.AudioURL,
			ImageURL:  sound.ImageURL,
			Category:  sound.Category,
			Premium:   sound.Premium,
			CreatedAt: sound.CreatedAt,
		}
		if prev, ok := previous[lower]; ok {
			entry.LocalImagePath = prev.LocalImagePath
			entry.LocalAudioPath = prev.LocalAudioPath
		}
		entries = append(entries, entry)
	}
	s.entries = entries
	s.mu.Unlock()

	s.logger.Info("fetched remote catalog", logging.Int("entry_count", len(entries)))

	if err := s.Save(); err != nil {
		s.logger.Warn("failed to save catalog snapshot", logging.Error(err))
	}

	s.HydrateAssets(ctx)
	return nil
}

// waitReady polls the remote source until it responds or ctx ends.
func (s *Store) waitReady(ctx context.Context) error {
	if err := s.source.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrCatalogUnreachable, ctx.Err())
		case <-ticker.C:
			if err := s.source.Ping(ctx); err == nil {
				return nil
			}
			s.logger.Debug("remote source not ready, waiting")
		}
	}
}

// HydrateAssets resolves artwork and audio for every entry through the asset
// cache. Entries are processed by a bounded worker pool; one entry's failure
// never aborts the batch. The snapshot is saved once, after the whole pass,
// so concurrent partial writes cannot race.
func (s *Store) HydrateAssets(ctx context.Context) {
	s.mu.RLock()
	entries := make([]*Entry, len(s.entries))
	copy(entries, s.entries)
	s.mu.RUnlock()

	if len(entries) == 0 {
		return
	}

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		sem <- struct{}{}
		go func(e *Entry) {
			defer wg.Done()
			defer func() { <-sem }()
			s.hydrateEntry(ctx, e)
		}(entry)
	}
	wg.Wait()

	if err := s.Save(); err != nil {
		s.logger.Warn("failed to save catalog snapshot after hydration", logging.Error(err))
	}
}

func (s *Store) hydrateEntry(ctx context.Context, e *Entry) {
	s.mu.RLock()
	key, imageURL, imagePath := e.Key, e.ImageURL, e.LocalImagePath
	audioURL, audioPath := e.AudioURL, e.LocalAudioPath
	hasImage, hasAudio := e.Image != nil, e.Audio != nil
	s.mu.RUnlock()

	if !hasImage {
		data, newPath, err := s.assets.ResolveImage(ctx, key, imageURL, imagePath)
		if err != nil {
			s.logger.Warn("image hydration failed",
				logging.String("key", key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry will show without artwork"))
		} else if data != nil {
			s.mu.Lock()
			e.Image = data
			if newPath != "" {
				e.LocalImagePath = newPath
			}
			s.mu.Unlock()
		}
	}

	if !hasAudio {
		data, newPath, err := s.assets.ResolveAudio(ctx, key, audioURL, audioPath)
		if err != nil {
			s.logger.Warn("audio hydration failed",
				logging.String("key", key),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entry will not be playable"))
		} else if data != nil {
			s.mu.Lock()
			e.Audio = data
			if newPath != "" {
				e.LocalAudioPath = newPath
			}
			s.mu.Unlock()
		}
	}
}

// ResolveAudio hydrates a single entry's audio payload on demand, mutating
// the entry under the store lock (the store is the only entry mutator) and
// saving the snapshot when a new cache path was recorded.
func (s *Store) ResolveAudio(ctx context.Context, e *Entry) ([]byte, error) {
	s.mu.RLock()
	if e.Audio != nil {
		data := e.Audio
		s.mu.RUnlock()
		return data, nil
	}
	key, audioURL, audioPath := e.Key, e.AudioURL, e.LocalAudioPath
	s.mu.RUnlock()

	data, newPath, err := s.assets.ResolveAudio(ctx, key, audioURL, audioPath)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	s.mu.Lock()
	e.Audio = data
	pathChanged := newPath != "" && newPath != e.LocalAudioPath
	if pathChanged {
		e.LocalAudioPath = newPath
	}
	s.mu.Unlock()

	if pathChanged {
		if err := s.Save(); err != nil {
			s.logger.Warn("failed to save catalog snapshot", logging.Error(err))
		}
	}
	return data, nil
}

// Save serializes the current snapshot (including newly recorded local cache
// paths) to the snapshot file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.snapshotPath, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// FindByKey returns the entry with a case-insensitive exact key match.
func (s *Store) FindByKey(key string) *Entry {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if strings.EqualFold(e.Key, key) {
			return e
		}
	}
	return nil
}

// Group is one category of catalog entries.
type Group struct {
	Name    string
	Entries []*Entry
}

// GroupByCategory groups entries by category, groups ordered by collated
// category name so browsing output is stable and deterministic.
func (s *Store) GroupByCategory() []Group {
	s.mu.RLock()
	byCategory := make(map[string][]*Entry)
	for _, e := range s.entries {
		byCategory[e.Category] = append(byCategory[e.Category], e)
	}
	s.mu.RUnlock()

	groups := make([]Group, 0, len(byCategory))
	for name, entries := range byCategory {
		groups = append(groups, Group{Name: name, Entries: entries})
	}

	collator := collate.New(language.Und)
	sort.Slice(groups, func(i, j int) bool {
		return collator.CompareString(groups[i].Name, groups[j].Name) < 0
	})
	return groups
}

// Entries returns a copy of the current entry list in catalog order.
func (s *Store) Entries() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns the number of entries.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) setEntries(entries []*Entry) {
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
}

// loadSnapshot reads the local snapshot file. A parse failure is reported as
// ErrSnapshotCorrupt so the caller treats it like an absent snapshot.
func (s *Store) loadSnapshot() ([]*Entry, error) {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}

	seen := make(map[string]struct{}, len(entries))
	deduped := entries[:0]
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Key))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			s.logger.Warn("duplicate key in snapshot ignored", logging.String("key", e.Key))
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, e)
	}
	return deduped, nil
}
