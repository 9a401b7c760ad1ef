package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"

	"soundscape/internal/assetcache"
	"soundscape/internal/catalog"
	"soundscape/internal/config"
	"soundscape/internal/logging"
	"soundscape/internal/mixer"
	"soundscape/internal/persist"
	"soundscape/internal/remote"
	"soundscape/internal/scene"
)

// App holds the wired component graph.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	Remote  *remote.Client
	Assets  *assetcache.Cache
	Catalog *catalog.Store
	Mixer   *mixer.Mixer
	Scene   *scene.Engine
	Persist *persist.Store
}

// Open constructs the component graph over the given mixer backend and
// acquires the instance lock. The caller owns the returned App and must Close
// it.
func Open(cfg *config.Config, logger *slog.Logger, backend mixer.Backend) (*App, error) {
	if cfg == nil || logger == nil || backend == nil {
		return nil, errors.New("app requires config, logger, and backend")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lockPath := cfg.LockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another soundscape instance is already running")
	}

	client := remote.New(cfg.Remote)

	cache := assetcache.New(cfg.Paths.CacheDir, cfg.SnapshotPath(), client, logger)
	if err := cache.EnsureDirs(); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("prepare asset cache: %w", err)
	}

	cat := catalog.NewStore(catalog.Options{
		SnapshotPath:      cfg.SnapshotPath(),
		Source:            client,
		Assets:            cache,
		Logger:            logger,
		HydrateWorkers:    cfg.Catalog.HydrateWorkers,
		ReadyPollInterval: time.Duration(cfg.Catalog.ReadyPollInterval) * time.Second,
	})

	m, err := mixer.New(backend, cfg.Mixer, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("build mixer: %w", err)
	}

	engine := scene.NewEngine(m, cat, logger)

	store, err := persist.Open(cfg.DatabasePath(), logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open persistence store: %w", err)
	}
	engine.Subscribe(store.SceneObserver())

	return &App{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "app"),
		lockPath: lockPath,
		lock:     lock,
		Remote:   client,
		Assets:   cache,
		Catalog:  cat,
		Mixer:    m,
		Scene:    engine,
		Persist:  store,
	}, nil
}

// Start synchronizes the catalog and restores the persisted scene.
func (a *App) Start(ctx context.Context) error {
	if err := a.Catalog.LoadOrRefresh(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := a.Persist.Rehydrate(ctx, a.Catalog, a.Scene); err != nil {
		return fmt.Errorf("restore scene: %w", err)
	}
	a.logger.Info("started",
		logging.Int("catalog_entries", a.Catalog.Count()),
		logging.Int("scene_slots", len(a.Scene.Slots())))
	return nil
}

// Config returns the configuration the app was opened with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close releases the mixer, the persistence store, and the instance lock.
func (a *App) Close() error {
	var firstErr error
	if a.Mixer != nil {
		if err := a.Mixer.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Persist != nil {
		if err := a.Persist.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
