package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"soundscape/internal/logging"
	"soundscape/internal/scene"
)

// Store manages scene and favorites persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// SlotState is one persisted scene slot.
type SlotState struct {
	Key    string
	Volume float64
	Warmth float64
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the persistence database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logging.NewComponentLogger(logger, "persist")}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveScene replaces the persisted scene with the given slot states, in order,
// inside one transaction.
func (s *Store) SaveScene(ctx context.Context, states []SlotState) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin scene tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, "DELETE FROM scene_slots"); err != nil {
			return fmt.Errorf("clear scene: %w", err)
		}
		for i, state := range states {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO scene_slots (position, key, volume, warmth) VALUES (?, ?, ?, ?)",
				i, state.Key, state.Volume, state.Warmth,
			); err != nil {
				return fmt.Errorf("insert slot %d: %w", i, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit scene: %w", err)
		}
		return nil
	})
}

// LoadScene returns the persisted slot states in scene order.
func (s *Store) LoadScene(ctx context.Context) ([]SlotState, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, volume, warmth FROM scene_slots ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SlotState
	for rows.Next() {
		var state SlotState
		if err := rows.Scan(&state.Key, &state.Volume, &state.Warmth); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return states, nil
}

// SceneObserver returns an observer that persists the scene on every change.
// Persistence failures are logged, never propagated into the scene.
func (s *Store) SceneObserver() scene.Observer {
	return func(slots []scene.Slot, _ bool) {
		states := make([]SlotState, len(slots))
		for i, slot := range slots {
			states[i] = SlotState{Key: slot.Entry.Key, Volume: slot.Volume, Warmth: slot.Warmth}
		}
		if err := s.SaveScene(context.Background(), states); err != nil {
			s.logger.Warn("failed to persist scene",
				logging.Error(err),
				logging.String(logging.FieldImpact, "scene will not survive restart"))
		}
	}
}

// AddFavorite records a key as a favorite. Adding an existing favorite is a
// no-op.
func (s *Store) AddFavorite(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("favorite key is empty")
	}
	return s.execWithRetry(ctx, "INSERT OR IGNORE INTO favorites (key) VALUES (?)", key)
}

// RemoveFavorite deletes a key from the favorites, case-insensitively.
func (s *Store) RemoveFavorite(ctx context.Context, key string) error {
	return s.execWithRetry(ctx, "DELETE FROM favorites WHERE key = ?", strings.TrimSpace(key))
}

// Favorites returns all favorite keys in sorted order.
func (s *Store) Favorites(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM favorites ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return keys, nil
}

// IsFavorite reports whether a key is favorited, case-insensitively.
func (s *Store) IsFavorite(ctx context.Context, key string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM favorites WHERE key = ?", strings.TrimSpace(key)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return count > 0, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
