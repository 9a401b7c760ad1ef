package assetcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"soundscape/internal/fileutil"
	"soundscape/internal/logging"
)

// ErrAssetUnavailable marks a per-entry asset that could not be resolved from
// disk or remote. Callers degrade the single entry and continue.
var ErrAssetUnavailable = errors.New("asset unavailable")

const (
	imagesSubdir = "images"
	audioSubdir  = "audio"
)

// Fetcher retrieves raw asset bytes by URL.
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Cache resolves assets disk-first with remote fallback. It owns the cache
// directories under root and the catalog snapshot file (for ClearAll).
type Cache struct {
	root         string
	snapshotPath string
	fetcher      Fetcher
	logger       *slog.Logger
}

// New creates an asset cache rooted at root. snapshotPath names the catalog
// snapshot file removed by ClearAll alongside the cached assets.
func New(root, snapshotPath string, fetcher Fetcher, logger *slog.Logger) *Cache {
	return &Cache{
		root:         root,
		snapshotPath: snapshotPath,
		fetcher:      fetcher,
		logger:       logging.NewComponentLogger(logger, "assetcache"),
	}
}

// ImagesDir returns the artwork cache directory.
func (c *Cache) ImagesDir() string { return filepath.Join(c.root, imagesSubdir) }

// AudioDir returns the audio cache directory.
func (c *Cache) AudioDir() string { return filepath.Join(c.root, audioSubdir) }

// EnsureDirs creates the cache directories when missing.
func (c *Cache) EnsureDirs() error {
	if err := fileutil.EnsureDir(c.ImagesDir()); err != nil {
		return err
	}
	return fileutil.EnsureDir(c.AudioDir())
}

// ResolveImage returns the artwork bytes for an entry: the recorded local
// path first, then the deterministic cache path, then a remote fetch whose
// result is cached to disk. The returned path (relative to the cache root) is
// empty when nothing changed; callers record a non-empty path on the entry.
// A missing image URL resolves to nil without error.
func (c *Cache) ResolveImage(ctx context.Context, key, sourceURL, localPath string) ([]byte, string, error) {
	if data := c.readLocal(localPath, true); data != nil {
		return data, localPath, nil
	}

	relPath := path.Join(imagesSubdir, SafeFileName(key)+extensionOf(sourceURL, ".png"))
	if data := c.readLocal(relPath, true); data != nil {
		return data, relPath, nil
	}

	if sourceURL == "" {
		return nil, "", nil
	}

	data, err := c.fetcher.FetchBytes(ctx, sourceURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: image for %q: %v", ErrAssetUnavailable, key, err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, "", fmt.Errorf("%w: image for %q is not decodable: %v", ErrAssetUnavailable, key, err)
	}

	return data, c.writeCache(relPath, data), nil
}

// ResolveAudio follows the same disk-first pattern for audio payloads. The
// cache file extension is taken from the source URL.
func (c *Cache) ResolveAudio(ctx context.Context, key, sourceURL, localPath string) ([]byte, string, error) {
	if data := c.readLocal(localPath, false); data != nil {
		return data, localPath, nil
	}

	relPath := path.Join(audioSubdir, SafeFileName(key)+extensionOf(sourceURL, ".wav"))
	if data := c.readLocal(relPath, false); data != nil {
		return data, relPath, nil
	}

	if sourceURL == "" {
		return nil, "", nil
	}

	data, err := c.fetcher.FetchBytes(ctx, sourceURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: audio for %q: %v", ErrAssetUnavailable, key, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: audio for %q is empty", ErrAssetUnavailable, key)
	}

	return data, c.writeCache(relPath, data), nil
}

// ClearAll deletes every cached asset and the catalog snapshot file, then
// recreates empty cache directories. Used to force a cold start.
func (c *Cache) ClearAll() error {
	if c.snapshotPath != "" {
		if err := os.Remove(c.snapshotPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove snapshot: %w", err)
		}
	}
	for _, dir := range []string{c.ImagesDir(), c.AudioDir()} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove cache dir %s: %w", dir, err)
		}
	}
	if err := c.EnsureDirs(); err != nil {
		return fmt.Errorf("recreate cache dirs: %w", err)
	}
	c.logger.Info("cleared asset cache and snapshot")
	return nil
}

// readLocal loads a cached file by root-relative path. Unreadable or
// undecodable files are treated as absent so resolution falls through to the
// remote fetch.
func (c *Cache) readLocal(relPath string, validateImage bool) []byte {
	if strings.TrimSpace(relPath) == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(c.root, filepath.FromSlash(relPath)))
	if err != nil || len(data) == 0 {
		return nil
	}
	if validateImage {
		if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
			c.logger.Warn("cached image is not decodable, refetching",
				logging.String("path", relPath),
				logging.Error(err))
			return nil
		}
	}
	return data
}

// writeCache persists freshly fetched bytes. A failed cache write degrades to
// an uncached payload rather than an error: the caller still gets the data.
func (c *Cache) writeCache(relPath string, data []byte) string {
	full := filepath.Join(c.root, filepath.FromSlash(relPath))
	if err := fileutil.WriteFileAtomic(full, data, 0o644); err != nil {
		c.logger.Warn("failed to cache asset to disk",
			logging.String("path", relPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "asset will be re-downloaded next run"))
		return ""
	}
	c.logger.Debug("cached asset", logging.String("path", relPath), logging.Int("bytes", len(data)))
	return relPath
}

func extensionOf(sourceURL, fallback string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return fallback
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	if ext == "" {
		return fallback
	}
	return ext
}
