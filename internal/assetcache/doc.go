// Package assetcache resolves catalog artwork and audio payloads from the
// local disk cache, falling back to a remote fetch and caching newly fetched
// bytes under deterministic, filesystem-safe names derived from the catalog
// key.
//
// Deterministic names make hydration idempotent: re-running a hydration pass
// after a partial failure reuses files cached by the earlier attempt instead
// of downloading them again. Cached paths are recorded relative to the cache
// root so the cache directory can be relocated wholesale.
package assetcache
