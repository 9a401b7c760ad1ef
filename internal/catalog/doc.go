// Package catalog owns the canonical in-memory list of sounds available to
// the scene, synchronized between a remote source and a local JSON snapshot.
//
// On startup the store decides whether the local snapshot is stale by
// comparing its entry count against a cheap remote count probe; a stale,
// missing, or corrupt snapshot forces a full remote refresh. Asset hydration
// populates each entry's artwork and audio payload disk-first through the
// asset cache, tolerating per-entry failures, and defers the snapshot write
// until the whole pass completes.
//
// The store is the only component that mutates entries; everything else holds
// read-only references. Keys (titles) are unique within a snapshot and looked
// up case-insensitively.
package catalog
