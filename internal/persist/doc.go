// Package persist stores the scene and the favorites set in SQLite so both
// survive restarts.
//
// The scene is written wholesale on every change: the observer converts the
// live slot list to (key, volume, warmth) rows and replaces the previous rows
// in one transaction. On startup Rehydrate resolves each persisted key against
// the catalog, falling back to an inert placeholder when the key has vanished,
// so a saved slot is never silently dropped.
//
// Favorites are a flat case-insensitive key set, independent of the scene
// lifecycle.
package persist
