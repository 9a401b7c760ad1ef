// Package scene owns the ordered list of active layer slots that make up the
// user's soundscape and drives the mixer to match.
//
// The scene holds at most three slots, one per mixer layer. Adding a sound at
// capacity replaces the last slot rather than failing, so new sounds always
// land in the most recently touched layer once the scene is full. Every
// transition notifies observers with the full slot snapshot, never a diff.
//
// Sounds whose audio payload is not hydrated yet are resolved asynchronously
// through the catalog; a result is discarded if the slot no longer references
// the entry it was resolved for.
package scene
