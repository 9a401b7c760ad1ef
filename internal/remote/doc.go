// Package remote talks to the PostgREST endpoint serving the sound catalog
// (a Supabase project in the original deployment) and fetches raw asset bytes
// by URL.
//
// The client exposes exactly the capabilities the catalog needs: a full
// catalog fetch, a cheap row-count staleness probe, a readiness ping, and a
// uniform byte fetch used for both artwork and audio payloads.
package remote
