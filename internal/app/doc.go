// Package app wires the soundscape components together and enforces
// single-instance execution through a lock file. Commands construct an App
// with the backend they need (live audio or none) and drive it.
package app
