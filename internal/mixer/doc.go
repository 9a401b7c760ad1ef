// Package mixer maps scene-level layer settings onto audio output parameters.
//
// The scene works in normalized units: volume and warmth both live in [0, 1].
// The mixer translates those into the units the output stage understands, a
// logarithmic decibel curve for volume and a log-interpolated low-pass cutoff
// frequency for warmth, and pushes them to a Backend under stable parameter
// names. Three concurrent layers are supported plus a master volume.
//
// Backends: Oto plays layers as looping PCM streams through the OS audio
// device; Nop accepts everything and plays nothing, for headless commands and
// tests.
package mixer
