package mixer

import (
	"fmt"
	"math"
)

// NumLayers is the number of concurrent playback layers.
const NumLayers = 3

// SilenceDB is the decibel value used for an effectively muted layer.
const SilenceDB = -80.0

// MasterVolumeParam is the backend parameter name for the master volume, in
// decibels.
const MasterVolumeParam = "MasterVolume"

// LayerVolumeParam returns the backend parameter name for a layer's volume.
// Layer volume parameters are 1-based.
func LayerVolumeParam(layer int) string {
	return fmt.Sprintf("Layer%dVolume", layer+1)
}

// WarmthCutoffParam returns the backend parameter name for a layer's low-pass
// cutoff. Cutoff parameters are 0-based.
func WarmthCutoffParam(layer int) string {
	return fmt.Sprintf("WarmthCutoff%d", layer)
}

// VolumeToDecibels converts a normalized volume in [0, 1] to decibels on a
// logarithmic curve. Inputs at or below 1e-4 map to SilenceDB so a slider at
// zero is actually silent rather than -inf. Out-of-range inputs are clamped.
func VolumeToDecibels(v float64) float64 {
	v = clamp01(v)
	if v <= 1e-4 {
		return SilenceDB
	}
	return 20 * math.Log10(v)
}

// DecibelsToGain converts decibels back to a linear gain factor. SilenceDB and
// below yield zero.
func DecibelsToGain(db float64) float64 {
	if db <= SilenceDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// WarmthToCutoff converts a normalized warmth in [0, 1] to a low-pass cutoff
// frequency in Hz, interpolated in log-frequency space so the perceived sweep
// is even across the range. Warmth 0 is fully open (highHz), warmth 1 is
// maximally muffled (lowHz).
func WarmthToCutoff(warmth, lowHz, highHz float64) float64 {
	warmth = clamp01(warmth)
	logHigh := math.Log(highHz)
	logLow := math.Log(lowHz)
	return math.Exp(logHigh + (logLow-logHigh)*warmth)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
