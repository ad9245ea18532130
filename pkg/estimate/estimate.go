// Package estimate predicts output dimensions for a target encoded size.
package estimate

import "math"

const (
	// bytesPerPixel is a conservative upper bound for RGB-ish encodings
	bytesPerPixel = 3
	// ratioSlope and ratioBase map quality in (0,1] onto an effective
	// bytes multiplier in (0.1, 0.4]
	ratioSlope = 0.3
	ratioBase  = 0.1
)

// Dimensions returns a starting resolution for encoding an image of
// origWidth x origHeight toward targetBytes at the given quality.
// The result preserves the source aspect ratio, never exceeds the
// original dimensions, and is clamped to at least 1x1. It is a
// heuristic starting point, not a size guarantee: real encoder output
// depends on image content.
func Dimensions(origWidth, origHeight, targetBytes int, quality float64) (int, int) {
	if origWidth <= 0 || origHeight <= 0 {
		return origWidth, origHeight
	}

	compressionRatio := quality*ratioSlope + ratioBase
	targetPixels := float64(targetBytes) / (bytesPerPixel * compressionRatio)

	totalPixels := float64(origWidth) * float64(origHeight)
	if targetPixels >= totalPixels {
		return origWidth, origHeight
	}

	scale := math.Sqrt(targetPixels / totalPixels)
	return Scale(origWidth, origHeight, scale)
}

// Scale derives a resolution from width x height by the given factor,
// preserving aspect ratio within integer rounding and clamping both
// dimensions to at least 1. Factors >= 1 return the input unchanged so
// a scale step never grows beyond the already-rendered size.
func Scale(width, height int, factor float64) (int, int) {
	if factor >= 1.0 {
		return width, height
	}

	// Round rather than truncate: truncating both axes can push the
	// ratio past one rounding step on narrow results.
	w := int(math.Round(float64(width) * factor))
	h := int(math.Round(float64(height) * factor))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
