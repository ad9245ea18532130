// Package compress implements a target-size-driven compression search:
// estimate output dimensions from the byte budget, render once, then
// lower quality and finally dimensions until the encoded size fits the
// budget or the floor is reached.
package compress

import (
	"errors"
	"math"

	"github.com/DevCodeAL/Image-Compressor-App/pkg/estimate"
)

var (
	// ErrInvalidTarget is returned when the requested byte budget is
	// not positive.
	ErrInvalidTarget = errors.New("target size must be positive")
)

const (
	// QualityFloor is the lowest quality the reduction stage reaches.
	QualityFloor = 0.1
	// DefaultQuality is used when the caller supplies no usable hint.
	DefaultQuality = 0.8

	qualityStep    = 0.1
	qualityEpsilon = 1e-9
)

// Request describes one compression: the byte budget to aim for and
// the starting encode quality.
type Request struct {
	TargetBytes int
	QualityHint float64
}

// Result is the outcome of one compression. Quality is the quality of
// the final encode, which may be below the hint. Bytes fitting the
// target is the goal, not a guarantee: callers that must detect an
// over-budget result compare len(Bytes) to the target themselves.
type Result struct {
	Bytes   []byte
	Width   int
	Height  int
	Quality float64
	Format  Format
}

// Applied reports whether compression was actually applied. A 0x0
// result is the fallback sentinel: the original bytes, untouched.
func (r *Result) Applied() bool {
	return r.Width > 0 && r.Height > 0
}

// Compressor runs the compression search against a RenderEncoder.
type Compressor struct {
	adapter RenderEncoder
}

// New returns a Compressor backed by the production adapter.
func New() *Compressor {
	return NewWithAdapter(imagingAdapter{})
}

// NewWithAdapter returns a Compressor driving the given adapter.
// Tests inject a deterministic fake here.
func NewWithAdapter(adapter RenderEncoder) *Compressor {
	return &Compressor{adapter: adapter}
}

// Compress re-encodes src toward req.TargetBytes. The search runs in
// two stages after the initial render and encode: quality drops by 0.1
// per step down to the floor without re-rendering, then a single
// dimension reduction re-renders and encodes once more. The last
// successful encode is the result even when still over budget.
//
// Adapter failures never propagate: the fallback is the original
// source bytes with 0x0 dimensions. Only an invalid source or a
// non-positive target is an error.
func (c *Compressor) Compress(src *Source, req Request) (*Result, error) {
	if src == nil || src.Pixels == nil {
		return nil, ErrInvalidImage
	}
	if req.TargetBytes <= 0 {
		return nil, ErrInvalidTarget
	}

	hint := clampQuality(req.QualityHint)
	quality := hint
	format := src.Format.Output()

	width, height := estimate.Dimensions(src.Width, src.Height, req.TargetBytes, quality)

	img, err := c.adapter.Render(src, width, height)
	if err != nil {
		return fallback(src, hint), nil
	}
	data, err := c.adapter.Encode(img, quality, format)
	if err != nil {
		return fallback(src, hint), nil
	}

	// Quality stage: re-encode the same pixels at descending quality.
	// Bounded by the floor: at most 9 steps from 1.0.
	for len(data) > req.TargetBytes && quality > QualityFloor+qualityEpsilon {
		quality -= qualityStep
		if quality < QualityFloor {
			quality = QualityFloor
		}
		data, err = c.adapter.Encode(img, quality, format)
		if err != nil {
			return fallback(src, hint), nil
		}
	}

	// Dimension stage: runs at most once, even if still over budget
	// afterward. Scales the initial dimensions by the byte overshoot.
	if len(data) > req.TargetBytes {
		factor := math.Sqrt(float64(req.TargetBytes) / float64(len(data)))
		width, height = estimate.Scale(width, height, factor)

		img, err = c.adapter.Render(src, width, height)
		if err != nil {
			return fallback(src, hint), nil
		}
		data, err = c.adapter.Encode(img, quality, format)
		if err != nil {
			return fallback(src, hint), nil
		}
	}

	return &Result{
		Bytes:   data,
		Width:   width,
		Height:  height,
		Quality: quality,
		Format:  format,
	}, nil
}

// fallback is the never-hard-fail policy: the original bytes pass
// through unchanged, flagged by the 0x0 dimension sentinel. Format is
// the source format since the bytes were never re-encoded.
func fallback(src *Source, hint float64) *Result {
	return &Result{
		Bytes:   src.Bytes,
		Quality: hint,
		Format:  src.Format,
	}
}

func clampQuality(q float64) float64 {
	if q <= 0 || q > 1 {
		return DefaultQuality
	}
	if q < QualityFloor {
		return QualityFloor
	}
	return q
}
