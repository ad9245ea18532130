package compress

import (
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// RenderEncoder is the render and encode capability the convergence
// loop drives. Implementations must be deterministic for fixed inputs
// and safe for concurrent use; the loop renders with shrinking
// dimensions and re-encodes the same pixels at descending qualities.
type RenderEncoder interface {
	// Render rasterizes the source at the requested resolution.
	Render(src *Source, width, height int) (image.Image, error)
	// Encode turns a pixel buffer into bytes of the given format.
	// JPEG maps quality in (0,1] onto the encoder's 1-100 scale;
	// PNG is lossless and ignores quality.
	Encode(img image.Image, quality float64, format Format) ([]byte, error)
}

// imagingAdapter is the production RenderEncoder: Lanczos resampling
// plus the standard library JPEG/PNG encoders.
type imagingAdapter struct{}

func (imagingAdapter) Render(src *Source, width, height int) (image.Image, error) {
	if src == nil || src.Pixels == nil {
		return nil, ErrInvalidImage
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width >= src.Width && height >= src.Height {
		return src.Pixels, nil
	}
	return imaging.Resize(src.Pixels, width, height, imaging.Lanczos), nil
}

func (imagingAdapter) Encode(img image.Image, quality float64, format Format) ([]byte, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}

	buf := getEncodeBuffer()
	defer putEncodeBuffer(buf)

	switch format {
	case FormatPNG:
		if err := png.Encode(buf, img); err != nil {
			return nil, err
		}
	default:
		opts := &jpeg.Options{Quality: JPEGQuality(quality)}
		if err := jpeg.Encode(buf, img, opts); err != nil {
			return nil, err
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// JPEGQuality maps a quality in (0,1] onto the JPEG encoder's 1-100
// integer scale.
func JPEGQuality(quality float64) int {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
