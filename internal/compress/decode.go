package compress

import (
	"bytes"
	"errors"
	"image"

	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

var (
	// ErrInvalidImage is returned for undecodable or unsupported input.
	// It is the only failure surfaced to callers as a hard error; every
	// later failure resolves to a fallback result instead.
	ErrInvalidImage = errors.New("invalid or unsupported image")
)

// Format identifies an image encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
)

// Output maps a source format onto the output format policy: PNG stays
// PNG (lossless), everything else becomes JPEG. WebP sources are
// downgraded to JPEG output.
func (f Format) Output() Format {
	if f == FormatPNG {
		return FormatPNG
	}
	return FormatJPEG
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatWEBP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Source is a decoded image together with the original bytes it was
// decoded from. Immutable once built; lives for one compression call.
type Source struct {
	Pixels image.Image
	Bytes  []byte
	Width  int
	Height int
	Format Format
}

// SniffFormat detects JPEG, PNG or WebP from magic bytes.
func SniffFormat(data []byte) (Format, bool) {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG, true
	case len(data) >= 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return FormatPNG, true
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return FormatWEBP, true
	}
	return "", false
}

// Decode builds a Source from raw image bytes. The input must be a
// JPEG, PNG or WebP within the validation limits; anything else is
// ErrInvalidImage (or a more specific validation error).
func Decode(data []byte) (*Source, error) {
	if err := ValidateFile(data); err != nil {
		return nil, err
	}

	format, ok := SniffFormat(data)
	if !ok {
		return nil, ErrInvalidImage
	}

	// Dimensions come from the header, so bomb limits are checked
	// before committing to a full decode.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}
	if err := ValidateDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	b := img.Bounds()
	return &Source{
		Pixels: img,
		Bytes:  data,
		Width:  b.Dx(),
		Height: b.Dy(),
		Format: format,
	}, nil
}
