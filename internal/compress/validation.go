package compress

import (
	"errors"
	"log"
)

var (
	// ErrFileTooLarge is returned when the input exceeds the size limit
	ErrFileTooLarge = errors.New("file size exceeds limit")
	// ErrImageTooLarge is returned when image dimensions exceed limits
	ErrImageTooLarge = errors.New("image dimensions exceed maximum allowed")
)

// Validation limits
const (
	MaxFileSize    = 32 * 1024 * 1024 // 32MB max input
	MaxImageWidth  = 16384
	MaxImageHeight = 16384
	MaxImagePixels = 150_000_000 // decompression bomb guard
	minFileSize    = 8           // shortest magic we sniff
)

// ValidateFile checks the raw input size before any decoding.
func ValidateFile(data []byte) error {
	if len(data) > MaxFileSize {
		log.Printf("File too large: %d bytes (max: %d)", len(data), MaxFileSize)
		return ErrFileTooLarge
	}
	if len(data) < minFileSize {
		return ErrInvalidImage
	}
	return nil
}

// ValidateDimensions checks header-reported dimensions are within
// acceptable limits before the full pixel decode.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		log.Printf("Invalid dimensions: %dx%d", width, height)
		return ErrInvalidImage
	}

	if width > MaxImageWidth || height > MaxImageHeight {
		log.Printf("Dimensions too large: %dx%d (max: %dx%d)", width, height, MaxImageWidth, MaxImageHeight)
		return ErrImageTooLarge
	}

	if int64(width)*int64(height) > MaxImagePixels {
		log.Printf("Too many pixels: %d (max: %d)", int64(width)*int64(height), MaxImagePixels)
		return ErrImageTooLarge
	}

	return nil
}
