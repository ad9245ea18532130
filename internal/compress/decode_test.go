package compress

import (
	"errors"
	"testing"
)

func TestSniffFormat(t *testing.T) {
	webpHeader := append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00)
	webpHeader = append(webpHeader, []byte("WEBP")...)

	tests := []struct {
		name   string
		data   []byte
		want   Format
		wantOK bool
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00}, FormatJPEG, true},
		{"PNG", []byte("\x89PNG\r\n\x1a\nrest"), FormatPNG, true},
		{"WebP", webpHeader, FormatWEBP, true},
		{"RIFF but not WebP", []byte("RIFF\x24\x00\x00\x00WAVE"), "", false},
		{"Garbage", []byte("not an image at all"), "", false},
		{"Empty", nil, "", false},
		{"Truncated PNG magic", []byte("\x89PN"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SniffFormat(tt.data)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("SniffFormat() = (%s, %v), want (%s, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		in   Format
		want Format
	}{
		{FormatJPEG, FormatJPEG},
		{FormatPNG, FormatPNG},
		{FormatWEBP, FormatJPEG},
	}

	for _, tt := range tests {
		if got := tt.in.Output(); got != tt.want {
			t.Errorf("%s.Output() = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDecode_JPEG(t *testing.T) {
	data := encodeTestJPEG(t, createTestImage(320, 240), 90)

	src, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if src.Width != 320 || src.Height != 240 {
		t.Errorf("dims = %dx%d, want 320x240", src.Width, src.Height)
	}
	if src.Format != FormatJPEG {
		t.Errorf("format = %s, want jpeg", src.Format)
	}
	if len(src.Bytes) != len(data) {
		t.Error("Source must keep the original bytes")
	}
}

func TestDecode_PNG(t *testing.T) {
	data := encodeTestPNG(t, createTestImage(64, 48))

	src, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.Format != FormatPNG {
		t.Errorf("format = %s, want png", src.Format)
	}
}

func TestDecode_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"Empty", nil, ErrInvalidImage},
		{"Too short", []byte{0xFF, 0xD8}, ErrInvalidImage},
		{"Unknown format", []byte("GIF89a trailing data"), ErrInvalidImage},
		{"JPEG magic, corrupt body", append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("garbage")...), ErrInvalidImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFile_TooLarge(t *testing.T) {
	data := make([]byte, MaxFileSize+1)
	if err := ValidateFile(data); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("ValidateFile() error = %v, want ErrFileTooLarge", err)
	}
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr error
	}{
		{"Valid", 1920, 1080, nil},
		{"One pixel", 1, 1, nil},
		{"Zero width", 0, 100, ErrInvalidImage},
		{"Negative height", 100, -1, ErrInvalidImage},
		{"Too wide", MaxImageWidth + 1, 100, ErrImageTooLarge},
		{"Too tall", 100, MaxImageHeight + 1, ErrImageTooLarge},
		{"Pixel bomb", 15000, 15000, ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.w, tt.h)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDimensions(%d, %d) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			}
		})
	}
}
