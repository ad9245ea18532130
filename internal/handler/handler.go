package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/DevCodeAL/Image-Compressor-App/internal/compress"
	"github.com/DevCodeAL/Image-Compressor-App/pkg/metrics"
)

const submitRetries = 3

// Handler handles HTTP requests for image compression
type Handler struct {
	pool            *compress.WorkerPool
	maxUploadMB     int
	defaultTargetKB int
	defaultQuality  float64
}

// New creates a new Handler around a started worker pool
func New(pool *compress.WorkerPool, maxUploadMB, defaultTargetKB int, defaultQuality float64) *Handler {
	return &Handler{
		pool:            pool,
		maxUploadMB:     maxUploadMB,
		defaultTargetKB: defaultTargetKB,
		defaultQuality:  defaultQuality,
	}
}

// Compress handles the /compress endpoint: multipart "file" upload,
// target_bytes (or target_kb) and quality parameters. The response body
// is the compressed image; X-Image-* headers report the achieved
// dimensions and quality. A 0 width/height header pair means the
// original bytes were returned unchanged.
func (h *Handler) Compress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(int64(h.maxUploadMB) << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			http.Error(w, "Content-Type must be multipart/form-data", http.StatusBadRequest)
		} else {
			http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isSupportedExtension(header.Filename) {
		http.Error(w, "Not a JPEG/PNG/WebP file (wrong extension)", http.StatusUnsupportedMediaType)
		return
	}

	// Read one byte past the cap so an oversized upload is detected
	// instead of silently truncated into a corrupt image.
	maxBytes := int64(h.maxUploadMB) << 20
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > maxBytes {
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	// Magic bytes decide, not the filename.
	if _, ok := compress.SniffFormat(data); !ok {
		http.Error(w, "Unrecognized image format", http.StatusUnsupportedMediaType)
		return
	}

	req := compress.Request{
		TargetBytes: h.targetBytes(r),
		QualityHint: h.quality(r),
	}

	start := time.Now()
	src, err := compress.Decode(data)
	if err != nil {
		// Undecodable input is the one hard failure.
		log.Printf("Decode error: %v", err)
		metrics.RecordCompression("invalid", "none", time.Since(start).Seconds(), len(data), 0, 0)
		status := http.StatusUnsupportedMediaType
		if errors.Is(err, compress.ErrFileTooLarge) || errors.Is(err, compress.ErrImageTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		http.Error(w, "Invalid image", status)
		return
	}

	result, err := h.pool.SubmitWithRetry(r.Context(), src, req, submitRetries)
	if err != nil {
		if errors.Is(err, compress.ErrPoolBusy) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Service busy, please try again", http.StatusServiceUnavailable)
			return
		}
		log.Printf("Compression error: %v", err)
		http.Error(w, "Compression failed", http.StatusBadRequest)
		return
	}

	queued, _ := h.pool.Stats()
	metrics.UpdateQueueSize(queued)
	metrics.RecordCompression(outcomeStatus(result, req.TargetBytes), string(result.Format),
		time.Since(start).Seconds(), len(data), len(result.Bytes), result.Quality)

	w.Header().Set("Content-Type", result.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Bytes)))
	w.Header().Set("X-Image-Width", strconv.Itoa(result.Width))
	w.Header().Set("X-Image-Height", strconv.Itoa(result.Height))
	w.Header().Set("X-Image-Quality", fmt.Sprintf("%.2f", result.Quality))
	w.Header().Set("X-Original-Bytes", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Bytes)
}

// targetBytes resolves the byte budget from the target_bytes or
// target_kb parameter (query or form), falling back to the configured
// default.
func (h *Handler) targetBytes(r *http.Request) int {
	if s := r.FormValue("target_bytes"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	if s := r.FormValue("target_kb"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n * 1024
		}
	}
	return h.defaultTargetKB * 1024
}

// quality resolves the starting quality hint in (0,1].
func (h *Handler) quality(r *http.Request) float64 {
	if s := r.FormValue("quality"); s != "" {
		if q, err := strconv.ParseFloat(s, 64); err == nil && q > 0 && q <= 1 {
			return q
		}
	}
	return h.defaultQuality
}

func outcomeStatus(result *compress.Result, targetBytes int) string {
	switch {
	case !result.Applied():
		return "fallback"
	case len(result.Bytes) > targetBytes:
		return "over_budget"
	default:
		return "applied"
	}
}

// Health handles the /health endpoint for readiness/liveness probes
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// isSupportedExtension checks the filename against accepted input types
func isSupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}
