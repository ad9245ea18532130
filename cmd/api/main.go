package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DevCodeAL/Image-Compressor-App/internal/compress"
	"github.com/DevCodeAL/Image-Compressor-App/internal/config"
	"github.com/DevCodeAL/Image-Compressor-App/internal/handler"
	"github.com/DevCodeAL/Image-Compressor-App/internal/middleware"
)

func main() {
	cfg := config.Load()

	pool := compress.NewWorkerPool(cfg.WorkerCount, compress.New())
	pool.Start()
	defer pool.Stop()

	h := handler.New(pool, cfg.MaxUploadMB, cfg.DefaultTargetKB, cfg.DefaultQuality)

	mux := http.NewServeMux()
	mux.HandleFunc("/compress", h.Compress)
	mux.HandleFunc("/health", h.Health)
	mux.Handle("/metrics", promhttp.Handler())

	// Apply middlewares in order (outermost first):
	// 1. Security headers (always applied)
	// 2. Rate limiting (per IP)
	// 3. Concurrency limit (global)
	// 4. Recovery (catches panics)
	// 5. Logger (request ID, logs, metrics)
	handler := middleware.Security(
		middleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst)(
			middleware.ConcurrencyLimit(cfg.MaxConcurrent)(
				middleware.Recovery(
					middleware.Logger(mux),
				),
			),
		),
	)

	// Timeouts guard against slowloris and hanging connections
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting image compression API on %s", server.Addr)
	log.Printf("Default target: %dKB, quality: %.2f, Max upload: %dMB, Max concurrent: %d, Rate limit: %d/sec, Workers: %d",
		cfg.DefaultTargetKB, cfg.DefaultQuality, cfg.MaxUploadMB, cfg.MaxConcurrent, cfg.RateLimitPerSec, cfg.WorkerCount)

	if err := server.ListenAndServe(); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}
