package middleware

import (
	"log"
	"net/http"

	"github.com/DevCodeAL/Image-Compressor-App/pkg/metrics"
)

// slotGate caps in-flight requests with a buffered-channel semaphore.
// The channel length doubles as the active-request count for the gauge.
type slotGate struct {
	slots chan struct{}
}

func newSlotGate(max int) *slotGate {
	return &slotGate{slots: make(chan struct{}, max)}
}

func (g *slotGate) acquire() bool {
	select {
	case g.slots <- struct{}{}:
		metrics.UpdateConcurrency(len(g.slots))
		return true
	default:
		return false
	}
}

func (g *slotGate) release() {
	<-g.slots
	metrics.UpdateConcurrency(len(g.slots))
}

// ConcurrencyLimit returns middleware that rejects requests with 503
// once max of them are already being served.
func ConcurrencyLimit(max int) func(http.Handler) http.Handler {
	gate := newSlotGate(max)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !gate.acquire() {
				log.Printf("Concurrency limit reached: %d", max)
				metrics.RecordConcurrencyLimitExceeded()
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error":"Service busy, please try again"}`))
				return
			}

			defer gate.release()
			next.ServeHTTP(w, r)
		})
	}
}
