package middleware

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/DevCodeAL/Image-Compressor-App/pkg/metrics"
)

// tokenBucket tracks the refillable request allowance for one client.
type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

func (b *tokenBucket) refill(now time.Time, rate float64, burst float64) {
	b.tokens += now.Sub(b.lastSeen).Seconds() * rate
	if b.tokens > burst {
		b.tokens = burst
	}
	b.lastSeen = now
}

// ipLimiter applies a per-client-IP token bucket. Buckets idle past
// staleAfter are dropped by a background sweep so the map stays bounded.
type ipLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*tokenBucket
	rate       float64
	burst      float64
	staleAfter time.Duration
}

func newIPLimiter(rate, burst int) *ipLimiter {
	l := &ipLimiter{
		buckets:    make(map[string]*tokenBucket),
		rate:       float64(rate),
		burst:      float64(burst),
		staleAfter: 5 * time.Minute,
	}
	go l.sweep()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[ip]
	if !ok {
		l.buckets[ip] = &tokenBucket{tokens: l.burst - 1, lastSeen: now}
		return true
	}

	b.refill(now, l.rate, l.burst)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *ipLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for ip, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.staleAfter {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP resolves the originating address, preferring proxy headers
// over the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexAny(xff, ", "); idx != -1 {
			return xff[:idx]
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ipPrefix coarsens an address to its leading group so metric labels
// stay low-cardinality and do not record full client IPs.
func ipPrefix(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if idx := strings.Index(addr, "."); idx != -1 {
		return addr[:idx] + ".0.0.0"
	}
	if idx := strings.Index(addr, ":"); idx != -1 {
		return addr[:idx] + ":"
	}
	return "unknown"
}

// RateLimit returns middleware enforcing a per-IP token bucket of
// rate requests per second with the given burst allowance.
func RateLimit(rate, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(rate, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !limiter.allow(ip) {
				log.Printf("Rate limit exceeded for IP: %s", ip)
				metrics.RecordRateLimitExceeded(ipPrefix(ip))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"Rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
