// Package auth guards the API with static API keys and a sliding-window
// rate limiter keyed by (client IP, credential). Both run strictly before
// any handler logic.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Response messages.
const (
	msgMissingKey  = "Missing API key"
	msgInvalidKey  = "Invalid API key"
	msgRateLimited = "Rate limit exceeded. Please retry in 1 minute."
)

const window = time.Minute

// SlidingWindow tracks request timestamps per key over a one-minute window.
// Each distinct key has its own lock so busy clients do not contend.
type SlidingWindow struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

type windowEntry struct {
	mu     sync.Mutex
	events []time.Time
}

// NewSlidingWindow creates an empty limiter.
func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it fits under the
// per-minute quota.
func (w *SlidingWindow) Allow(key string, perMinute int) bool {
	w.mu.Lock()
	entry, ok := w.entries[key]
	if !ok {
		entry = &windowEntry{}
		w.entries[key] = entry
	}
	now := w.now()
	w.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	cutoff := now.Add(-window)
	kept := entry.events[:0]
	for _, t := range entry.events {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	entry.events = kept

	if len(entry.events) >= perMinute {
		return false
	}
	entry.events = append(entry.events, now)
	return true
}

// Authenticator is the HTTP middleware enforcing API keys and quotas.
type Authenticator struct {
	keys      []string
	limiter   *SlidingWindow
	perMinute int
}

// New creates an Authenticator. A nil limiter disables rate limiting.
func New(keys []string, limiter *SlidingWindow, perMinute int) *Authenticator {
	return &Authenticator{keys: keys, limiter: limiter, perMinute: perMinute}
}

// Middleware rejects unauthenticated requests with 401 and over-quota
// requests with 429 before the next handler runs.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, msgMissingKey)
			return
		}

		for _, valid := range a.keys {
			if subtle.ConstantTimeCompare([]byte(token), []byte(valid)) == 1 {
				if a.limiter != nil && a.perMinute > 0 {
					key := clientIP(r) + ":" + valid
					if !a.limiter.Allow(key, a.perMinute) {
						zap.L().Warn("auth: rate limit exceeded", zap.String("client", clientIP(r)))
						writeDetail(w, http.StatusTooManyRequests, msgRateLimited)
						return
					}
				}
				next.ServeHTTP(w, r)
				return
			}
		}
		writeDetail(w, http.StatusUnauthorized, msgInvalidKey)
	})
}

// extractToken reads a bearer token, falling back to the X-API-Key header.
func extractToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
