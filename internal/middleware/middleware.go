// Package middleware contains HTTP middleware functions.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// uuidRegex validates UUID format (with or without hyphens).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{4}-?[0-9a-fA-F]{12}$`)

// validateUserID checks if the user ID is a valid UUID format.
func validateUserID(userID string) bool {
	return uuidRegex.MatchString(userID)
}

type contextKey string

// UserIDKey is the context key UserAuth stores the authenticated user ID
// under. Handlers read it with UserIDFromContext.
const UserIDKey contextKey = "user_id"

// UserIDFromContext extracts the user ID UserAuth attached to the request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}

// UserAuth validates the X-User-ID header identifying the caller. Real
// credential verification (password/session/JWT validation) is an external
// collaborator's responsibility; this middleware only trusts and shapes the
// identity that collaborator has already vetted, the same way the teacher's
// DeviceAuth trusted X-Device-ID as a stand-in identity.
func UserAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-ID")

		if r.URL.Path == "/api/v1/users/register" && r.Method == "POST" {
			next.ServeHTTP(w, r)
			return
		}

		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"missing_user_id","message":"X-User-ID header is required"}}`))
			return
		}

		if !validateUserID(userID) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"invalid_user_id","message":"User ID must be a valid UUID format"}}`))
			return
		}

		log.Debug().Str("user_id", userID).Str("path", r.URL.Path).Msg("Request authenticated")
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitEntry tracks request counts for rate limiting.
type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// rateLimiter stores rate limit data per caller key.
type rateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	limit   int
	window  time.Duration
}

// newRateLimiter creates a new rate limiter.
func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		entries: make(map[string]*rateLimitEntry),
		limit:   limit,
		window:  window,
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// allow checks if a request should be allowed.
func (rl *rateLimiter) allow(deviceID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[deviceID]

	if !exists || now.After(entry.resetTime) {
		// New entry or expired, create new
		rl.entries[deviceID] = &rateLimitEntry{
			count:     1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	if entry.count >= rl.limit {
		return false
	}

	entry.count++
	return true
}

// cleanup removes expired entries periodically.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for deviceID, entry := range rl.entries {
			if now.After(entry.resetTime) {
				delete(rl.entries, deviceID)
			}
		}
		rl.mu.Unlock()
	}
}

// globalRateLimiter is the shared rate limiter instance.
var globalRateLimiter *rateLimiter

// RateLimiter middleware limits requests per X-User-ID header value, or per
// remote address when the header is absent.
func RateLimiter(requestsPerMinute int) func(http.Handler) http.Handler {
	if globalRateLimiter == nil {
		globalRateLimiter = newRateLimiter(requestsPerMinute, time.Minute)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				// If no user ID, use IP address
				userID = r.RemoteAddr
			}

			if !globalRateLimiter.allow(userID) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"code":"rate_limited","message":"Too many requests. Please wait before trying again."}}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
