// Package middleware provides HTTP middleware for the incident server.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/resqnet/incident-server/internal/models"
)

// Caller identifies the authenticated request principal. It replaces any
// ambient security context: handlers pass it explicitly into the services.
type Caller struct {
	ID   string
	Role models.Role
}

// IsAdmin reports the administrator capability as a plain boolean.
func (c Caller) IsAdmin() bool { return c.Role == models.RoleAdmin }

type contextKey struct{ name string }

var callerKey = contextKey{"caller"}

// CallerFrom extracts the authenticated caller set by RequireAuth.
func CallerFrom(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey).(Caller)
	return caller, ok
}

// StructuredLogger returns a middleware that logs HTTP requests with zap
func StructuredLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status code
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			logger.Info("HTTP Request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.statusCode),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", r.Header.Get("X-Request-ID")),
			)
		})
	}
}

// RequireAuth validates the bearer token and stores the Caller in the
// request context. The token carries the user id in "sub" and the role in
// "role".
func RequireAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error": "Authorization required"}`, http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				http.Error(w, `{"error": "Invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, `{"error": "Invalid token claims"}`, http.StatusUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				http.Error(w, `{"error": "Token missing subject"}`, http.StatusUnauthorized)
				return
			}

			role := models.RoleUser
			if raw, _ := claims["role"].(string); strings.EqualFold(raw, string(models.RoleAdmin)) {
				role = models.RoleAdmin
			}

			ctx := context.WithValue(r.Context(), callerKey, Caller{ID: sub, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit implements a simple in-memory rate limiter using sliding window
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	type client struct {
		count     int
		windowEnd time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	// Cleanup stale entries every 5 minutes
	go func() {
		for {
			time.Sleep(5 * time.Minute)
			mu.Lock()
			now := time.Now()
			for key, c := range clients {
				if now.After(c.windowEnd.Add(2 * time.Minute)) {
					delete(clients, key)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			mu.Lock()
			c, exists := clients[key]
			now := time.Now()
			if !exists || now.After(c.windowEnd) {
				clients[key] = &client{count: 1, windowEnd: now.Add(time.Minute)}
				mu.Unlock()
				next.ServeHTTP(w, r)
				return
			}
			if c.count >= requestsPerMinute {
				mu.Unlock()
				http.Error(w, `{"error": "Rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			c.count++
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter captures the status code for logging
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
