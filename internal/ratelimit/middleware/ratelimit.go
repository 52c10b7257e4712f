// Package middleware wires the global rate limits into the HTTP stack.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"passgate/internal/ratelimit/models"
	"passgate/pkg/platform/httputil"
)

// Limiter checks the two global windows.
type Limiter interface {
	CheckDaily(ctx context.Context) (*models.Result, error)
	CheckHourly(ctx context.Context) (*models.Result, error)
}

// RejectFunc renders the response for a throttled request. The gate installs
// one that re-renders the verification page; the default writes JSON.
type RejectFunc func(w http.ResponseWriter, r *http.Request, result *models.Result)

// Middleware applies the limiter to incoming requests. Limiter failures fail
// open: an unreachable counter store must not take the gate down with it.
type Middleware struct {
	limiter Limiter
	logger  *slog.Logger
	reject  RejectFunc
}

// Option configures the middleware.
type Option func(*Middleware)

// WithRejectFunc overrides how throttled requests are rendered.
func WithRejectFunc(fn RejectFunc) Option {
	return func(m *Middleware) {
		m.reject = fn
	}
}

// New constructs the rate limit middleware.
func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
		reject:  rejectJSON,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Daily counts every request against the daily window. Mount it on the whole
// router: page loads consume the budget too.
func (m *Middleware) Daily(next http.Handler) http.Handler {
	return m.check(next, "daily", m.limiter.CheckDaily)
}

// Hourly counts a request against the hourly submission window. Mount it on
// the submission route only.
func (m *Middleware) Hourly(next http.Handler) http.Handler {
	return m.check(next, "hourly", m.limiter.CheckHourly)
}

func (m *Middleware) check(next http.Handler, window string, fn func(context.Context) (*models.Result, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result, err := fn(r.Context())
		if err != nil {
			m.logger.Error("failed to check rate limit", "error", err, "window", window)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)

		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			m.reject(w, r, result)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func rejectJSON(w http.ResponseWriter, _ *http.Request, result *models.Result) {
	httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests. Please try again later.",
		"retry_after": result.RetryAfter,
	})
}
