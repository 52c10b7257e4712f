// Package service applies the gate's global fixed-window limits.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"passgate/internal/ratelimit/metrics"
	"passgate/internal/ratelimit/models"
	dErrors "passgate/pkg/domain-errors"
)

// CounterStore persists fixed-window counters.
type CounterStore interface {
	Incr(ctx context.Context, key string, limit int, period time.Duration) (*models.Result, error)
	Reset(ctx context.Context, key string) error
}

// WindowConfig describes one fixed window.
type WindowConfig struct {
	Limit  int
	Period time.Duration
}

// Service checks the two global windows. Both counters are shared by all
// clients; there is no per-IP bookkeeping.
type Service struct {
	store   CounterStore
	daily   WindowConfig
	hourly  WindowConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a rate limit service over the given counter store.
func New(store CounterStore, daily, hourly WindowConfig, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("ratelimit service: counter store is required")
	}
	if daily.Limit <= 0 || daily.Period <= 0 {
		return nil, errors.New("ratelimit service: daily window config is invalid")
	}
	if hourly.Limit <= 0 || hourly.Period <= 0 {
		return nil, errors.New("ratelimit service: hourly window config is invalid")
	}

	s := &Service{
		store:  store,
		daily:  daily,
		hourly: hourly,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckDaily records one request against the daily window. It is called for
// every request the gate serves, page loads included.
func (s *Service) CheckDaily(ctx context.Context) (*models.Result, error) {
	return s.check(ctx, models.WindowDaily, s.daily)
}

// CheckHourly records one submission against the hourly window. Only
// verification submissions count here.
func (s *Service) CheckHourly(ctx context.Context) (*models.Result, error) {
	return s.check(ctx, models.WindowHourly, s.hourly)
}

func (s *Service) check(ctx context.Context, window models.Window, cfg WindowConfig) (*models.Result, error) {
	res, err := s.store.Incr(ctx, models.Key(window), cfg.Limit, cfg.Period)
	if err != nil {
		s.metrics.RecordCheck(string(window), "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "rate limit check failed")
	}

	if !res.Allowed {
		s.metrics.RecordCheck(string(window), "rejected")
		s.metrics.RecordRejection(string(window))
		s.logger.WarnContext(ctx, "rate_limit_exceeded",
			slog.String("window", string(window)),
			slog.Int("limit", res.Limit),
			slog.Time("reset_at", res.ResetAt),
		)
		return res, nil
	}

	s.metrics.RecordCheck(string(window), "allowed")
	return res, nil
}
