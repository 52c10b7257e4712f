// Package verify talks to the external verification authority and reduces
// whatever happens on the wire to a total, normalized Outcome per token kind.
package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"passgate/internal/token"
	"passgate/internal/verify/metrics"
)

const defaultTimeout = 10 * time.Second

// Client issues a single verification call for one token kind. The authority
// contract is fixed: form-encoded POST with the shared secret and the token,
// JSON reply with a success flag, an optional score, and optional error codes.
//
// Transport failures and timeouts never escape: they degrade to the
// deterministic negative outcome so the decision policy stays total and the
// gate cannot crash on authority unavailability.
type Client struct {
	kind       token.Kind
	endpoint   string
	secret     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(kind token.Kind, endpoint, secret string, opts ...Option) *Client {
	c := &Client{
		kind:       kind,
		endpoint:   endpoint,
		secret:     secret,
		timeout:    defaultTimeout,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// authorityResponse mirrors the authority's wire format.
type authorityResponse struct {
	Success    bool     `json:"success"`
	Score      *float64 `json:"score"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks one proof token against the authority. An empty token
// short-circuits to the negative outcome without a network call.
func (c *Client) Verify(ctx context.Context, proofToken string) Outcome {
	if proofToken == "" {
		c.recordCall("skipped")
		return c.negative()
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := otel.Tracer("passgate").Start(ctx, "authority.verify")
	defer span.End()
	span.SetAttributes(attribute.String("token.kind", string(c.kind)))

	start := time.Now()
	outcome, result := c.call(ctx, proofToken)
	c.observeDuration(time.Since(start))
	c.recordCall(result)
	span.SetAttributes(attribute.Bool("admitted", outcome.Admitted))

	return outcome
}

func (c *Client) call(ctx context.Context, proofToken string) (Outcome, string) {
	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", proofToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		c.logger.Error("build authority request", "kind", c.kind, "error", err)
		return c.negative(), "transport_error"
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("authority call failed", "kind", c.kind, "error", err)
		return c.negative(), "transport_error"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("authority returned non-200", "kind", c.kind, "status", resp.StatusCode)
		return c.negative(), "transport_error"
	}

	var payload authorityResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Warn("decode authority response", "kind", c.kind, "error", err)
		return c.negative(), "transport_error"
	}

	outcome := Outcome{
		Admitted:        payload.Success,
		Confidence:      payload.Score,
		AuthorityErrors: payload.ErrorCodes,
	}
	if len(outcome.AuthorityErrors) > 0 {
		c.logger.Info("authority reported errors", "kind", c.kind, "codes", outcome.AuthorityErrors)
	}
	if outcome.Admitted {
		return outcome, "admitted"
	}
	return outcome, "denied"
}

// negative is the deterministic outcome for absent tokens and transport
// failures. Behavioral checks pin the confidence to zero so the decision
// policy always has a score to compare.
func (c *Client) negative() Outcome {
	if c.kind == token.KindBehavioral {
		zero := 0.0
		return Outcome{Admitted: false, Confidence: &zero}
	}
	return Outcome{Admitted: false}
}

func (c *Client) recordCall(result string) {
	if c.metrics != nil {
		c.metrics.RecordCall(string(c.kind), result)
	}
}

func (c *Client) observeDuration(d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveCallDuration(string(c.kind), d)
	}
}
