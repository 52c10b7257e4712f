// Package gate glues syntax gating, authority verification, the decision
// policy and clearance issuance into the submission flow.
package gate

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"passgate/internal/audit"
	"passgate/internal/decision"
	"passgate/internal/gate/metrics"
	"passgate/internal/token"
	"passgate/internal/verify"
	dErrors "passgate/pkg/domain-errors"
	metadata "passgate/pkg/platform/middleware/metadata"
)

// MsgIncomplete is shown when the submission never reaches the authority.
const MsgIncomplete = "Please complete the verification."

// Submission is one verification attempt as received from the page.
type Submission struct {
	ChallengeToken  string
	BehavioralToken string
	ClientIP        string
	Browser         string
}

// Result is the terminal outcome of one submission. Message is only set on
// the deny path and is rendered back into the page.
type Result struct {
	Admitted    bool
	RedirectURL string
	Message     string
	Confidence  *float64
}

// Evaluator runs both authority checks. Satisfied by *verify.Orchestrator.
type Evaluator interface {
	Evaluate(ctx context.Context, challengeToken, behavioralToken string) verify.Combined
}

// Issuer signs clearance tokens for admitted visitors.
type Issuer interface {
	Issue(decision string, confidence *float64) (string, error)
}

// Emitter records audit events.
type Emitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles verification submissions end to end.
type Service struct {
	evaluator Evaluator
	policy    decision.Policy
	issuer    Issuer
	emitter   Emitter
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the service.
type Option func(*Service)

// WithIssuer attaches a clearance token to admit redirects.
func WithIssuer(issuer Issuer) Option {
	return func(s *Service) {
		s.issuer = issuer
	}
}

// WithEmitter records an audit event per decision.
func WithEmitter(emitter Emitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

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

// NewService constructs the gate service.
func NewService(evaluator Evaluator, policy decision.Policy, opts ...Option) (*Service, error) {
	if evaluator == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "gate service: evaluator is required")
	}

	s := &Service{
		evaluator: evaluator,
		policy:    policy,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Process runs one submission through the full flow. The challenge token is
// syntax-gated before any network call; the behavioral token is passed
// through as-is. Authority faults surface as deny decisions, never as errors,
// so a returned error always means an internal fault.
func (s *Service) Process(ctx context.Context, sub Submission) (*Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSubmission(time.Since(start))
	}()

	if !token.ValidateSyntax(sub.ChallengeToken) {
		s.logger.InfoContext(ctx, "submission rejected before verification",
			"client_ip", metadata.AnonymizeIP(sub.ClientIP),
		)
		s.metrics.RecordDecision(audit.DecisionRejected)
		s.emit(ctx, sub, audit.Event{
			Decision: audit.DecisionRejected,
			Reason:   MsgIncomplete,
		})
		return &Result{Message: MsgIncomplete}, nil
	}

	combined := s.evaluator.Evaluate(ctx, sub.ChallengeToken, sub.BehavioralToken)
	d := decision.Decide(combined, s.policy)
	conf := combined.Behavioral.Confidence

	if !d.Admitted {
		s.logger.InfoContext(ctx, "submission denied",
			"client_ip", metadata.AnonymizeIP(sub.ClientIP),
			"reason", d.Reason,
		)
		s.metrics.RecordDecision(audit.DecisionDenied)
		s.emit(ctx, sub, audit.Event{
			Decision:   audit.DecisionDenied,
			Reason:     d.Reason,
			Confidence: conf,
		})
		return &Result{Message: d.Reason, Confidence: conf}, nil
	}

	redirect := d.RedirectURL
	if s.issuer != nil {
		clearanceToken, err := s.issuer.Issue(audit.DecisionAdmitted, conf)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue clearance token")
		}
		redirect, err = appendClearance(redirect, clearanceToken)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build redirect url")
		}
	}

	s.logger.InfoContext(ctx, "submission admitted",
		"client_ip", metadata.AnonymizeIP(sub.ClientIP),
	)
	s.metrics.RecordDecision(audit.DecisionAdmitted)
	s.emit(ctx, sub, audit.Event{
		Decision:   audit.DecisionAdmitted,
		Confidence: conf,
	})
	return &Result{Admitted: true, RedirectURL: redirect, Confidence: conf}, nil
}

// emit records an audit event. Audit failures are logged and swallowed; they
// must never change the visitor-facing outcome.
func (s *Service) emit(ctx context.Context, sub Submission, event audit.Event) {
	if s.emitter == nil {
		return
	}
	event.ClientIP = sub.ClientIP
	event.Browser = sub.Browser
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}

func appendClearance(rawURL, clearanceToken string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("clearance", clearanceToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
