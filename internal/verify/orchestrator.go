package verify

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Verifier is satisfied by *Client; tests substitute fakes.
type Verifier interface {
	Verify(ctx context.Context, proofToken string) Outcome
}

// Orchestrator runs the challenge and behavioral checks concurrently. The two
// calls are independent - each client bounds its own call with its own
// timeout, and a slow or failed call on one side never cancels the other.
type Orchestrator struct {
	challenge  Verifier
	behavioral Verifier
}

func NewOrchestrator(challenge, behavioral Verifier) *Orchestrator {
	return &Orchestrator{challenge: challenge, behavioral: behavioral}
}

// Evaluate fires both checks and joins them. The returned Combined always
// carries both outcomes; clients absorb their own failures, so Wait never
// sees an error.
func (o *Orchestrator) Evaluate(ctx context.Context, challengeToken, behavioralToken string) Combined {
	combined := Combined{BehavioralSupplied: behavioralToken != ""}

	g := new(errgroup.Group)
	g.Go(func() error {
		combined.Challenge = o.challenge.Verify(ctx, challengeToken)
		return nil
	})
	g.Go(func() error {
		combined.Behavioral = o.behavioral.Verify(ctx, behavioralToken)
		return nil
	})
	_ = g.Wait()

	return combined
}
