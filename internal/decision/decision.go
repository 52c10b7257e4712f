// Package decision maps a combined verification outcome to a terminal
// admit/deny result. This is pure domain logic - no I/O, no side effects -
// so the rules stay centralized and testable without mocking transport.
package decision

import (
	"fmt"
	"strings"

	"passgate/internal/verify"
)

// Policy is the static configuration the rules evaluate against.
type Policy struct {
	// ConfidenceThreshold separates admit from deny on the behavioral score.
	ConfidenceThreshold float64
	// AllowMissingBehavioral forgives an absent behavioral token when the
	// challenge check alone passes. Off by default; the strict treatment is
	// canonical and this exists only for compatibility with deployments that
	// relied on the looser behavior.
	AllowMissingBehavioral bool
	// RedirectURL is the target carried by an admit decision.
	RedirectURL string
}

// Decision is the terminal outcome for one request. Produced once, never
// retried automatically.
type Decision struct {
	Admitted    bool
	RedirectURL string
	Reason      string
}

const reasonChallengeFailed = "challenge check failed"

// Decide applies the policy to a combined outcome. Rule chain:
//  1. Challenge check must have been admitted by the authority.
//  2. Behavioral check must be admitted AND score at or above the threshold.
//     An absent behavioral token was evaluated against the deterministic
//     negative outcome upstream, so it fails here unless the policy forgives
//     it explicitly.
//
// Deterministic: identical inputs always yield the identical decision.
func Decide(c verify.Combined, p Policy) Decision {
	challengeOK := c.Challenge.Admitted
	behavioralOK := c.Behavioral.Admitted && confidence(c.Behavioral) >= p.ConfidenceThreshold

	if challengeOK && behavioralOK {
		return Decision{Admitted: true, RedirectURL: p.RedirectURL}
	}

	if challengeOK && p.AllowMissingBehavioral && !c.BehavioralSupplied {
		return Decision{Admitted: true, RedirectURL: p.RedirectURL}
	}

	var parts []string
	if !challengeOK {
		parts = append(parts, reasonChallengeFailed)
	}
	if !behavioralOK {
		parts = append(parts, fmt.Sprintf("low trust score: %.2f", confidence(c.Behavioral)))
	}
	return Decision{Admitted: false, Reason: strings.Join(parts, " ")}
}

func confidence(o verify.Outcome) float64 {
	if o.Confidence == nil {
		return 0
	}
	return *o.Confidence
}
