package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"passgate/internal/verify"
)

const redirectTarget = "https://example.com/protected"

func strictPolicy() Policy {
	return Policy{ConfidenceThreshold: 0.5, RedirectURL: redirectTarget}
}

func score(v float64) *float64 { return &v }

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		combined   verify.Combined
		policy     Policy
		wantAdmit  bool
		wantReason string
	}{
		{
			name: "both checks pass",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: true, Confidence: score(0.8)},
				BehavioralSupplied: true,
			},
			policy:    strictPolicy(),
			wantAdmit: true,
		},
		{
			name: "score exactly at threshold passes",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: true, Confidence: score(0.5)},
				BehavioralSupplied: true,
			},
			policy:    strictPolicy(),
			wantAdmit: true,
		},
		{
			name: "low score denies",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: true, Confidence: score(0.3)},
				BehavioralSupplied: true,
			},
			policy:     strictPolicy(),
			wantAdmit:  false,
			wantReason: "low trust score: 0.30",
		},
		{
			name: "challenge failure denies regardless of behavioral outcome",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: false},
				Behavioral:         verify.Outcome{Admitted: true, Confidence: score(0.9)},
				BehavioralSupplied: true,
			},
			policy:     strictPolicy(),
			wantAdmit:  false,
			wantReason: "challenge check failed",
		},
		{
			name: "both failures concatenate reasons",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: false},
				Behavioral:         verify.Outcome{Admitted: false, Confidence: score(0.2)},
				BehavioralSupplied: true,
			},
			policy:     strictPolicy(),
			wantAdmit:  false,
			wantReason: "challenge check failed low trust score: 0.20",
		},
		{
			name: "absent behavioral token denies under strict policy",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: false, Confidence: score(0)},
				BehavioralSupplied: false,
			},
			policy:     strictPolicy(),
			wantAdmit:  false,
			wantReason: "low trust score: 0.00",
		},
		{
			name: "absent behavioral token forgiven under lenient policy",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: false, Confidence: score(0)},
				BehavioralSupplied: false,
			},
			policy:    Policy{ConfidenceThreshold: 0.5, AllowMissingBehavioral: true, RedirectURL: redirectTarget},
			wantAdmit: true,
		},
		{
			name: "lenient policy still denies when a supplied behavioral token scores low",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: true, Confidence: score(0.1)},
				BehavioralSupplied: true,
			},
			policy:     Policy{ConfidenceThreshold: 0.5, AllowMissingBehavioral: true, RedirectURL: redirectTarget},
			wantAdmit:  false,
			wantReason: "low trust score: 0.10",
		},
		{
			name: "absent confidence formats as zero",
			combined: verify.Combined{
				Challenge:          verify.Outcome{Admitted: true},
				Behavioral:         verify.Outcome{Admitted: true},
				BehavioralSupplied: true,
			},
			policy:     strictPolicy(),
			wantAdmit:  false,
			wantReason: "low trust score: 0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.combined, tt.policy)
			assert.Equal(t, tt.wantAdmit, got.Admitted)
			if tt.wantAdmit {
				assert.Equal(t, redirectTarget, got.RedirectURL)
				assert.Empty(t, got.Reason)
			} else {
				assert.Equal(t, tt.wantReason, got.Reason)
				assert.Empty(t, got.RedirectURL)
			}
		})
	}
}

func TestDecideIsDeterministic(t *testing.T) {
	combined := verify.Combined{
		Challenge:          verify.Outcome{Admitted: true},
		Behavioral:         verify.Outcome{Admitted: true, Confidence: score(0.42)},
		BehavioralSupplied: true,
	}
	first := Decide(combined, strictPolicy())
	for range 10 {
		assert.Equal(t, first, Decide(combined, strictPolicy()))
	}
}
