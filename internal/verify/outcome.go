package verify

// Outcome is the normalized result of one authority check. Created fresh per
// verification call and discarded once the decision policy consumes it.
type Outcome struct {
	Admitted bool
	// Confidence is the authority-reported score in [0,1]. Nil when the
	// authority does not score this token kind.
	Confidence *float64
	// AuthorityErrors preserves the authority's error codes in order, for
	// logging only; they never influence the decision.
	AuthorityErrors []string
}

// Combined pairs the per-kind outcomes for one request. Both fields are
// always populated: an absent behavioral token yields the client's
// deterministic negative outcome, never a missing field, so downstream logic
// has no "outcome missing" branch.
type Combined struct {
	Challenge          Outcome
	Behavioral         Outcome
	BehavioralSupplied bool
}
