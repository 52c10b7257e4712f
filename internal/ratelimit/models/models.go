package models

import "time"

// Window identifies one of the two fixed throttle windows. The daily window
// covers every inbound request; the hourly window covers submissions only.
type Window string

const (
	WindowDaily  Window = "daily"
	WindowHourly Window = "hourly"
)

// Key returns the counter-store key for a window. The throttle is global by
// design - one bucket per window across all callers, no per-identity keying.
func Key(w Window) string {
	return "ratelimit:global:" + string(w)
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// RetryAfter is seconds until the window rolls over; only set when not
	// allowed.
	RetryAfter int `json:"retry_after,omitempty"`
}
