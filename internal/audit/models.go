package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event records one gate decision. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	ClientIP   string    `json:"client_ip"`
	Browser    string    `json:"browser"`
	Decision   string    `json:"decision"`
	Reason     string    `json:"reason,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// Decision values recorded on events.
const (
	DecisionAdmitted = "admitted"
	DecisionDenied   = "denied"
	DecisionRejected = "rejected"
)
