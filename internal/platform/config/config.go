// Package config builds static process configuration from the environment so
// main stays lean. Everything here is read once at startup; nothing is
// re-derived at runtime.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures the full configuration surface of the gate.
type Config struct {
	Addr string

	// External verification authority.
	AuthorityURL     string
	ChallengeSecret  string
	BehavioralSecret string
	VerifyTimeout    time.Duration

	// Public site keys rendered into the form page widgets.
	ChallengeSiteKey  string
	BehavioralSiteKey string

	// Decision policy.
	RedirectURL            string
	ConfidenceThreshold    float64
	AllowMissingBehavioral bool

	// Rate limit windows. Daily applies to all inbound requests, hourly to
	// submissions only.
	DailyLimit   int
	DailyWindow  time.Duration
	HourlyLimit  int
	HourlyWindow time.Duration

	// Clearance token minted on admit. Disabled when the key is empty.
	ClearanceSigningKey string
	ClearanceTTL        time.Duration

	// Optional shared backends. Empty values select in-memory implementations.
	RedisURL     string
	PostgresDSN  string
	KafkaBrokers []string
	AuditTopic   string
}

// FromEnv builds a Config from environment variables, applying the canonical
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		Addr: getString("GATE_ADDR", ":5000"),

		AuthorityURL:     getString("GATE_AUTHORITY_URL", "https://www.google.com/recaptcha/api/siteverify"),
		ChallengeSecret:  os.Getenv("GATE_CHALLENGE_SECRET"),
		BehavioralSecret: os.Getenv("GATE_BEHAVIORAL_SECRET"),
		VerifyTimeout:    getDuration("GATE_VERIFY_TIMEOUT", 10*time.Second),

		ChallengeSiteKey:  os.Getenv("GATE_CHALLENGE_SITE_KEY"),
		BehavioralSiteKey: os.Getenv("GATE_BEHAVIORAL_SITE_KEY"),

		RedirectURL:            os.Getenv("GATE_REDIRECT_URL"),
		ConfidenceThreshold:    getFloat("GATE_CONFIDENCE_THRESHOLD", 0.5),
		AllowMissingBehavioral: os.Getenv("GATE_ALLOW_MISSING_BEHAVIORAL") == "true",

		DailyLimit:   getInt("GATE_DAILY_LIMIT", 2000),
		DailyWindow:  getDuration("GATE_DAILY_WINDOW", 24*time.Hour),
		HourlyLimit:  getInt("GATE_HOURLY_LIMIT", 90),
		HourlyWindow: getDuration("GATE_HOURLY_WINDOW", time.Hour),

		ClearanceSigningKey: os.Getenv("GATE_CLEARANCE_SIGNING_KEY"),
		ClearanceTTL:        getDuration("GATE_CLEARANCE_TTL", 2*time.Minute),

		RedisURL:     os.Getenv("GATE_REDIS_URL"),
		PostgresDSN:  os.Getenv("GATE_POSTGRES_DSN"),
		KafkaBrokers: getList("GATE_KAFKA_BROKERS"),
		AuditTopic:   getString("GATE_AUDIT_TOPIC", "passgate.decisions"),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
