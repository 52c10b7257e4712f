// Package token defines the proof token kinds accepted by the gate and the
// syntactic validation applied before any network call is spent on them.
package token

// Kind tags a proof token with how it was produced.
type Kind string

const (
	// KindChallenge tokens come from a visible puzzle the caller solved.
	KindChallenge Kind = "challenge"
	// KindBehavioral tokens are generated passively and carry a confidence
	// score from the authority.
	KindBehavioral Kind = "behavioral"
)

// Authority-issued tokens stay well inside these bounds; anything outside is
// either truncated, fabricated, or an oversized-payload attempt.
const (
	MinLength = 20
	MaxLength = 1000
)

// ValidateSyntax reports whether s is a plausibly well-formed proof token:
// 20..1000 characters drawn from [A-Za-z0-9_-]. It performs no network I/O;
// the point is to reject malformed input cheaply before the authority round
// trip. Only challenge tokens are gated this way - behavioral tokens are
// forwarded as-is when present.
func ValidateSyntax(s string) bool {
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenByte(s[i]) {
			return false
		}
	}
	return true
}

func isTokenByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-':
		return true
	}
	return false
}
