// Package clearance issues short-lived proof-of-verification tokens. The
// downstream application a visitor is redirected to can validate one instead
// of trusting the redirect alone.
package clearance

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "passgate/pkg/domain-errors"
)

const issuer = "passgate"

// Claims carries the verification outcome inside the clearance token.
type Claims struct {
	Decision   string   `json:"decision"`
	Confidence *float64 `json:"confidence,omitempty"`
	jwt.RegisteredClaims
}

// Service handles clearance token creation and validation.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

// New constructs a clearance service. ttl bounds how long a token stays valid.
func New(signingKey string, ttl time.Duration) (*Service, error) {
	if signingKey == "" {
		return nil, errors.New("clearance: signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("clearance: ttl must be positive")
	}
	return &Service{signingKey: []byte(signingKey), ttl: ttl}, nil
}

// Issue signs a clearance token for an admitted visitor.
func (s *Service) Issue(decision string, confidence *float64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Decision:   decision,
		Confidence: confidence,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate parses a clearance token and returns its claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "clearance token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid clearance token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid clearance token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid clearance token claims")
	}
	return claims, nil
}
