package clearance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "passgate/pkg/domain-errors"
)

func TestNewValidation(t *testing.T) {
	_, err := New("", time.Minute)
	require.Error(t, err)

	_, err = New("secret", 0)
	require.Error(t, err)

	svc, err := New("secret", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestIssueAndValidate(t *testing.T) {
	svc, err := New("test-signing-key", 2*time.Minute)
	require.NoError(t, err)

	confidence := 0.9
	token, err := svc.Issue("admitted", &confidence)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admitted", claims.Decision)
	require.NotNil(t, claims.Confidence)
	assert.InDelta(t, 0.9, *claims.Confidence, 1e-9)
	assert.Equal(t, "passgate", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestIssueWithoutConfidence(t *testing.T) {
	svc, err := New("test-signing-key", 2*time.Minute)
	require.NoError(t, err)

	token, err := svc.Issue("admitted", nil)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Nil(t, claims.Confidence)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	issuerSvc, err := New("key-one", time.Minute)
	require.NoError(t, err)
	verifierSvc, err := New("key-two", time.Minute)
	require.NoError(t, err)

	token, err := issuerSvc.Issue("admitted", nil)
	require.NoError(t, err)

	_, err = verifierSvc.Validate(token)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestValidateRejectsExpired(t *testing.T) {
	svc, err := New("test-signing-key", time.Nanosecond)
	require.NoError(t, err)

	token, err := svc.Issue("admitted", nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc, err := New("test-signing-key", time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}
