package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateRoundTrip(t *testing.T) {
	verifier := NewVerifier(VerifierConfig{Secret: []byte("test-secret"), Issuer: "quizforge-identity"})
	userID := uuid.New()

	token, err := verifier.Sign(userID, "Ada")
	require.NoError(t, err)

	claims, err := verifier.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "Ada", claims.DisplayName)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signer := NewVerifier(VerifierConfig{Secret: []byte("secret-a")})
	verifier := NewVerifier(VerifierConfig{Secret: []byte("secret-b")})

	token, err := signer.Sign(uuid.New(), "Mallory")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	verifier := NewVerifier(VerifierConfig{Secret: []byte("test-secret"), TTL: -time.Minute})

	token, err := verifier.Sign(uuid.New(), "Late")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	verifier := NewVerifier(VerifierConfig{Secret: []byte("test-secret")})

	_, err := verifier.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
