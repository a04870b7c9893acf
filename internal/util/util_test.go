package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := IssueSessionToken("test-secret", "invexqr", "user-123", "jane@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, "invexqr", claims.Issuer)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	token, err := IssueSessionToken("test-secret", "invexqr", "user-123", "jane@example.com", time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateJWTRejectsExpiredToken(t *testing.T) {
	token, err := IssueSessionToken("test-secret", "invexqr", "user-123", "jane@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "test-secret")
	assert.Error(t, err)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token", "test-secret")
	assert.Error(t, err)
}

func TestPeekIssuer(t *testing.T) {
	token, err := IssueSessionToken("test-secret", "invexqr", "user-123", "", time.Hour)
	require.NoError(t, err)

	// PeekIssuer reads the claim without needing the secret.
	issuer, err := PeekIssuer(token)
	require.NoError(t, err)
	assert.Equal(t, "invexqr", issuer)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestParseRSAPublicKeyRejectsInvalidPEM(t *testing.T) {
	_, err := ParseRSAPublicKey("not a pem block")
	assert.Error(t, err)
}
