package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, ttl time.Duration) *hmacVerifier {
	t.Helper()
	v, err := NewHMACVerifier(HMACConfig{Secret: "test-secret", Issuer: "booking-api", TTL: ttl})
	require.NoError(t, err)
	return v.(*hmacVerifier)
}

func TestHMACVerifierRoundTrip(t *testing.T) {
	v := newTestVerifier(t, time.Hour)

	raw, issued, err := v.Issue("42", "patient")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID())

	claims, err := v.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "patient", claims.Role)
	assert.Equal(t, issued.TokenID(), claims.TokenID())
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), 5*time.Second)
}

func TestHMACVerifierRejectsExpired(t *testing.T) {
	v := newTestVerifier(t, time.Minute)
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err := v.Issue("42", "patient")
	require.NoError(t, err)

	v.now = time.Now
	_, err = v.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifierRejectsForeignSecret(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	other, err := NewHMACVerifier(HMACConfig{Secret: "other", Issuer: "booking-api"})
	require.NoError(t, err)

	raw, _, err := other.Issue("42", "patient")
	require.NoError(t, err)

	_, err = v.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifierRejectsNoneAlg(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "42",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "booking-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHMACVerifierRejectsGarbage(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	for _, raw := range []string{"", "demo-jwt-token-1", strings.Repeat("a.", 3)} {
		_, err := v.Verify(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestNewHMACVerifierRequiresSecret(t *testing.T) {
	_, err := NewHMACVerifier(HMACConfig{})
	assert.ErrorIs(t, err, ErrEmptySecret)
}
