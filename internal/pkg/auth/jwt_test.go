package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pank1717/Stocks-sub000/internal/core/domain"
)

func testPrincipal() domain.Principal {
	return domain.Principal{Email: "tech@example.com", Name: "Tech", Role: domain.RoleTechnician}
}

func TestGenerateAndAuthenticate(t *testing.T) {
	m := NewTokenManager("test-secret-key", "stocks", time.Hour)

	token, err := m.GenerateToken(testPrincipal())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	p, err := m.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "tech@example.com", p.Email)
	assert.Equal(t, "tech@example.com", p.Subject)
	assert.Equal(t, domain.RoleTechnician, p.Role)
	assert.Equal(t, "tech@example.com", p.Actor())
}

func TestValidateToken_Rejections(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := NewTokenManager("secret1", "stocks", time.Hour)
	signer.now = func() time.Time { return issued }

	valid, err := signer.GenerateToken(testPrincipal())
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier func() *TokenManager
		token    string
	}{
		{
			name:     "wrong_secret",
			verifier: func() *TokenManager { return verifierAt("secret2", "stocks", issued) },
			token:    valid,
		},
		{
			name:     "wrong_issuer",
			verifier: func() *TokenManager { return verifierAt("secret1", "other", issued) },
			token:    valid,
		},
		{
			name:     "expired",
			verifier: func() *TokenManager { return verifierAt("secret1", "stocks", issued.Add(2*time.Hour)) },
			token:    valid,
		},
		{
			name:     "garbage",
			verifier: func() *TokenManager { return verifierAt("secret1", "stocks", issued) },
			token:    "not-a-token",
		},
		{
			name:     "unsigned",
			verifier: func() *TokenManager { return verifierAt("secret1", "stocks", issued) },
			token:    unsignedToken(t),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier().ValidateToken(tt.token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestAuthenticate_UnknownRole(t *testing.T) {
	m := NewTokenManager("secret", "", time.Hour)

	token, err := m.GenerateToken(domain.Principal{Email: "x@example.com", Role: "owner"})
	require.NoError(t, err)

	_, err = m.Authenticate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	m := NewTokenManager("secret", "stocks", 30*time.Minute)

	token, err := m.GenerateToken(testPrincipal())
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
	assert.NotEmpty(t, claims.ID)
}

func verifierAt(secret, issuer string, now time.Time) *TokenManager {
	m := NewTokenManager(secret, issuer, time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func unsignedToken(t *testing.T) string {
	t.Helper()

	claims := Claims{
		Email: "x@example.com",
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "stocks",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return s
}
