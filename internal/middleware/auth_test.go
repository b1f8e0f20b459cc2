package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipix/backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:  "test-access-secret",
		JWTRefreshSecret: "test-refresh-secret",
		AccessTokenTTL:   15 * time.Minute,
		RefreshTokenTTL:  7 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateAccessToken("user-123", cfg)
	require.NoError(t, err)

	userID, err := VerifyAccessToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestAccessTokenRejectedByRefreshVerifier(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateAccessToken("user-123", cfg)
	require.NoError(t, err)

	_, err = VerifyRefreshToken(token, cfg)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateRefreshToken("user-456", cfg)
	require.NoError(t, err)

	userID, err := VerifyRefreshToken(token, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user-456", userID)
}

func TestVerifyEmptyToken(t *testing.T) {
	_, err := VerifyAccessToken("", testConfig())
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestVerifyGarbageToken(t *testing.T) {
	_, err := VerifyAccessToken("not-a-jwt", testConfig())
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -1 * time.Minute

	token, err := GenerateAccessToken("user-123", cfg)
	require.NoError(t, err)

	_, err = VerifyAccessToken(token, cfg)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTokenSignedWithOtherSecret(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateAccessToken("user-123", cfg)
	require.NoError(t, err)

	other := testConfig()
	other.JWTAccessSecret = "different-secret"
	_, err = VerifyAccessToken(token, other)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
