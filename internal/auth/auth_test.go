package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sofianehd/linkup/internal/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "linkup-test",
		Expiration: time.Hour,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()

	token, err := NewToken(cfg, "user-1", "alice")
	require.NoError(t, err)

	claims, err := ParseToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, "linkup-test", claims.Issuer)
}

func TestParseTokenRejections(t *testing.T) {
	cfg := testJWTConfig()

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewToken(cfg, "user-1", "alice")
		require.NoError(t, err)

		other := cfg
		other.Secret = "different-secret"
		_, err = ParseToken(other, token)
		require.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := cfg
		expired.Expiration = -time.Minute
		token, err := NewToken(expired, "user-1", "alice")
		require.NoError(t, err)

		_, err = ParseToken(cfg, token)
		require.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := ParseToken(cfg, "not.a.token")
		require.Error(t, err)
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", hash)

	require.NoError(t, ComparePassword(hash, "secret123"))
	require.Error(t, ComparePassword(hash, "wrong"))
}
