package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")
	token, err := GenerateToken("tenant-1", "user-1", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	require.Equal(t, "tenant-1", claims.TenantID)
	require.Equal(t, "user-1", claims.UserID)
}

func TestParseTokenRejectsWrongSecretAndMissingTenant(t *testing.T) {
	token, err := GenerateToken("tenant-1", "", []byte("a"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("b"))
	require.Error(t, err)

	noTenant, err := GenerateToken("", "user-1", []byte("a"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(noTenant, []byte("a"))
	require.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("tenant-1", "", []byte("a"), -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(token, []byte("a"))
	require.Error(t, err)
}
