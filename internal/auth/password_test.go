package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("Passw0rd", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NoError(t, ComparePassword(hash, "Passw0rd"))
	assert.Error(t, ComparePassword(hash, "wrong-password"))
}

func TestHashPassword_Salted(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("Passw0rd", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("Passw0rd", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	_, err = hex.DecodeString(token)
	assert.NoError(t, err)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateToken_DefaultLength(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken(0)
	require.NoError(t, err)
	assert.Len(t, token, 64)
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()

	digest := HashToken("some-refresh-token")
	assert.Len(t, digest, 64)
	assert.Equal(t, digest, HashToken("some-refresh-token"))
	assert.NotEqual(t, digest, HashToken("another-token"))
}
