package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Generate("user-1", "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestValidateRejectsExpired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, err := m.Generate("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = m.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	signer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, err := signer.Generate("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	require.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	_, err := m.Validate("not.a.token")
	require.Error(t, err)
}

func TestParseBearer(t *testing.T) {
	token, err := ParseBearer("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	// case-insensitive scheme
	token, err = ParseBearer("bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ParseBearer("")
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = ParseBearer("abc123")
	require.Error(t, err)

	_, err = ParseBearer("Basic abc123")
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)

	require.NoError(t, CheckPassword(hash, "secret1"))
	require.Error(t, CheckPassword(hash, "wrong"))
}
