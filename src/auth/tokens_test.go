package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	userID := uuid.New()

	signed, err := tokens.Issue(userID, true)
	require.NoError(t, err)

	got, superAdmin, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
	assert.True(t, superAdmin)
}

func TestParseRejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	userID := uuid.New()

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(userID, false)
	require.NoError(t, err)

	otherKey, err := NewTokens("other", time.Hour).Issue(userID, false)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":     old,
		"wrong key":   otherKey,
		"non uuid id": badSubject,
		"garbage":     "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := tokens.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
