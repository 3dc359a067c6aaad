package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT("u-1", "alice", testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseJWT(token, "another-secret-another-secret-000")
	assert.Error(t, err)
}

func TestJWTRejectsExpiredAndSubjectless(t *testing.T) {
	expired, err := GenerateJWT("u-1", "alice", testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.Error(t, err)

	noUser, err := GenerateJWT("", "ghost", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(noUser, testSecret)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}
