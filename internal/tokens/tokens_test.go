package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestAccessClaimsFromToken(t *testing.T) {
	t.Parallel()

	tok, err := Sign("0b6f7f43-0a4e-4f3a-9d52-3c41b4d1f1aa", time.Minute, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "0b6f7f43-0a4e-4f3a-9d52-3c41b4d1f1aa", claims.Subject)

	_, err = AccessClaimsFromToken(tok, []byte("other"))
	assert.Error(t, err)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	t.Parallel()

	tok, err := Sign("u", -time.Minute, secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestAccessClaimsFromToken_RejectsOtherAlg(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, AccessClaims{}).SignedString(secret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	assert.Error(t, err)
}
