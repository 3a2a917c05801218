package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAccessRoundTrip(t *testing.T) {
	secret := []byte("access")
	tok, err := SignAccess(secret, "42", "vendor", time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	require.Equal(t, "42", claims.Subject)
	require.Equal(t, "vendor", claims.Role)

	_, err = AccessClaimsFromToken(tok, []byte("other"))
	require.Error(t, err)
}

func TestAccessExpired(t *testing.T) {
	secret := []byte("access")
	tok, err := SignAccess(secret, "1", "customer", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, secret)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestRefreshCarriesJTI(t *testing.T) {
	secret := []byte("refresh")
	tok, jti, err := SignRefresh(secret, "7", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := RefreshClaimsFromToken(tok, secret)
	require.NoError(t, err)
	require.Equal(t, jti, claims.ID)
	require.Equal(t, "7", claims.Subject)
}

func TestSha256Hex(t *testing.T) {
	require.Len(t, Sha256Hex("x"), 64)
	require.Equal(t, Sha256Hex("x"), Sha256Hex("x"))
}
