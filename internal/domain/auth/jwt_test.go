package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("s3cret"))

	token, expiresAt, err := svc.GenerateAccessToken("cashier-1", "Mai", []string{"cashier"})
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cashier-1", user.UserID)
	assert.Equal(t, "Mai", user.Name)
	assert.Equal(t, []string{"cashier"}, user.Roles)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("s3cret"))

	other := NewJWTService(DefaultJWTConfig("different"))
	wrongKey, _, err := other.GenerateAccessToken("u", "", nil)
	require.NoError(t, err)

	expiredSvc := NewJWTService(DefaultJWTConfig("s3cret"))
	expiredSvc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredSvc.GenerateAccessToken("u", "", nil)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u", Issuer: "shopledger"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"wrong key": wrongKey,
		"expired":   expired,
		"alg none":  none,
		"garbage":   "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}
