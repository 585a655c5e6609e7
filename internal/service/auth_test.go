package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/wedding-planner-bfa-go/internal/domain"
	"github.com/boddenberg/wedding-planner-bfa-go/internal/service"
)

func TestTokenVerifier_RoundTrip(t *testing.T) {
	v := service.NewTokenVerifier("s3cret")
	require.True(t, v.Enabled())

	token, err := v.Sign("user-1", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Sub)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := service.NewTokenVerifier("s3cret")

	expired, err := v.Sign("user-1", -time.Minute)
	require.NoError(t, err)
	foreign, err := service.NewTokenVerifier("other").Sign("user-1", time.Hour)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "authenticated"}).
		SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":      "",
		"garbage":    "not-a-jwt",
		"expired":    expired,
		"foreign":    foreign,
		"alg none":   none,
		"no subject": noSub,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			var ue *domain.ErrUnauthorized
			assert.ErrorAs(t, err, &ue)
		})
	}
}

func TestTokenVerifier_DisabledWithoutSecret(t *testing.T) {
	assert.False(t, service.NewTokenVerifier("").Enabled())
	var nilVerifier *service.TokenVerifier
	assert.False(t, nilVerifier.Enabled())
}
