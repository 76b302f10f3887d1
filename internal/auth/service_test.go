package auth_test

import (
	"testing"
	"time"

	"github.com/repokit/repokit/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T, secret string, ttl time.Duration) *auth.Service {
	t.Helper()

	return auth.NewService(auth.Config{
		SecretKey: []byte(secret),
		Issuer:    "repokit",
		TokenTTL:  ttl,
	}, zaptest.NewLogger(t))
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newService(t, "secret", time.Hour)

	token, err := svc.GenerateJWT("ci", auth.ScopeRead)
	require.NoError(t, err)

	claims, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Subject)
	assert.True(t, claims.Allows(auth.ScopeRead))
	assert.False(t, claims.Allows(auth.ScopeWrite))
}

func TestValidate_Rejects(t *testing.T) {
	svc := newService(t, "secret", time.Hour)
	other := newService(t, "other", time.Hour)
	expired := newService(t, "secret", -time.Minute)

	foreign, err := other.GenerateJWT("ci", auth.ScopeWrite)
	require.NoError(t, err)
	stale, err := expired.GenerateJWT("ci", auth.ScopeWrite)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"missing", "", auth.ErrTokenMissing},
		{"garbage", "not-a-token", auth.ErrTokenInvalid},
		{"wrong key", foreign, auth.ErrTokenInvalid},
		{"expired", stale, auth.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateJWT(tt.token)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDisabled(t *testing.T) {
	svc := newService(t, "", time.Hour)
	assert.False(t, svc.Enabled())

	_, err := svc.GenerateJWT("ci", auth.ScopeRead)
	require.ErrorIs(t, err, auth.ErrDisabled)
}
