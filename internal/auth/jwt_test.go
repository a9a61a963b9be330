package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "scr-identity"
)

func signToken(t *testing.T, secret string, claims *JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func validClaims() *JWTClaims {
	return &JWTClaims{
		Email: "jane@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_2x8a",
			Issuer:    testIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
}

func TestVerifyAccessToken(t *testing.T) {
	manager := NewJWTManager(testSecret, testIssuer)

	t.Run("valid token", func(t *testing.T) {
		claims, err := manager.VerifyAccessToken(signToken(t, testSecret, validClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user_2x8a", claims.Subject)
		assert.Equal(t, "jane@example.com", claims.Email)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := manager.VerifyAccessToken(signToken(t, "other-secret", validClaims()))
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		c := validClaims()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := manager.VerifyAccessToken(signToken(t, testSecret, c))
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := validClaims()
		c.Issuer = "someone-else"
		_, err := manager.VerifyAccessToken(signToken(t, testSecret, c))
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		c := validClaims()
		c.Subject = ""
		_, err := manager.VerifyAccessToken(signToken(t, testSecret, c))
		assert.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.VerifyAccessToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestExtractTokenFromHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer token", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "missing prefix", header: "abc.def.ghi", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
		{name: "empty header", header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractTokenFromHeader(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyWebhookSecret(t *testing.T) {
	assert.True(t, VerifyWebhookSecret("shared", "shared"))
	assert.False(t, VerifyWebhookSecret("wrong", "shared"))
	assert.False(t, VerifyWebhookSecret("", "shared"))
	// An unconfigured secret never matches
	assert.False(t, VerifyWebhookSecret("", ""))
}
