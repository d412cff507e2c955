package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tipster-service/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return priv
}

func sign(t *testing.T, priv *rsa.PrivateKey, method jwt.SigningMethod, mutate func(*Claims)) string {
	t.Helper()
	now := time.Now()
	claims := &Claims{
		IdentityID: 42,
		Roles:      []string{auth.RoleAdmin},
		Purpose:    PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "01J0000000000000000000000",
			Issuer:    "tipster-identity",
			Audience:  jwt.ClaimStrings{"tipster-api"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	if mutate != nil {
		mutate(claims)
	}
	var key interface{} = priv
	if method == jwt.SigningMethodHS256 {
		key = []byte("shared-secret")
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestVerifyAccessToken(t *testing.T) {
	priv := newKey(t)
	v := NewVerifier(&priv.PublicKey, "tipster-identity", "tipster-api", 0)

	claims, err := v.VerifyAccessToken(sign(t, priv, jwt.SigningMethodRS256, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.IdentityID)
	assert.Equal(t, "01J0000000000000000000000", claims.ID)

	actor := claims.Actor()
	assert.Equal(t, int64(42), actor.ID)
	assert.True(t, actor.IsAdmin())
}

func TestVerifyRejects(t *testing.T) {
	priv := newKey(t)
	v := NewVerifier(&priv.PublicKey, "tipster-identity", "tipster-api", 0)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"wrong audience", sign(t, priv, jwt.SigningMethodRS256, func(c *Claims) { c.Audience = jwt.ClaimStrings{"other-api"} }), jwt.ErrTokenInvalidAudience},
		{"wrong issuer", sign(t, priv, jwt.SigningMethodRS256, func(c *Claims) { c.Issuer = "someone-else" }), jwt.ErrTokenInvalidIssuer},
		{"expired", sign(t, priv, jwt.SigningMethodRS256, func(c *Claims) { c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute)) }), jwt.ErrTokenExpired},
		{"no expiry", sign(t, priv, jwt.SigningMethodRS256, func(c *Claims) { c.ExpiresAt = nil }), jwt.ErrTokenRequiredClaimMissing},
		{"wrong key", sign(t, newKey(t), jwt.SigningMethodRS256, nil), jwt.ErrTokenSignatureInvalid},
		{"hmac token", sign(t, priv, jwt.SigningMethodHS256, nil), jwt.ErrTokenSignatureInvalid},
		{"refresh token", sign(t, priv, jwt.SigningMethodRS256, func(c *Claims) { c.Purpose = "refresh" }), ErrNotAccessToken},
		{"temporary token", sign(t, priv, jwt.SigningMethodRS256, func(c *Claims) { c.IsTemp = true }), ErrTemporaryToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyAccessToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadVerifier(t *testing.T) {
	priv := newKey(t)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "pub.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o600))

	v, err := LoadVerifier(Config{PubPath: path, Issuer: "tipster-identity", Audience: "tipster-api"})
	require.NoError(t, err)
	_, err = v.VerifyAccessToken(sign(t, priv, jwt.SigningMethodRS256, nil))
	assert.NoError(t, err)

	_, err = LoadVerifier(Config{PubPath: filepath.Join(dir, "missing.pem")})
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = LoadVerifier(Config{PubPath: garbage})
	assert.Error(t, err)
}
