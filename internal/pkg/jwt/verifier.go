// internal/pkg/jwt/verifier.go
package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotAccessToken = errors.New("token is not an access token")
	ErrTemporaryToken = errors.New("temporary tokens cannot call the api")
)

type Config struct {
	PubPath  string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Verifier checks RS256 tokens signed by the identity provider. This service
// never issues tokens.
type Verifier struct {
	pub    *rsa.PublicKey
	parser *jwt.Parser
}

func NewVerifier(pub *rsa.PublicKey, issuer, audience string, leeway time.Duration) *Verifier {
	return &Verifier{
		pub: pub,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// LoadVerifier reads a PEM public key (PKIX or PKCS1) from cfg.PubPath.
func LoadVerifier(cfg Config) (*Verifier, error) {
	raw, err := os.ReadFile(cfg.PubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key %s: %w", cfg.PubPath, err)
	}
	return NewVerifier(pub, cfg.Issuer, cfg.Audience, cfg.Leeway), nil
}

// VerifyAccessToken validates signature, issuer, audience and expiry, and
// only accepts non-temporary access tokens.
func (v *Verifier) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return v.pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	switch {
	case claims.Purpose != PurposeAccess:
		return nil, ErrNotAccessToken
	case claims.IsTemp:
		return nil, ErrTemporaryToken
	}
	return claims, nil
}
