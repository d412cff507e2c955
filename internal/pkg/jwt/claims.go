// internal/pkg/jwt/claims.go
package jwt

import (
	"tipster-service/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeAccess marks tokens that may call the API. The identity provider also
// issues refresh tokens, which are refused here.
const PurposeAccess = "access"

// Claims is the token body issued by the identity provider.
type Claims struct {
	IdentityID int64    `json:"identity_id"`
	Roles      []string `json:"roles,omitempty"`
	Purpose    string   `json:"session_purpose"`
	IsTemp     bool     `json:"is_temp"`
	jwt.RegisteredClaims
}

// Actor is the caller the claims describe.
func (c *Claims) Actor() auth.Actor {
	return auth.NewActor(c.IdentityID, c.Roles...)
}
