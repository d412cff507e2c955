// internal/middleware/auth_middleware.go
package middleware

import (
	"strings"

	"tipster-service/internal/domain/auth"
	"tipster-service/internal/pkg/jwt"
	"tipster-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxIdentityID = "identity_id"
	ctxRoles      = "roles"
	ctxJTI        = "jti"
	ctxActor      = "actor"
)

// TokenVerifier checks an access token issued by the identity service.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Auth validates the bearer token and stores the caller as an auth.Actor.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxIdentityID, claims.IdentityID)
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxRoles, claims.Roles)
		c.Set(ctxActor, claims.Actor())

		c.Next()
	}
}

// RequireRole allows the request through when the actor has any of roles.
// MUST be used after Auth()
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			return
		}

		for _, role := range roles {
			if actor.HasRole(role) {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "insufficient permissions", gin.H{
			"required_roles": roles,
		})
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(auth.RoleAdmin, auth.RoleSuperAdmin),
	}
}

// BearerToken reads the Authorization header, falling back to the token
// query parameter used by websocket clients.
func BearerToken(c *gin.Context) string {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
		return strings.TrimSpace(token)
	}
	return c.Query("token")
}
