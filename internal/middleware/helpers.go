// internal/middleware/helpers.go
package middleware

import (
	"tipster-service/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

// GetActor returns the authenticated caller set by Auth().
func GetActor(c *gin.Context) (auth.Actor, bool) {
	v, exists := c.Get(ctxActor)
	if !exists {
		return auth.Actor{}, false
	}
	actor, ok := v.(auth.Actor)
	return actor, ok
}

// MustGetActor gets the actor from context or panics
func MustGetActor(c *gin.Context) auth.Actor {
	actor, ok := GetActor(c)
	if !ok {
		panic("actor not found in context")
	}
	return actor
}

func GetIdentityID(c *gin.Context) (int64, bool) {
	identityID, exists := c.Get(ctxIdentityID)
	if !exists {
		return 0, false
	}

	id, ok := identityID.(int64)
	return id, ok
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxActor)
	return exists
}
