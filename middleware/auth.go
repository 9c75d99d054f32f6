package middleware

import (
	"net/http"
	"strings"
	"time"

	"servana/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const authCachePrefix = "auth:"
const authCacheTTL = time.Hour

// JWTAuth validates the bearer token and stores the actor's ID and role in
// the gin context. When requiredRole is non-empty the actor's role must
// match it exactly.
func JWTAuth(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actorID, role, err := utils.ExtractActorFromToken(tokenString)
		if err != nil || actorID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if requiredRole != "" && role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}

		cacheRecentAuth(c, actorID, tokenString)

		c.Set("actorID", actorID)
		c.Set("actorRole", role)
		c.Next()
	}
}

// OptionalJWTAuth resolves the actor when a valid token is present but never
// rejects the request. Used on the payment return endpoint, which the
// gateway redirect may hit without credentials.
func OptionalJWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if actorID, role, err := utils.ExtractActorFromToken(tokenString); err == nil && actorID != "" {
				c.Set("actorID", actorID)
				c.Set("actorRole", role)
			}
		}
		c.Next()
	}
}

// cacheRecentAuth records the token hash so the ops dashboard can tell
// recently active sessions apart from stale ones. Failures are ignored.
func cacheRecentAuth(c *gin.Context, actorID, tokenString string) {
	authCache := utils.GetAuthCacheClient()
	if authCache == nil {
		return
	}
	key := authCachePrefix + actorID
	if err := authCache.Set(c.Request.Context(), key, utils.HashToken(tokenString), authCacheTTL).Err(); err != nil && err != redis.Nil {
		zap.L().Debug("auth cache write failed", zap.Error(err))
	}
}

// ActorID returns the authenticated actor's ID, or empty when anonymous.
func ActorID(c *gin.Context) string {
	id, _ := c.Get("actorID")
	s, _ := id.(string)
	return s
}

// ActorRole returns the authenticated actor's role, or empty when anonymous.
func ActorRole(c *gin.Context) string {
	role, _ := c.Get("actorRole")
	s, _ := role.(string)
	return s
}
