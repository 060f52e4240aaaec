package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"user-directory-service/internal/core/auth"
	resp "user-directory-service/internal/transport/http/response"
)

// Context keys set by AuthJWT.
const (
	KeyUserID = "userId"
	KeyRoles  = "roles"
)

// AuthJWT requires a valid Bearer token and stores the caller's id and role
// names on the context.
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			resp.Abort(c, resp.CodeUnauthorized, "invalid token")
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRoles, claims.Roles)
		c.Next()
	}
}

// RequireRole gates a route group on a role name carried in the token.
func RequireRole(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, _ := c.Get(KeyRoles)
		if rs, ok := roles.([]string); ok {
			for _, r := range rs {
				if r == name {
					c.Next()
					return
				}
			}
		}
		resp.Abort(c, resp.CodeForbidden, "requires role "+name)
	}
}

// CallerID returns the authenticated user id from the context.
func CallerID(c *gin.Context) int64 {
	v, _ := c.Get(KeyUserID)
	id, _ := v.(int64)
	return id
}
