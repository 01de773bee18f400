package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RoleDecoder resolves role-token cookies.
type RoleDecoder interface {
	CookiePrefix(role string) string
	DecodeRoleCookie(value, expectedRole string) (string, bool)
}

// RequireRole lets the request through only when one of the cookies named
// with the role's prefix carries a valid role token for role.
func RequireRole(roles RoleDecoder, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefix := roles.CookiePrefix(role)
		if prefix != "" {
			for _, ck := range c.Request.Cookies() {
				if !strings.HasPrefix(ck.Name, prefix) {
					continue
				}
				if _, ok := roles.DecodeRoleCookie(ck.Value, role); ok {
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "insufficient role"})
	}
}
