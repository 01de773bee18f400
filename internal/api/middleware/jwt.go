package middleware

import (
	"net/http"
	"strings"

	"algotracker/internal/pkg/token"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	CtxAccountID = "accountID"
	CtxEmail     = "email"
	CtxRole      = "role"
)

// Authenticator verifies access tokens.
type Authenticator interface {
	Authenticate(tokenStr string) (*token.AccessClaims, error)
}

// AuthMiddleware verifies the access token from the "token" cookie or the
// Authorization header and stores the account identity in the context.
func AuthMiddleware(authn Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if v, err := c.Cookie(cookieName); err == nil && v != "" {
			tokenStr = v
		} else if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid authorization header"})
				return
			}
			tokenStr = strings.TrimSpace(parts[1])
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authorization"})
			return
		}

		claims, err := authn.Authenticate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}

		c.Set(CtxAccountID, claims.ID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, strings.TrimSpace(strings.ToLower(claims.Role)))
		c.Next()
	}
}

// AccountID returns the authenticated account id.
func AccountID(c *gin.Context) string {
	return c.GetString(CtxAccountID)
}
