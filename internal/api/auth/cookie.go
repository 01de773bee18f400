package auth

import (
	"net/http"
	"time"

	"algotracker/internal/config"

	"github.com/gin-gonic/gin"
)

// AccessCookieName holds the access token.
const AccessCookieName = "token"

// CookiePolicy decides session cookie attributes per environment.
type CookiePolicy struct {
	Secure bool
	Domain string
	MaxAge time.Duration
}

// NewCookiePolicy derives the policy from cfg: development cookies are not
// secure and bound to localhost, everything else uses the production domain.
func NewCookiePolicy(cfg *config.Config) CookiePolicy {
	p := CookiePolicy{
		Secure: true,
		Domain: cfg.Cookie.ProductionDomain,
		MaxAge: cfg.Cookie.MaxAge,
	}
	if cfg.IsDevelopment() {
		p.Secure = false
		p.Domain = "localhost"
	}
	if p.MaxAge <= 0 {
		p.MaxAge = 7 * 24 * time.Hour
	}
	return p
}

// Set writes a session cookie. The cookies are readable from scripts.
func (p CookiePolicy) Set(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, int(p.MaxAge/time.Second), "/", p.Domain, p.Secure, false)
}

// Clear expires a cookie set by Set.
func (p CookiePolicy) Clear(c *gin.Context, name string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, "", -1, "/", p.Domain, p.Secure, false)
}
