package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/unimerch/backend/internal/domain/identity"
)

// SwaggerConfig holds configuration for Swagger endpoint protection
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // admin JWT needed unless the IP is allowed
	AllowedIPs  []string // single IPs or CIDRs
}

// SwaggerProtection guards the docs. Disabled docs answer 404. With
// restrictions configured, a request passes when it comes from an allowed IP
// or carries an admin token.
func SwaggerProtection(cfg SwaggerConfig, jwt JWTMiddlewareConfig) gin.HandlerFunc {
	var nets []*net.IPNet
	for _, s := range cfg.AllowedIPs {
		if !strings.Contains(s, "/") {
			if strings.Contains(s, ":") {
				s += "/128"
			} else {
				s += "/32"
			}
		}
		if _, n, err := net.ParseCIDR(s); err == nil {
			nets = append(nets, n)
		}
	}
	restricted := cfg.RequireAuth || len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abort(c, http.StatusNotFound, "NOT_FOUND", "API documentation is not available")
			return
		}
		if !restricted || ipAllowed(net.ParseIP(c.ClientIP()), nets) {
			c.Next()
			return
		}
		if cfg.RequireAuth && jwt.JWTService != nil {
			if token, ok := bearerToken(c); ok {
				if claims, err := authenticate(c, jwt, token); err == nil && identity.Role(claims.Role) == identity.RoleAdmin {
					c.Next()
					return
				}
			}
		}
		abort(c, http.StatusForbidden, "FORBIDDEN", "Access to API documentation is restricted")
	}
}

func ipAllowed(ip net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
