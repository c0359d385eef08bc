package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/domain/identity"
)

func TestSwaggerProtection(t *testing.T) {
	jwtService := newTestJWTService(15 * time.Minute)
	jwtCfg := JWTMiddlewareConfig{JWTService: jwtService}

	token := func(role identity.Role) string {
		pair, err := jwtService.GenerateTokenPair(newTestSubject(role))
		require.NoError(t, err)
		return pair.AccessToken
	}

	tests := []struct {
		name   string
		cfg    SwaggerConfig
		ip     string
		token  string
		status int
	}{
		{"disabled", SwaggerConfig{Enabled: false}, "10.0.0.1", "", http.StatusNotFound},
		{"open", SwaggerConfig{Enabled: true}, "10.0.0.1", "", http.StatusOK},
		{"allowed ip", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.1", "", http.StatusOK},
		{"allowed cidr", SwaggerConfig{Enabled: true, AllowedIPs: []string{"192.168.0.0/16"}}, "192.168.4.2", "", http.StatusOK},
		{"other ip", SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.1"}}, "10.0.0.2", "", http.StatusForbidden},
		{"auth without token", SwaggerConfig{Enabled: true, RequireAuth: true}, "10.0.0.1", "", http.StatusForbidden},
		{"auth with user token", SwaggerConfig{Enabled: true, RequireAuth: true}, "10.0.0.1", token(identity.RoleUser), http.StatusForbidden},
		{"auth with admin token", SwaggerConfig{Enabled: true, RequireAuth: true}, "10.0.0.1", token(identity.RoleAdmin), http.StatusOK},
		{"admin from other ip", SwaggerConfig{Enabled: true, RequireAuth: true, AllowedIPs: []string{"10.0.0.1"}}, "10.9.9.9", token(identity.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/swagger/*any", SwaggerProtection(tt.cfg, jwtCfg), okHandler)

			req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
			req.RemoteAddr = tt.ip + ":5555"
			if tt.token != "" {
				req.Header.Set(AuthHeaderKey, BearerPrefix+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}
