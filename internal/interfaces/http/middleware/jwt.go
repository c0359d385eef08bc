package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unimerch/backend/internal/domain/identity"
	"github.com/unimerch/backend/internal/infrastructure/auth"
	"github.com/unimerch/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware
const (
	JWTClaimsKey  = "jwt_claims"
	ActorKey      = "actor"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig holds configuration for the JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// Blacklist is optional; lookups fail open so a cache outage does not log everyone out
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger
}

// JWTAuth requires a valid, unrevoked access token
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Access token is required")
			return
		}
		claims, err := authenticate(c, cfg, token)
		if err != nil {
			code, message := authErrorCode(err)
			cfg.Logger.Debug("JWT authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("code", code),
				zap.Error(err))
			abort(c, http.StatusUnauthorized, code, message)
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuth attaches the caller when a valid token is sent and lets
// anonymous requests through. A bad token is treated as no token.
func OptionalJWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := authenticate(c, cfg, token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func authenticate(c *gin.Context, cfg JWTMiddlewareConfig, token string) (*auth.Claims, error) {
	claims, err := cfg.JWTService.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, auth.ErrInvalidClaims
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, auth.ErrInvalidClaims
	}
	if cfg.Blacklist == nil {
		return claims, nil
	}

	ctx := c.Request.Context()
	for _, id := range []string{claims.ID, claims.SessionID} {
		if id == "" {
			continue
		}
		revoked, err := cfg.Blacklist.IsBlacklisted(ctx, id)
		if err != nil {
			cfg.Logger.Error("Failed to check token blacklist", zap.String("jti", id), zap.Error(err))
		} else if revoked {
			return nil, auth.ErrTokenRevoked
		}
	}
	invalidated, err := cfg.Blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.IssuedAtTime())
	if err != nil {
		cfg.Logger.Error("Failed to check user token invalidation", zap.String("user_id", claims.UserID), zap.Error(err))
	} else if invalidated {
		return nil, auth.ErrTokenRevoked
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *auth.Claims) {
	userID, _ := claims.UserUUID()
	tenantID, _ := claims.TenantUUID()

	c.Set(JWTClaimsKey, claims)
	c.Set(ActorKey, identity.Actor{UserID: userID, Role: identity.Role(claims.Role)})
	c.Set(TenantIDKey, tenantID)

	ctx := logger.WithUserID(c.Request.Context(), claims.UserID)
	ctx = logger.WithTenantID(ctx, claims.TenantID)
	c.Request = c.Request.WithContext(ctx)
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "TOKEN_REVOKED", "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidTokenType):
		return "TOKEN_INVALID", "Invalid token type"
	default:
		return "TOKEN_INVALID", "Invalid token"
	}
}

// GetJWTClaims returns the claims of the authenticated caller, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetActor returns the authenticated caller
func GetActor(c *gin.Context) (identity.Actor, bool) {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(identity.Actor); ok {
			return actor, true
		}
	}
	return identity.Actor{}, false
}

// GetUserID returns the authenticated caller's ID or uuid.Nil
func GetUserID(c *gin.Context) uuid.UUID {
	actor, _ := GetActor(c)
	return actor.UserID
}
