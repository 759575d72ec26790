package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safarhub/backend/internal/domain/identity"
	"github.com/safarhub/backend/internal/infrastructure/auth"
	"github.com/safarhub/backend/internal/infrastructure/logger"
	"github.com/safarhub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys and header names
const (
	PrincipalKey  = "principal"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// PrincipalVerifier turns a bearer token into the caller identity
type PrincipalVerifier interface {
	VerifyPrincipal(token string) (identity.Principal, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	Verifier PrincipalVerifier
	// Optional marks routes where anonymous callers pass through
	Optional bool
	Logger   *zap.Logger
}

// JWTAuthMiddleware requires a valid bearer token
func JWTAuthMiddleware(verifier PrincipalVerifier, log *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{Verifier: verifier, Logger: log})
}

// OptionalJWTAuthMiddleware attaches the principal when a valid token is present
func OptionalJWTAuthMiddleware(verifier PrincipalVerifier) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{Verifier: verifier, Optional: true})
}

// JWTAuthMiddlewareWithConfig creates JWT authentication middleware with custom config
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if authHeader == "" || !strings.HasPrefix(authHeader, BearerPrefix) || tokenString == "" {
			if cfg.Optional {
				c.Next()
				return
			}
			abortUnauthorized(c, cfg.Logger, nil, "Authentication required")
			return
		}

		principal, err := cfg.Verifier.VerifyPrincipal(tokenString)
		if err != nil {
			if cfg.Optional {
				c.Next()
				return
			}
			abortUnauthorized(c, cfg.Logger, err, "Token validation failed")
			return
		}

		c.Set(PrincipalKey, principal)

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, log = logger.WithUserID(ctx, log, principal.ID.String())
		ctx, _ = logger.WithAccountType(ctx, log, principal.AccountType.String())
		c.Request = c.Request.WithContext(ctx)

		cfg.Logger.Debug("JWT authentication successful",
			zap.String("user_id", principal.ID.String()),
			zap.String("account_type", principal.AccountType.String()),
		)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code := dto.ErrCodeUnauthorized
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	default:
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, getRequestIDFromContext(c)))
}

// RequireAccountType rejects principals whose role is not listed
func RequireAccountType(types ...identity.AccountType) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", getRequestIDFromContext(c)))
			return
		}
		if err := principal.RequireAny(types...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Access to this resource is forbidden", getRequestIDFromContext(c)))
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the verified caller, if any
func GetPrincipal(c *gin.Context) (identity.Principal, bool) {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(identity.Principal); ok {
			return p, true
		}
	}
	return identity.Principal{}, false
}
