package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-hackauth/app/dto/http"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextClaims    = "claims"
)

type accessTokenValidator interface {
	ValidateAccessToken(ctx context.Context, tokenString string) (*service.Claims, error)
}

// AuthMiddleware resolves the bearer token of a request into session claims.
type AuthMiddleware struct {
	sessions accessTokenValidator
}

func NewAuthMiddleware(sessions accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			logrus.Debug("Missing authorization header")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{
				Error:   "missing authorization header",
				Outcome: string(service.OutcomeInvalidSession),
			})
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			logrus.Debug("Invalid authorization header format")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{
				Error:   "invalid authorization header format",
				Outcome: string(service.OutcomeInvalidSession),
			})
		}

		claims, err := m.sessions.ValidateAccessToken(c.Request().Context(), tokenString)
		if err != nil {
			if errors.Is(err, service.ErrInvalidSession) {
				logrus.Debug("Invalid or expired access token")
				return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{
					Error:   "invalid or expired token",
					Outcome: string(service.OutcomeInvalidSession),
				})
			}
			logrus.WithError(err).Error("Failed to validate access token")
			return c.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{
				Error:   "internal server error",
				Outcome: string(service.OutcomeInternal),
			})
		}

		setClaims(c, claims)
		return next(c)
	}
}

// OptionalAuth sets the claims when a valid bearer token is present and lets
// anonymous requests through otherwise.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, ok := bearerToken(c.Request().Header.Get("Authorization"))
		if !ok {
			return next(c)
		}

		claims, err := m.sessions.ValidateAccessToken(c.Request().Context(), tokenString)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidSession) {
				logrus.WithError(err).Error("Failed to validate access token")
				return c.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{
					Error:   "internal server error",
					Outcome: string(service.OutcomeInternal),
				})
			}
			logrus.Debug("Ignoring invalid access token on optional route")
			return next(c)
		}

		setClaims(c, claims)
		return next(c)
	}
}

// ClaimsFrom returns the claims set by the middleware, or nil.
func ClaimsFrom(c echo.Context) *service.Claims {
	claims, _ := c.Get(ContextClaims).(*service.Claims)
	return claims
}

func setClaims(c echo.Context, claims *service.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserEmail, claims.Email)
	c.Set(ContextClaims, claims)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}
