package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/middleware"
	"github.com/vibast-solutions/ms-go-hackauth/app/repository"
	"github.com/vibast-solutions/ms-go-hackauth/app/service"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func newMiddleware(t *testing.T) (*middleware.AuthMiddleware, func()) {
	t.Helper()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sessions := service.NewSessionManager(db, repository.NewRefreshTokenRepository(db), config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})

	return middleware.NewAuthMiddleware(sessions), func() { _ = db.Close() }
}

func signedToken(t *testing.T, secret string) string {
	t.Helper()

	claims := &service.Claims{
		UserID: 1,
		Email:  "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func run(t *testing.T, mw echo.MiddlewareFunc, authHeader string, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	if err := mw(next)(ctx); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func ok(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	rec := run(t, authMiddleware.RequireAuth, "", ok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidHeaderFormat(t *testing.T) {
	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	rec := run(t, authMiddleware.RequireAuth, "Token abc", ok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	rec := run(t, authMiddleware.RequireAuth, "Bearer "+signedToken(t, "other-secret"), ok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuth_SetsContextOnValidToken(t *testing.T) {
	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	rec := run(t, authMiddleware.RequireAuth, "Bearer "+signedToken(t, "test-secret"), func(c echo.Context) error {
		userID, ok := c.Get(middleware.ContextUserID).(uint64)
		if !ok || userID != 1 {
			t.Fatalf("expected user_id 1, got %v", c.Get(middleware.ContextUserID))
		}
		email, ok := c.Get(middleware.ContextUserEmail).(string)
		if !ok || email != "user@example.com" {
			t.Fatalf("expected user_email user@example.com, got %v", c.Get(middleware.ContextUserEmail))
		}
		if claims := middleware.ClaimsFrom(c); claims == nil || claims.ID != "jti-1" {
			t.Fatalf("expected claims in context, got %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestOptionalAuth_AnonymousAndInvalid(t *testing.T) {
	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	for _, header := range []string{"", "Token abc", "Bearer " + signedToken(t, "other-secret")} {
		rec := run(t, authMiddleware.OptionalAuth, header, func(c echo.Context) error {
			if middleware.ClaimsFrom(c) != nil {
				t.Fatalf("expected anonymous request for header %q", header)
			}
			return c.NoContent(http.StatusOK)
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
	}
}

func TestOptionalAuth_SetsClaims(t *testing.T) {
	authMiddleware, cleanup := newMiddleware(t)
	defer cleanup()

	rec := run(t, authMiddleware.OptionalAuth, "Bearer "+signedToken(t, "test-secret"), func(c echo.Context) error {
		if claims := middleware.ClaimsFrom(c); claims == nil || claims.UserID != 1 {
			t.Fatalf("expected claims, got %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

type failingValidator struct{}

func (failingValidator) ValidateAccessToken(context.Context, string) (*service.Claims, error) {
	return nil, errors.New("redis unavailable")
}

func TestRequireAuth_ValidatorFailure(t *testing.T) {
	authMiddleware := middleware.NewAuthMiddleware(failingValidator{})

	rec := run(t, authMiddleware.RequireAuth, "Bearer abc", ok)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}
