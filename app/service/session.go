package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/repository"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Claims struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Session is what a client holds after signing in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	User         *entity.User
}

// SessionDenylist remembers access tokens terminated before their expiry.
type SessionDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type refreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	FindByTokenForUpdate(ctx context.Context, token string) (*entity.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string, userID uint64) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
}

type refreshTokenCreator interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
}

type noopDenylist struct{}

func (noopDenylist) Revoke(context.Context, string, time.Time) error { return nil }

func (noopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type SessionOption func(*SessionManager)

func WithDenylist(denylist SessionDenylist) SessionOption {
	return func(m *SessionManager) {
		if denylist != nil {
			m.denylist = denylist
		}
	}
}

// SessionManager issues access/refresh token pairs and ends them.
type SessionManager struct {
	db               *sql.DB
	refreshTokenRepo refreshTokenRepository
	denylist         SessionDenylist
	cfg              config.JWTConfig
}

func NewSessionManager(db *sql.DB, refreshTokenRepo refreshTokenRepository, cfg config.JWTConfig, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		db:               db,
		refreshTokenRepo: refreshTokenRepo,
		denylist:         noopDenylist{},
		cfg:              cfg,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SessionManager) Establish(ctx context.Context, user *entity.User) (*Session, error) {
	return m.establishWithRepo(ctx, m.refreshTokenRepo, user)
}

// Terminate ends the session behind claims. The refresh token is deleted and
// the access token is denied until it would have expired.
func (m *SessionManager) Terminate(ctx context.Context, claims *Claims, refreshToken string) error {
	if claims == nil {
		return ErrInvalidSession
	}

	if refreshToken != "" {
		if _, err := m.refreshTokenRepo.DeleteByToken(ctx, refreshToken, claims.UserID); err != nil {
			return err
		}
	}

	if claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	return m.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// RevokeAll drops every refresh token of the user.
func (m *SessionManager) RevokeAll(ctx context.Context, userID uint64) error {
	return m.refreshTokenRepo.DeleteByUserID(ctx, userID)
}

func (m *SessionManager) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRefreshRepo := repository.NewRefreshTokenRepository(tx)

	token, err := txRefreshRepo.FindByTokenForUpdate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if token == nil || token.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidSession
	}

	txUserRepo := repository.NewUserRepository(tx)
	user, err := txUserRepo.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidSession
	}

	rowsDeleted, err := txRefreshRepo.DeleteByToken(ctx, refreshToken, token.UserID)
	if err != nil {
		return nil, err
	}
	if rowsDeleted == 0 {
		return nil, ErrInvalidSession
	}

	session, err := m.establishWithRepo(ctx, txRefreshRepo, user)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *SessionManager) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSession
	}

	revoked, err := m.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("failed to check session denylist")
		return nil, err
	}
	if revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}

func (m *SessionManager) establishWithRepo(ctx context.Context, repo refreshTokenCreator, user *entity.User) (*Session, error) {
	accessToken, err := m.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	tokenString := uuid.New().String()
	now := time.Now()
	refreshToken := &entity.RefreshToken{
		UserID:    user.ID,
		Token:     tokenString,
		ExpiresAt: now.Add(m.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}
	if err = repo.Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: tokenString,
		ExpiresIn:    int64(m.cfg.AccessTokenTTL.Seconds()),
		User:         user,
	}, nil
}

func (m *SessionManager) generateAccessToken(user *entity.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.Email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.Secret))
}
