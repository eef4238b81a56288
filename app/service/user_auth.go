package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/sirupsen/logrus"
)

type SignupRequest struct {
	Email    string
	Password string
	Name     string
}

type lastLoginRecorder interface {
	UpdateLastLogin(ctx context.Context, userID uint64, lastLogin time.Time) error
}

type sessionLifecycle interface {
	Establish(ctx context.Context, user *entity.User) (*Session, error)
	Terminate(ctx context.Context, claims *Claims, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
}

type AsyncRunner func(task func())

type UserAuthServiceOption func(*UserAuthService)

// WithAsyncRunner replaces the goroutine used for post-login bookkeeping.
func WithAsyncRunner(runner AsyncRunner) UserAuthServiceOption {
	return func(s *UserAuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

// UserAuthService covers password sign up, sign in and sign out.
type UserAuthService struct {
	accounts    AccountDirectory
	lastLogins  lastLoginRecorder
	sessions    sessionLifecycle
	policy      config.PasswordPolicy
	asyncRunner AsyncRunner
}

func NewUserAuthService(
	accounts AccountDirectory,
	lastLogins lastLoginRecorder,
	sessions sessionLifecycle,
	policy config.PasswordPolicy,
	opts ...UserAuthServiceOption,
) *UserAuthService {
	svc := &UserAuthService{
		accounts:   accounts,
		lastLogins: lastLogins,
		sessions:   sessions,
		policy:     policy,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *UserAuthService) Signup(ctx context.Context, current *entity.User, req SignupRequest) (*Session, error) {
	if current != nil {
		return nil, ErrAlreadyAuthenticated
	}

	existing, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	if err = s.policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	user, err := s.accounts.Create(ctx, req.Email, req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}
	return s.sessions.Establish(ctx, user)
}

func (s *UserAuthService) Login(ctx context.Context, current *entity.User, email, password string) (*Session, error) {
	if current != nil {
		return nil, ErrAlreadyAuthenticated
	}

	user, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// Signed links embed last_login at second precision.
	lastLogin := time.Now().Truncate(time.Second)
	s.asyncRunner(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if updateErr := s.lastLogins.UpdateLastLogin(updateCtx, user.ID, lastLogin); updateErr != nil {
			logrus.WithError(updateErr).WithField("user_id", user.ID).Error("failed to update last_login")
		}
	})

	return s.sessions.Establish(ctx, user)
}

func (s *UserAuthService) Logout(ctx context.Context, claims *Claims, refreshToken string) error {
	return s.sessions.Terminate(ctx, claims, refreshToken)
}

func (s *UserAuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidSession
	}
	return s.sessions.Refresh(ctx, refreshToken)
}
