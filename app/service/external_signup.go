package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/provider"
	"github.com/vibast-solutions/ms-go-hackauth/app/repository"
	"github.com/vibast-solutions/ms-go-hackauth/config"

	"github.com/sirupsen/logrus"
)

// ApplicationStore keeps hacker applications.
type ApplicationStore interface {
	CreateDraft(ctx context.Context, userID uint64, fields map[string]string) (*entity.DraftApplication, error)
}

// IdentityProvider performs the authorization code round trip.
type IdentityProvider interface {
	ExchangeCode(ctx context.Context, ex provider.Exchange) (string, error)
	FetchProfile(ctx context.Context, ex provider.Exchange, accessToken string) (*provider.Profile, error)
}

type ExternalSignupRequest struct {
	Provider    string
	Code        string
	RedirectURL string
	Password    string
}

// signupStores binds the stores written during a signup to one transaction.
type signupStores func(tx repository.DBTX) (AccountDirectory, ApplicationStore)

// ExternalSignupService creates an account and a draft application from an
// identity provider profile.
type ExternalSignupService struct {
	db        *sql.DB
	accounts  AccountDirectory
	providers map[string]config.ProviderConfig
	client    IdentityProvider
	sessions  sessionEstablisher
	policy    config.PasswordPolicy
	stores    signupStores
}

func NewExternalSignupService(
	db *sql.DB,
	accounts AccountDirectory,
	providers map[string]config.ProviderConfig,
	client IdentityProvider,
	sessions sessionEstablisher,
	password config.PasswordConfig,
) *ExternalSignupService {
	return &ExternalSignupService{
		db:        db,
		accounts:  accounts,
		providers: providers,
		client:    client,
		sessions:  sessions,
		policy:    password.Policy,
		stores: func(tx repository.DBTX) (AccountDirectory, ApplicationStore) {
			return NewAccountDirectory(repository.NewUserRepository(tx), password.BcryptCost),
				repository.NewDraftApplicationRepository(tx)
		},
	}
}

// CheckCallback validates a provider callback before any password is asked
// for: the provider must be configured and the code present.
func (s *ExternalSignupService) CheckCallback(providerName, code string) (config.ProviderConfig, error) {
	cfg, ok := s.providers[strings.ToLower(strings.TrimSpace(providerName))]
	if !ok || !cfg.Configured() {
		return config.ProviderConfig{}, ErrProviderNotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return config.ProviderConfig{}, ErrMissingAuthCode
	}
	return cfg, nil
}

func (s *ExternalSignupService) Signup(ctx context.Context, req ExternalSignupRequest) (*Session, error) {
	cfg, err := s.CheckCallback(req.Provider, req.Code)
	if err != nil {
		return nil, err
	}
	if err = s.policy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	ex := provider.NewExchange(cfg, req.Code, req.RedirectURL)
	accessToken, err := s.client.ExchangeCode(ctx, ex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderAuthFailed, err)
	}
	profile, err := s.client.FetchProfile(ctx, ex, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderAuthFailed, err)
	}

	existing, err := s.accounts.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateAccount
	}

	user, err := s.createAccount(ctx, req.Password, profile)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": ex.Name(),
	}).Info("account created from identity provider")

	return s.sessions.Establish(ctx, user)
}

// createAccount writes the user and the draft application atomically.
func (s *ExternalSignupService) createAccount(ctx context.Context, password string, profile *provider.Profile) (*entity.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	accounts, applications := s.stores(tx)

	user, err := accounts.Create(ctx, profile.Email, password, profile.FullName())
	if err != nil {
		if repository.IsDuplicateEntry(err) {
			return nil, ErrDuplicateAccount
		}
		return nil, err
	}

	if _, err = applications.CreateDraft(ctx, user.ID, draftFields(profile)); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

func draftFields(profile *provider.Profile) map[string]string {
	diet, otherDiet := entity.NormalizeDiet(profile.DietaryRestrictions)
	return map[string]string{
		entity.DraftFieldDegree:      profile.Major,
		entity.DraftFieldUniversity:  profile.School,
		entity.DraftFieldPhoneNumber: profile.PhoneNumber,
		entity.DraftFieldShirtSize:   profile.ShirtSize,
		entity.DraftFieldDiet:        diet,
		entity.DraftFieldOtherDiet:   otherDiet,
	}
}
