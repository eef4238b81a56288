package service

import (
	"context"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/notify"
	"github.com/vibast-solutions/ms-go-hackauth/app/token"
)

// TokenCodec issues and checks emailed link tokens.
type TokenCodec interface {
	Issue(user *entity.User, purpose token.Purpose) (string, error)
	Validate(user *entity.User, purpose token.Purpose, value string) bool
}

type sessionEstablisher interface {
	Establish(ctx context.Context, user *entity.User) (*Session, error)
}

// VerificationService moves a user from unverified to verified through an
// emailed link. Verified is terminal.
type VerificationService struct {
	accounts AccountDirectory
	codec    TokenCodec
	notifier notify.Notifier
	mailer   *Mailer
	sessions sessionEstablisher
}

func NewVerificationService(
	accounts AccountDirectory,
	codec TokenCodec,
	notifier notify.Notifier,
	mailer *Mailer,
	sessions sessionEstablisher,
) *VerificationService {
	return &VerificationService{
		accounts: accounts,
		codec:    codec,
		notifier: notifier,
		mailer:   mailer,
		sessions: sessions,
	}
}

// NeedsVerification returns ErrAlreadyVerified once the email is verified.
func (s *VerificationService) NeedsVerification(user *entity.User) error {
	if user == nil {
		return ErrUserResolution
	}
	if user.EmailVerified {
		return ErrAlreadyVerified
	}
	return nil
}

// RequestVerification emails a fresh verification link. Notifier failures
// are returned unchanged.
func (s *VerificationService) RequestVerification(ctx context.Context, user *entity.User) error {
	if err := s.NeedsVerification(user); err != nil {
		return err
	}

	value, err := s.codec.Issue(user, token.PurposeEmailVerify)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, s.mailer.VerificationMessage(user, value))
}

// Redeem verifies the user referenced by ref when value is still valid for
// them, and signs them in. current is the signed-in user, if any.
func (s *VerificationService) Redeem(ctx context.Context, current *entity.User, ref, value string) (*Session, error) {
	id, err := token.DecodeUserRef(ref)
	if err != nil {
		return nil, ErrUserResolution
	}
	user, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserResolution
	}

	if current != nil && current.ID != user.ID {
		return nil, ErrIdentityMismatch
	}
	if user.EmailVerified {
		return nil, ErrAlreadyVerified
	}
	if !s.codec.Validate(user, token.PurposeEmailVerify, value) {
		return nil, ErrTokenExpiredOrInvalid
	}

	user.EmailVerified = true
	if err = s.accounts.Save(ctx, user); err != nil {
		return nil, err
	}
	return s.sessions.Establish(ctx, user)
}
