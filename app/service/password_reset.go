package service

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/notify"
	"github.com/vibast-solutions/ms-go-hackauth/app/token"
	"github.com/vibast-solutions/ms-go-hackauth/config"
)

type sessionRevoker interface {
	RevokeAll(ctx context.Context, userID uint64) error
}

// PasswordResetService replaces a forgotten password through an emailed link.
// A reset token dies with the password hash it was issued against.
type PasswordResetService struct {
	accounts AccountDirectory
	codec    TokenCodec
	notifier notify.Notifier
	mailer   *Mailer
	sessions sessionRevoker
	policy   config.PasswordPolicy
}

func NewPasswordResetService(
	accounts AccountDirectory,
	codec TokenCodec,
	notifier notify.Notifier,
	mailer *Mailer,
	sessions sessionRevoker,
	policy config.PasswordPolicy,
) *PasswordResetService {
	return &PasswordResetService{
		accounts: accounts,
		codec:    codec,
		notifier: notifier,
		mailer:   mailer,
		sessions: sessions,
		policy:   policy,
	}
}

// RequestReset emails a reset link. Unknown emails get ErrNoSuchAccount and
// nothing is sent; hiding that from the requester is up to the caller.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNoSuchAccount
	}

	value, err := s.codec.Issue(user, token.PurposePasswordReset)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, s.mailer.ResetMessage(user, value))
}

// CheckLink reports whether the link may be used to set a password.
func (s *PasswordResetService) CheckLink(ctx context.Context, ref, value string) (bool, error) {
	user, err := s.resolve(ctx, ref)
	if err != nil || user == nil {
		return false, err
	}
	return s.codec.Validate(user, token.PurposePasswordReset, value), nil
}

func (s *PasswordResetService) Confirm(ctx context.Context, ref, value, newPassword string) error {
	user, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}
	if user == nil || !s.codec.Validate(user, token.PurposePasswordReset, value) {
		return ErrTokenExpiredOrInvalid
	}

	if err = s.policy.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	if err = s.accounts.SetPassword(ctx, user, newPassword); err != nil {
		return err
	}
	return s.sessions.RevokeAll(ctx, user.ID)
}

// resolve returns nil without error when ref is malformed or the user is gone.
func (s *PasswordResetService) resolve(ctx context.Context, ref string) (*entity.User, error) {
	id, err := token.DecodeUserRef(ref)
	if err != nil {
		return nil, nil
	}
	return s.accounts.FindByID(ctx, id)
}
