package http

import (
	"errors"
	"strings"
)

var (
	errEmailRequired        = errors.New("email is required")
	errPasswordRequired     = errors.New("password is required")
	errRefreshTokenRequired = errors.New("refresh_token is required")
	errPasswordsDiffer      = errors.New("passwords do not match")
)

type SignupRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Name     string `json:"name" form:"name"`
}

func (r *SignupRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errEmailRequired
	}
	if r.Password == "" {
		return errPasswordRequired
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errEmailRequired
	}
	if r.Password == "" {
		return errPasswordRequired
	}
	return nil
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return errRefreshTokenRequired
	}
	return nil
}

type PasswordResetRequest struct {
	Email string `json:"email" form:"email"`
}

func (r *PasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errEmailRequired
	}
	return nil
}

// SetPasswordRequest carries a new password typed twice. It is used by the
// reset confirmation and by provider signup.
type SetPasswordRequest struct {
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

func (r *SetPasswordRequest) Validate() error {
	if r.Password == "" {
		return errPasswordRequired
	}
	if r.PasswordConfirmation != "" && r.PasswordConfirmation != r.Password {
		return errPasswordsDiffer
	}
	return nil
}
