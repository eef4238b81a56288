package service

import (
	"errors"
)

var (
	ErrAlreadyVerified       = errors.New("email is already verified")
	ErrUserResolution        = errors.New("user could not be resolved")
	ErrIdentityMismatch      = errors.New("link belongs to a different user")
	ErrTokenExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrNoSuchAccount         = errors.New("no account with that email")
	ErrMissingAuthCode       = errors.New("authorization code is missing")
	ErrProviderAuthFailed    = errors.New("identity provider authentication failed")
	ErrDuplicateAccount      = errors.New("an account with this email already exists")
	ErrProviderNotConfigured = errors.New("identity provider is not configured")
	ErrWeakPassword          = errors.New("password does not meet policy requirements")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAlreadyAuthenticated  = errors.New("already authenticated")
	ErrInvalidSession        = errors.New("invalid or expired session")
)

// Outcome names the result of a flow for callers that render or count
// results instead of branching on errors.
type Outcome string

const (
	OutcomeSuccess               Outcome = "success"
	OutcomeAlreadyVerified       Outcome = "already_verified"
	OutcomeUserResolutionError   Outcome = "user_resolution_error"
	OutcomeIdentityMismatch      Outcome = "identity_mismatch"
	OutcomeTokenExpiredOrInvalid Outcome = "token_expired_or_invalid"
	OutcomeNoSuchAccount         Outcome = "no_such_account"
	OutcomeMissingAuthCode       Outcome = "missing_auth_code"
	OutcomeProviderAuthFailed    Outcome = "provider_auth_failed"
	OutcomeDuplicateAccount      Outcome = "duplicate_account"
	OutcomeProviderNotConfigured Outcome = "provider_not_configured"
	OutcomeWeakPassword          Outcome = "weak_password"
	OutcomeInvalidCredentials    Outcome = "invalid_credentials"
	OutcomeAlreadyAuthenticated  Outcome = "already_authenticated"
	OutcomeInvalidSession        Outcome = "invalid_session"
	OutcomeInternal              Outcome = "internal"
)

var outcomes = []struct {
	err     error
	outcome Outcome
}{
	{ErrAlreadyVerified, OutcomeAlreadyVerified},
	{ErrUserResolution, OutcomeUserResolutionError},
	{ErrIdentityMismatch, OutcomeIdentityMismatch},
	{ErrTokenExpiredOrInvalid, OutcomeTokenExpiredOrInvalid},
	{ErrNoSuchAccount, OutcomeNoSuchAccount},
	{ErrMissingAuthCode, OutcomeMissingAuthCode},
	{ErrProviderAuthFailed, OutcomeProviderAuthFailed},
	{ErrDuplicateAccount, OutcomeDuplicateAccount},
	{ErrProviderNotConfigured, OutcomeProviderNotConfigured},
	{ErrWeakPassword, OutcomeWeakPassword},
	{ErrInvalidCredentials, OutcomeInvalidCredentials},
	{ErrAlreadyAuthenticated, OutcomeAlreadyAuthenticated},
	{ErrInvalidSession, OutcomeInvalidSession},
}

// OutcomeOf maps nil to OutcomeSuccess, a flow error to its outcome and
// anything else to OutcomeInternal.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.outcome
		}
	}
	return OutcomeInternal
}
