// Package token issues and validates the signed, time-limited links sent to
// users by email.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"

	"github.com/golang-jwt/jwt/v5"
)

type Purpose string

const (
	PurposeEmailVerify   Purpose = "email_verify"
	PurposePasswordReset Purpose = "password_reset"
)

var (
	ErrUnknownPurpose = errors.New("unknown token purpose")
	ErrMissingUser    = errors.New("token requires a user")
)

type Clock func() time.Time

type Option func(*Codec)

// WithClock replaces time.Now, mostly for tests.
func WithClock(clock Clock) Option {
	return func(c *Codec) {
		if clock != nil {
			c.now = clock
		}
	}
}

type claims struct {
	UserID      uint64 `json:"uid"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// Codec binds a user id and a per-purpose fingerprint of the user's state
// into an HS256 token. Tokens are never stored: changing any fingerprinted
// field invalidates every outstanding token of that purpose.
type Codec struct {
	secret []byte
	ttls   map[Purpose]time.Duration
	now    Clock
}

func NewCodec(secret string, verifyTTL, resetTTL time.Duration, opts ...Option) *Codec {
	c := &Codec{
		secret: []byte(secret),
		ttls: map[Purpose]time.Duration{
			PurposeEmailVerify:   verifyTTL,
			PurposePasswordReset: resetTTL,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Codec) TTL(purpose Purpose) time.Duration {
	return c.ttls[purpose]
}

func (c *Codec) Issue(user *entity.User, purpose Purpose) (string, error) {
	if user == nil {
		return "", ErrMissingUser
	}
	ttl, ok := c.ttls[purpose]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPurpose, purpose)
	}

	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		UserID:      user.ID,
		Fingerprint: c.fingerprint(user, purpose),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{string(purpose)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(c.key(purpose))
}

// Validate reports whether value was issued for user and purpose, is not
// expired and still matches the user's current fingerprint. It never panics
// and has no side effects.
func (c *Codec) Validate(user *entity.User, purpose Purpose, value string) bool {
	if user == nil || value == "" {
		return false
	}
	if _, ok := c.ttls[purpose]; !ok {
		return false
	}

	parsed := &claims{}
	tok, err := jwt.ParseWithClaims(value, parsed, func(*jwt.Token) (interface{}, error) {
		return c.key(purpose), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(purpose)),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !tok.Valid {
		return false
	}
	if parsed.UserID != user.ID {
		return false
	}

	expected := c.fingerprint(user, purpose)
	return hmac.Equal([]byte(parsed.Fingerprint), []byte(expected))
}

// key derives a distinct signing key per purpose so a token minted for one
// purpose never verifies under another.
func (c *Codec) key(purpose Purpose) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte("hackauth/token/" + string(purpose)))
	return mac.Sum(nil)
}

func (c *Codec) fingerprint(user *entity.User, purpose Purpose) string {
	var lastLogin int64
	if user.LastLogin.Valid {
		lastLogin = user.LastLogin.Time.Unix()
	}

	var state string
	switch purpose {
	case PurposeEmailVerify:
		state = fmt.Sprintf("%d|%t|%d", user.ID, user.EmailVerified, lastLogin)
	case PurposePasswordReset:
		state = fmt.Sprintf("%d|%s|%d", user.ID, user.PasswordHash, lastLogin)
	}

	mac := hmac.New(sha256.New, c.key(purpose))
	mac.Write([]byte(state))
	return hex.EncodeToString(mac.Sum(nil))
}
