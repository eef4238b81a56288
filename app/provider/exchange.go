// Package provider talks to external OAuth-style identity providers.
package provider

import (
	"time"

	"github.com/vibast-solutions/ms-go-hackauth/config"
)

// Exchange is the per-request view of a provider: its static settings plus
// the authorization code and redirect URL of one callback. It is a value so
// the shared configuration is never mutated.
type Exchange struct {
	name         string
	clientID     string
	clientSecret string
	tokenURL     string
	userURL      string
	timeout      time.Duration
	code         string
	redirectURL  string
}

func NewExchange(cfg config.ProviderConfig, code, redirectURL string) Exchange {
	return Exchange{
		name:         cfg.Name,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		userURL:      cfg.UserURL,
		timeout:      cfg.Timeout,
		code:         code,
		redirectURL:  redirectURL,
	}
}

func (e Exchange) Name() string {
	return e.name
}

func (e Exchange) Code() string {
	return e.code
}

func (e Exchange) RedirectURL() string {
	return e.redirectURL
}
