package service

import (
	"fmt"

	"github.com/vibast-solutions/ms-go-hackauth/app/entity"
	"github.com/vibast-solutions/ms-go-hackauth/app/notify"
	"github.com/vibast-solutions/ms-go-hackauth/app/token"
	"github.com/vibast-solutions/ms-go-hackauth/config"
)

// Mailer renders the emails carrying signed links.
type Mailer struct {
	siteURL   string
	eventName string
}

func NewMailer(site config.SiteConfig) *Mailer {
	return &Mailer{siteURL: site.URL, eventName: site.EventName}
}

func (m *Mailer) VerifyLink(user *entity.User, value string) string {
	return fmt.Sprintf("%s/user/verify/%s/%s", m.siteURL, token.EncodeUserRef(user.ID), value)
}

func (m *Mailer) ResetLink(user *entity.User, value string) string {
	return fmt.Sprintf("%s/user/password/reset/%s/%s", m.siteURL, token.EncodeUserRef(user.ID), value)
}

func (m *Mailer) VerificationMessage(user *entity.User, value string) notify.Message {
	return notify.Message{
		To:      []string{user.Email},
		Subject: fmt.Sprintf("[%s] Verify your email", m.eventName),
		Body: fmt.Sprintf("Hi %s,\n\nPlease confirm your email address for %s by opening this link:\n\n%s\n",
			displayName(user), m.eventName, m.VerifyLink(user, value)),
	}
}

func (m *Mailer) ResetMessage(user *entity.User, value string) notify.Message {
	return notify.Message{
		To:      []string{user.Email},
		Subject: fmt.Sprintf("[%s] Password reset", m.eventName),
		Body: fmt.Sprintf("Hi %s,\n\nSomeone asked to reset the password of your %s account. "+
			"If it was you, choose a new password here:\n\n%s\n\nOtherwise you can ignore this email.\n",
			displayName(user), m.eventName, m.ResetLink(user, value)),
	}
}

func displayName(user *entity.User) string {
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
