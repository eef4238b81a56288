// Package notify delivers outbound email to users.
package notify

import (
	"context"
	"errors"
)

var ErrNoRecipients = errors.New("message has no recipients")

type Message struct {
	To      []string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
