package notify

import (
	"errors"
	"fmt"

	"github.com/emersion/go-message/mail"
)

// Message is a notification email. Bcc addresses are only given to the relay, they never
// appear in the headers.
type Message struct {
	To         []string
	Cc         []string
	Bcc        []string
	Subject    string
	Body       string
	IsHTML     bool
	Attachment string // Path of a file to attach, if any
	Sender     string // Falls back to the mailer's default sender when empty
}

// Validate checks the message can be sent. All problems are reported together.
func (m *Message) Validate() error {
	var errs []error
	if m.Subject == "" {
		errs = append(errs, errors.New("subject is required"))
	}
	if m.Body == "" {
		errs = append(errs, errors.New("body is required"))
	}
	if len(m.To)+len(m.Cc)+len(m.Bcc) == 0 {
		errs = append(errs, errors.New("at least one recipient is required"))
	}

	for _, group := range [][]string{m.To, m.Cc, m.Bcc} {
		for _, addr := range group {
			if _, err := mail.ParseAddress(addr); err != nil {
				errs = append(errs, fmt.Errorf("invalid recipient '%s': %w", addr, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Recipients returns every envelope recipient in to, cc, bcc order
func (m *Message) Recipients() []string {
	recipients := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	recipients = append(recipients, m.To...)
	recipients = append(recipients, m.Cc...)
	return append(recipients, m.Bcc...)
}
