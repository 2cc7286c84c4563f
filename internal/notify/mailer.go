package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/smtp"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog/log"
)

// Mailer sends a notification email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SendFunc relays a composed message, it has the signature of smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer relays mails to an SMTP server without authentication
type SMTPMailer struct {
	addr   string
	sender string
	send   SendFunc
	now    func() time.Time
}

// NewSMTPMailer creates a mailer for the relay at addr (host:port). sender is used for
// messages that do not set their own.
func NewSMTPMailer(addr, sender string) *SMTPMailer {
	return &SMTPMailer{addr: addr, sender: sender, send: smtp.SendMail, now: time.Now}
}

// WithSendFunc replaces the function used to relay the composed message
func (m *SMTPMailer) WithSendFunc(send SendFunc) *SMTPMailer {
	m.send = send
	return m
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.Sender == "" {
		msg.Sender = m.sender
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := Compose(msg, m.now())
	if err != nil {
		return fmt.Errorf("could not compose email: %w", err)
	}

	if err := m.send(m.addr, nil, msg.Sender, msg.Recipients(), raw); err != nil {
		log.Error().Err(err).Str("relay", m.addr).Str("subject", msg.Subject).Msg("Could not send email")
		return fmt.Errorf("could not send email through %s: %w", m.addr, err)
	}

	log.Info().
		Str("subject", msg.Subject).
		Strs("to", msg.To).
		Strs("cc", msg.Cc).
		Int("bcc", len(msg.Bcc)).
		Msg("Email sent")
	return nil
}

// Compose writes msg as a multipart MIME message. The body is the first part, the
// attachment (if any) follows as a base64 encoded part named after the file.
func Compose(msg Message, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetSubject(msg.Subject)

	from, err := mail.ParseAddress(msg.Sender)
	if err != nil {
		return nil, fmt.Errorf("invalid sender '%s': %w", msg.Sender, err)
	}
	h.SetAddressList("From", []*mail.Address{from})

	for key, group := range map[string][]string{"To": msg.To, "Cc": msg.Cc} {
		if len(group) == 0 {
			continue
		}
		addrs, err := parseAddresses(group)
		if err != nil {
			return nil, err
		}
		h.SetAddressList(key, addrs)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	if err := writeBody(mw, msg); err != nil {
		return nil, err
	}

	if msg.Attachment != "" {
		if err := writeAttachment(mw, msg.Attachment); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBody(mw *mail.Writer, msg Message) error {
	var ih mail.InlineHeader
	contentType := "text/plain"
	if msg.IsHTML {
		contentType = "text/html"
	}
	ih.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ih.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := mw.CreateSingleInline(ih)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return err
	}
	return w.Close()
}

func writeAttachment(mw *mail.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read attachment: %w", err)
	}

	var ah mail.AttachmentHeader
	ah.SetContentType("application/octet-stream", nil)
	ah.Set("Content-Transfer-Encoding", "base64")
	ah.SetFilename(filepath.Base(path))

	w, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := w.Write(content); err != nil {
		return err
	}
	return w.Close()
}

func parseAddresses(values []string) ([]*mail.Address, error) {
	addrs := make([]*mail.Address, 0, len(values))
	for _, value := range values {
		addr, err := mail.ParseAddress(value)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient '%s': %w", value, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
