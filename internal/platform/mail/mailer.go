// Package mail sends transactional email with optional attachments over SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
)

// Attachment is an in-memory file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message describes one outgoing email.
type Message struct {
	To          []string
	Cc          []string
	ReplyTo     string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer wraps SMTP configuration for sending emails with PDF attachments.
type Mailer struct {
	cfg  Config
	addr string
}

// NewMailer builds an SMTP mailer.
func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, addr: cfg.Host + ":" + strconv.Itoa(cfg.Port)}
}

// Send delivers msg. The context is only checked before dialing; net/smtp has no deadline hook.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := m.build(msg)
	if err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mail: send %q: %w", msg.Subject, err)
	}
	return nil
}

func (m *Mailer) build(msg Message) (*email.Email, error) {
	if len(msg.To) == 0 {
		return nil, errors.New("mail: at least one recipient required")
	}
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = msg.To
	e.Cc = msg.Cc
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}
	for _, a := range msg.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if _, err := e.Attach(bytes.NewReader(a.Data), a.Filename, contentType); err != nil {
			return nil, fmt.Errorf("mail: attach %s: %w", a.Filename, err)
		}
	}
	return e, nil
}

// LogSender records messages instead of delivering them. Used when SMTP is not configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the message envelope.
func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail suppressed",
		slog.Any("to", msg.To),
		slog.Any("cc", msg.Cc),
		slog.String("subject", msg.Subject),
		slog.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
