// Package smtprelay implements a Provider that hands messages to an
// authenticated SMTP submission server.
package smtprelay

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	jemail "github.com/jordan-wright/email"

	"github.com/shineum/submission-relay/internal/email"
)

// Config holds the configuration for creating an SMTP relay Provider.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
}

// Provider sends each message with one SMTP transaction using STARTTLS.
type Provider struct {
	cfg  Config
	send func(e *jemail.Email) error
}

// New creates an SMTP relay Provider.
func New(cfg Config) *Provider {
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	p := &Provider{cfg: cfg}
	p.send = p.sendStartTLS
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// Send builds the MIME message and submits it. net/smtp has no context
// support, so a started transaction runs to completion.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (*email.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e, messageID, err := p.build(msg)
	if err != nil {
		return nil, err
	}

	if err := p.send(e); err != nil {
		return nil, fmt.Errorf("failed to send email via %s: %w", p.addr(), err)
	}

	return email.LocalResult(msg, messageID, "accepted by "+p.cfg.Host), nil
}

// build converts msg into a jordan-wright email with a fresh Message-Id.
func (p *Provider) build(msg *email.Message) (*jemail.Email, string, error) {
	e := jemail.NewEmail()
	e.From = p.cfg.Sender
	e.Subject = msg.Subject

	if msg.To != "" {
		e.To = []string{msg.To}
	}
	if msg.Cc != "" {
		e.Cc = []string{msg.Cc}
	}
	if msg.Bcc != "" {
		e.Bcc = []string{msg.Bcc}
	}
	if msg.Text != "" {
		e.Text = []byte(msg.Text)
	}
	if msg.HTML != "" {
		e.HTML = []byte(msg.HTML)
	}

	for _, att := range msg.Attachments {
		data, err := att.Decode()
		if err != nil {
			return nil, "", err
		}
		if _, err := e.Attach(bytes.NewReader(data), att.Filename, att.ContentType); err != nil {
			return nil, "", fmt.Errorf("failed to attach %q: %w", att.Filename, err)
		}
	}

	messageID := email.NewMessageID()
	e.Headers.Set("Message-Id", messageID)

	return e, messageID, nil
}

func (p *Provider) sendStartTLS(e *jemail.Email) error {
	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	}
	return e.SendWithStartTLS(p.addr(), auth, &tls.Config{
		ServerName: p.cfg.Host,
		MinVersion: tls.VersionTLS12,
	})
}

func (p *Provider) addr() string {
	return net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
}
