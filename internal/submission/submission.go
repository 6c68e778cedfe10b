// Package submission builds personalized citizen submission emails and hands
// them to a delivery provider.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/shineum/submission-relay/internal/email"
	"github.com/shineum/submission-relay/internal/metrics"
	"github.com/shineum/submission-relay/internal/provider"
)

// Request carries the submitter's identity. Both fields are optional.
type Request struct {
	SenderName string `json:"senderName"`
	SenderID   string `json:"senderId"`
}

func (r Request) name() string {
	if r.SenderName == "" {
		return namePlaceholder
	}
	return r.SenderName
}

func (r Request) id() string {
	if r.SenderID == "" {
		return idPlaceholder
	}
	return r.SenderID
}

// Composer renders submission messages from a fixed Config.
type Composer struct {
	cfg    Config
	letter string
}

// NewComposer creates a Composer for cfg.
func NewComposer(cfg Config) *Composer {
	return &Composer{
		cfg:    cfg,
		letter: Letter(),
	}
}

// Config returns the addressing the composer was built with.
func (c *Composer) Config() Config {
	return c.cfg
}

// Body returns the personalized letter that is sent as the attachment.
func (c *Composer) Body(req Request) string {
	return c.letter + closing(req)
}

// CoverNote returns the personalized message text.
func (c *Composer) CoverNote(req Request) string {
	return coverNote + closing(req)
}

// Message builds a new email for req. The returned message is owned by the
// caller.
func (c *Composer) Message(req Request) *email.Message {
	return &email.Message{
		To:      c.cfg.Recipient,
		Bcc:     c.cfg.Bcc,
		Subject: c.cfg.Subject,
		Text:    c.CoverNote(req),
		Attachments: []email.Attachment{
			email.NewTextAttachment(c.cfg.AttachmentName, c.Body(req)),
		},
	}
}

// Dispatcher sends one submission email per call.
type Dispatcher struct {
	composer *Composer
	provider provider.Provider
}

// NewDispatcher creates a Dispatcher delivering through p.
func NewDispatcher(composer *Composer, p provider.Provider) *Dispatcher {
	return &Dispatcher{
		composer: composer,
		provider: p,
	}
}

// Recipient returns the address submissions are sent to.
func (d *Dispatcher) Recipient() string {
	return d.composer.cfg.Recipient
}

// ProviderName returns the delivery backend's name.
func (d *Dispatcher) ProviderName() string {
	return d.provider.Name()
}

// Dispatch composes the submission for req and sends it synchronously with
// a single provider call. Calling it twice sends two emails.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*email.Result, error) {
	msg := d.composer.Message(req)

	start := time.Now()
	result, err := d.provider.Send(ctx, msg)
	metrics.ObserveSend(d.provider.Name(), err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("provider %s returned no result", d.provider.Name())
	}

	return result, nil
}
