// Package spool implements a Provider that writes each message as an .eml
// file into a directory instead of sending it.
package spool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/shineum/submission-relay/internal/email"
)

// Provider writes RFC 5322 files to Dir. Bcc is kept as a header so the
// spool is a complete record of what would have been sent.
type Provider struct {
	dir    string
	sender string
	now    func() time.Time
}

// New creates a spool Provider. The directory is created if missing.
func New(dir, sender string) (*Provider, error) {
	if dir == "" {
		return nil, fmt.Errorf("spool directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}
	return &Provider{dir: dir, sender: sender, now: time.Now}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "spool"
}

// Dir returns the spool directory.
func (p *Provider) Dir() string {
	return p.dir
}

// Send renders msg and writes it atomically to the spool directory.
func (p *Provider) Send(_ context.Context, msg *email.Message) (*email.Result, error) {
	messageID := email.NewMessageID()

	var buf bytes.Buffer
	if err := p.render(&buf, msg, messageID); err != nil {
		return nil, err
	}

	path, err := p.write(buf.Bytes(), messageID)
	if err != nil {
		return nil, err
	}

	return email.LocalResult(msg, messageID, "spooled to "+path), nil
}

func (p *Provider) render(w io.Writer, msg *email.Message, messageID string) error {
	var h mail.Header
	h.SetDate(p.now())
	h.SetSubject(msg.Subject)
	h.SetMessageID(strings.Trim(messageID, "<>"))
	setAddress(&h, "From", p.sender)
	setAddress(&h, "To", msg.To)
	setAddress(&h, "Cc", msg.Cc)
	setAddress(&h, "Bcc", msg.Bcc)

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("failed to create message writer: %w", err)
	}

	if err := writeBody(mw, msg); err != nil {
		return err
	}

	for _, att := range msg.Attachments {
		data, err := att.Decode()
		if err != nil {
			return err
		}

		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		var ah mail.AttachmentHeader
		ah.SetContentType(contentType, map[string]string{"charset": "utf-8"})
		ah.SetFilename(att.Filename)

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("failed to create attachment part: %w", err)
		}
		if _, err := aw.Write(data); err != nil {
			return fmt.Errorf("failed to write attachment: %w", err)
		}
		if err := aw.Close(); err != nil {
			return fmt.Errorf("failed to close attachment: %w", err)
		}
	}

	return mw.Close()
}

func writeBody(mw *mail.Writer, msg *email.Message) error {
	tw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("failed to create inline part: %w", err)
	}

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}

	for _, part := range parts {
		if part.content == "" {
			continue
		}
		var th mail.InlineHeader
		th.SetContentType(part.contentType, map[string]string{"charset": "utf-8"})
		pw, err := tw.CreatePart(th)
		if err != nil {
			return fmt.Errorf("failed to create %s part: %w", part.contentType, err)
		}
		if _, err := io.WriteString(pw, part.content); err != nil {
			return fmt.Errorf("failed to write %s part: %w", part.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return err
		}
	}

	return tw.Close()
}

func setAddress(h *mail.Header, key, addr string) {
	if addr == "" {
		return
	}
	h.SetAddressList(key, []*mail.Address{{Address: addr}})
}

// write stores data under a name derived from the send time and message id.
func (p *Provider) write(data []byte, messageID string) (string, error) {
	id := strings.TrimSuffix(strings.Trim(messageID, "<>"), "@submission-relay")
	name := fmt.Sprintf("%s-%s.eml", p.now().UTC().Format("20060102T150405Z"), id)

	tmp, err := os.CreateTemp(p.dir, ".spool-*")
	if err != nil {
		return "", fmt.Errorf("failed to create spool file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write spool file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close spool file: %w", err)
	}

	path := filepath.Join(p.dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move spool file into place: %w", err)
	}

	return path, nil
}
