// Package stdout implements a Provider that prints emails to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/shineum/submission-relay/internal/email"
)

// Provider prints email messages in a human-readable format. It is meant
// for local development where no mail backend is configured.
type Provider struct {
	mu sync.Mutex
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message. Concurrent sends are serialized so their output
// does not interleave.
func (p *Provider) Send(_ context.Context, msg *email.Message) (*email.Result, error) {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("To: %s\n", msg.To))

	if msg.Cc != "" {
		b.WriteString(fmt.Sprintf("Cc: %s\n", msg.Cc))
	}
	if msg.Bcc != "" {
		b.WriteString(fmt.Sprintf("Bcc: %s\n", msg.Bcc))
	}

	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	b.WriteString("Body:\n")

	body := msg.Text
	if body == "" {
		body = msg.HTML
	}
	b.WriteString(body + "\n")

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			data, err := att.Decode()
			if err != nil {
				return nil, err
			}
			attachments = append(attachments, fmt.Sprintf("%s (%s)", att.Filename, formatSize(len(data))))
		}
		b.WriteString(fmt.Sprintf("Attachments: %s\n", strings.Join(attachments, ", ")))
	}

	b.WriteString("========================================\n")

	p.mu.Lock()
	_, err := fmt.Fprint(p.writer, b.String())
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write message: %w", err)
	}

	return email.LocalResult(msg, email.NewMessageID(), "printed to stdout"), nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
