// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/shineum/submission-relay/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider makes exactly one delivery attempt per Send call; retrying
// is left to the person resubmitting.
type Provider interface {
	// Send delivers an email message through this provider and returns the
	// backend's delivery result.
	Send(ctx context.Context, msg *email.Message) (*email.Result, error)

	// Name returns the human-readable name of this provider.
	Name() string
}
