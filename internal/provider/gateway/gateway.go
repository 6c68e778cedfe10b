// Package gateway implements a Provider that relays email through the
// platform connectors mailer API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shineum/submission-relay/internal/email"
	"github.com/shineum/submission-relay/internal/identity"
)

// HostnameSetting is the environment variable naming the connectors host.
const HostnameSetting = "REPLIT_CONNECTORS_HOSTNAME"

// sendPath is the mailer endpoint relative to the connectors host.
const sendPath = "/api/v2/mailer/send"

// authHeader carries the bearer credential.
const authHeader = "Replit-Authentication"

// Config holds the configuration for creating a gateway Provider.
type Config struct {
	// Hostname is the connectors host, without scheme. An empty hostname is
	// accepted here and reported as a ConfigurationError on every Send.
	Hostname string

	// Tokens issues the bearer token for each send.
	Tokens identity.TokenSource

	// HTTPClient defaults to a client with no timeout override.
	HTTPClient *http.Client
}

// Provider sends email through the connectors mailer. A fresh credential is
// fetched for every message and each message is sent exactly once.
type Provider struct {
	hostname   string
	baseURL    string
	tokens     identity.TokenSource
	httpClient *http.Client
}

// New creates a gateway Provider.
func New(cfg Config) *Provider {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Provider{
		hostname:   cfg.Hostname,
		tokens:     cfg.Tokens,
		httpClient: client,
	}
}

// newWithOverrides creates a Provider that posts to baseURL instead of
// https://<hostname>, used for testing.
func newWithOverrides(cfg Config, baseURL string, client *http.Client) *Provider {
	p := New(cfg)
	p.baseURL = baseURL
	if client != nil {
		p.httpClient = client
	}
	return p
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gateway"
}

// Send delivers msg with a single POST to the mailer endpoint. Message
// contents are not validated locally; the gateway is the source of truth.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (*email.Result, error) {
	cred, err := p.credential(ctx)
	if err != nil {
		return nil, err
	}

	bodyJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(cred.Hostname), bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, cred.AuthToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &DeliveryError{
			Message: fmt.Sprintf("mail gateway request failed: %v", err),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DeliveryError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read mail gateway response: %v", err),
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		derr := parseDeliveryError(resp.StatusCode, body)
		slog.Debug("mail gateway rejected message",
			"status", resp.StatusCode,
			"message", derr.Message,
		)
		return nil, derr
	}

	var result email.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse mail gateway response: %w", err)
	}

	return &result, nil
}

// credential resolves the host and fetches a token scoped to it.
func (p *Provider) credential(ctx context.Context) (*Credential, error) {
	if p.hostname == "" {
		return nil, &ConfigurationError{Setting: HostnameSetting}
	}

	audience := "https://" + p.hostname
	if p.tokens == nil {
		return nil, &CredentialError{Audience: audience, Err: identity.ErrNoToken}
	}

	token, err := p.tokens.FetchToken(ctx, audience)
	if err != nil {
		return nil, &CredentialError{Audience: audience, Err: err}
	}
	if token == "" {
		return nil, &CredentialError{Audience: audience, Err: identity.ErrNoToken}
	}

	return &Credential{
		AuthToken: "Bearer " + token,
		Hostname:  p.hostname,
	}, nil
}

func (p *Provider) endpoint(hostname string) string {
	if p.baseURL != "" {
		return p.baseURL + sendPath
	}
	return "https://" + hostname + sendPath
}
