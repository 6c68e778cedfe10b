package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shineum/submission-relay/internal/email"
	"github.com/shineum/submission-relay/internal/identity"
)

// Config holds the configuration for creating a Graph Provider.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// Sender is the mailbox the message is sent as.
	Sender string
}

// APIError is a non-success response from the sendMail endpoint.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("Graph API error (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Provider sends email through Microsoft Graph with a single request per
// message.
type Provider struct {
	sendURL    string
	httpClient *http.Client
	tokens     identity.TokenSource
}

// New creates a Graph Provider authenticating with client credentials.
func New(cfg Config) *Provider {
	client := &http.Client{Timeout: 30 * time.Second}
	return &Provider{
		sendURL:    sendMailURL("https://graph.microsoft.com", cfg.Sender),
		httpClient: client,
		tokens:     NewClientCredentials(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, client),
	}
}

// newWithOverrides creates a Provider with a custom base URL, token source
// and HTTP client, used for testing.
func newWithOverrides(baseURL, sender string, tokens identity.TokenSource, client *http.Client) *Provider {
	return &Provider{
		sendURL:    sendMailURL(baseURL, sender),
		httpClient: client,
		tokens:     tokens,
	}
}

func sendMailURL(baseURL, sender string) string {
	return fmt.Sprintf("%s/v1.0/users/%s/sendMail", baseURL, url.PathEscape(sender))
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "msgraph"
}

// Send delivers msg with one sendMail request. Graph assigns no message id
// in its response, so a local one is generated for the result.
func (p *Provider) Send(ctx context.Context, msg *email.Message) (*email.Result, error) {
	bodyJSON, err := json.Marshal(buildSendMailRequest(msg))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	token, err := p.tokens.FetchToken(ctx, defaultScope)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.sendURL, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Graph API request failed: %w", err)
	}
	defer resp.Body.Close()

	// HTTP 202 Accepted is success for sendMail
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		messageID := email.NewMessageID()
		slog.Debug("message accepted by Graph API", "message_id", messageID)
		return email.LocalResult(msg, messageID, "accepted by Microsoft Graph"), nil
	}

	body, _ := io.ReadAll(resp.Body)
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}

	var errResp graphErrorResponse
	if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
		apiErr.Code = errResp.Error.Code
		apiErr.Message = errResp.Error.Message
	}

	return nil, apiErr
}
