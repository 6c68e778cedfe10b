package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// defaultScope requests the application permissions granted to the client.
const defaultScope = "https://graph.microsoft.com/.default"

// tokenExpiryBuffer is subtracted from the reported lifetime so a token is
// never used right before it expires.
const tokenExpiryBuffer = 5 * time.Minute

// ClientCredentials issues Graph access tokens with the OAuth2 client
// credentials grant and caches them until shortly before expiry. It
// implements identity.TokenSource; the audience is used as the scope.
type ClientCredentials struct {
	mu          sync.Mutex
	accessToken string
	scope       string
	expiresAt   time.Time

	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	now          func() time.Time
}

// NewClientCredentials creates a token source for the given tenant.
func NewClientCredentials(tenantID, clientID, clientSecret string, httpClient *http.Client) *ClientCredentials {
	tokenURL := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenantID)
	return newClientCredentials(tokenURL, clientID, clientSecret, httpClient)
}

func newClientCredentials(tokenURL, clientID, clientSecret string, httpClient *http.Client) *ClientCredentials {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ClientCredentials{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		now:          time.Now,
	}
}

// FetchToken returns a cached token for scope or acquires a new one.
// It is safe for concurrent use.
func (c *ClientCredentials) FetchToken(ctx context.Context, scope string) (string, error) {
	if scope == "" {
		scope = defaultScope
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.scope == scope && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	return c.refresh(ctx, scope)
}

// refresh acquires a new token. The caller must hold c.mu.
func (c *ClientCredentials) refresh(ctx context.Context, scope string) (string, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"scope":         {scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.accessToken = tokenResp.AccessToken
	c.scope = scope
	c.expiresAt = c.now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryBuffer)

	return c.accessToken, nil
}
