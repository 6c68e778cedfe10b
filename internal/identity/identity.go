// Package identity obtains short-lived bearer tokens for calling the mail
// gateway.
package identity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoToken is returned when a source produced an empty token.
var ErrNoToken = errors.New("identity token not found")

// TokenSource issues a bearer token scoped to an audience.
type TokenSource interface {
	FetchToken(ctx context.Context, audience string) (string, error)
}

// Command runs the platform identity helper and reads the token from its
// standard output. The audience is appended as "--audience <audience>".
type Command struct {
	Path string
	Args []string

	// run is replaced in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommand returns a Command invoking "<path> identity create --audience ...".
func NewCommand(path string) *Command {
	if path == "" {
		path = "replit"
	}
	return &Command{
		Path: path,
		Args: []string{"identity", "create"},
		run:  runCommand,
	}
}

// FetchToken invokes the helper once. Anything other than a non-empty
// trimmed stdout fails closed.
func (c *Command) FetchToken(ctx context.Context, audience string) (string, error) {
	args := append(append([]string{}, c.Args...), "--audience", audience)

	run := c.run
	if run == nil {
		run = runCommand
	}

	out, err := run(ctx, c.Path, args...)
	if err != nil {
		return "", fmt.Errorf("identity command %s failed: %w", c.Path, err)
	}

	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Static always returns the same token. It is used for local development
// against a gateway that accepts a pre-issued token, and in tests.
type Static struct {
	Token string
	Err   error
}

// FetchToken returns the configured token or error.
func (s Static) FetchToken(_ context.Context, _ string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.Token == "" {
		return "", ErrNoToken
	}
	return s.Token, nil
}
