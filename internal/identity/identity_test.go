package identity

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestCommand_FetchToken(t *testing.T) {
	t.Parallel()

	var gotName string
	var gotArgs []string

	c := NewCommand("")
	c.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte("  tok-123\n"), nil
	}

	token, err := c.FetchToken(context.Background(), "https://connectors.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token: got %q, want %q", token, "tok-123")
	}
	if gotName != "replit" {
		t.Errorf("command: got %q, want %q", gotName, "replit")
	}
	wantArgs := []string{"identity", "create", "--audience", "https://connectors.example"}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Errorf("args: got %v, want %v", gotArgs, wantArgs)
	}
}

func TestCommand_EmptyOutput(t *testing.T) {
	t.Parallel()

	c := NewCommand("helper")
	c.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("\n  \n"), nil
	}

	_, err := c.FetchToken(context.Background(), "https://x")
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("error: got %v, want ErrNoToken", err)
	}
}

func TestCommand_ProcessFailure(t *testing.T) {
	t.Parallel()

	c := NewCommand("helper")
	c.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}

	_, err := c.FetchToken(context.Background(), "https://x")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrNoToken) {
		t.Error("process failure should not be reported as ErrNoToken")
	}
}

func TestCommand_ArgsNotShared(t *testing.T) {
	t.Parallel()

	c := NewCommand("helper")
	c.run = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("t"), nil
	}

	for i := 0; i < 3; i++ {
		if _, err := c.FetchToken(context.Background(), "https://x"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if len(c.Args) != 2 {
		t.Errorf("Args mutated: %v", c.Args)
	}
}

func TestCommand_MissingBinary(t *testing.T) {
	t.Parallel()

	c := NewCommand("/nonexistent/identity-helper")
	_, err := c.FetchToken(context.Background(), "https://x")
	if err == nil {
		t.Fatal("expected error for missing binary, got nil")
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     Static
		want    string
		wantErr bool
	}{
		{name: "token", src: Static{Token: "abc"}, want: "abc"},
		{name: "empty", src: Static{}, wantErr: true},
		{name: "error", src: Static{Token: "abc", Err: errors.New("boom")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.src.FetchToken(context.Background(), "aud")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("token: got %q, want %q", got, tt.want)
			}
		})
	}
}
