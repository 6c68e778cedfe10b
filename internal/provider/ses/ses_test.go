package ses

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shineum/submission-relay/internal/email"
	"github.com/shineum/submission-relay/internal/provider"
)

// mockSESClient implements SendEmailAPI for testing.
type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	callCount int
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.callCount++
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params, optFns...)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("test-message-id")}, nil
}

func submissionMessage() *email.Message {
	return &email.Message{
		To:      "to@example.com",
		Bcc:     "bcc@example.com",
		Subject: "Citizen Submission",
		Text:    "See attachment",
		Attachments: []email.Attachment{
			email.NewTextAttachment("submission.txt", "file content"),
		},
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	p := NewWithClient("sender@example.com", &mockSESClient{})
	if got := p.Name(); got != "ses" {
		t.Errorf("Name(): got %q, want %q", got, "ses")
	}
}

func TestSend_SimpleTextEmail(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	msg := &email.Message{
		To:      "to@example.com",
		Subject: "Test Subject",
		Text:    "Hello, World!",
	}

	result, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MessageID != "test-message-id" {
		t.Errorf("MessageID: got %q, want %q", result.MessageID, "test-message-id")
	}

	input := mock.lastInput
	if input.Content.Simple == nil {
		t.Fatal("expected simple email content, got nil")
	}
	if got := *input.FromEmailAddress; got != "sender@example.com" {
		t.Errorf("FromEmailAddress: got %q, want %q", got, "sender@example.com")
	}
	if got := *input.Content.Simple.Subject.Data; got != "Test Subject" {
		t.Errorf("Subject: got %q, want %q", got, "Test Subject")
	}
	if got := *input.Content.Simple.Body.Text.Data; got != "Hello, World!" {
		t.Errorf("TextBody: got %q, want %q", got, "Hello, World!")
	}
	if input.Content.Simple.Body.Html != nil {
		t.Error("expected no HTML body")
	}
}

func TestSend_WithAttachment(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	result, err := p.Send(context.Background(), submissionMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	input := mock.lastInput
	if input.Content.Raw == nil {
		t.Fatal("expected raw email content for attachment, got nil")
	}
	if input.Content.Simple != nil {
		t.Error("expected no simple content when using raw message")
	}
	if got := input.Destination.BccAddresses; len(got) != 1 || got[0] != "bcc@example.com" {
		t.Errorf("BccAddresses: got %v", got)
	}

	rawStr := string(input.Content.Raw.Data)
	if strings.Contains(rawStr, "bcc@example.com") {
		t.Error("raw message must not expose the Bcc address")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte("file content"))
	if !strings.Contains(rawStr, encoded) {
		t.Error("raw message should carry the decoded attachment re-encoded once")
	}
	if len(result.Accepted) != 2 {
		t.Errorf("Accepted: got %v", result.Accepted)
	}
}

func TestSend_SingleAttempt(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{
		sendFn: func(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	p := NewWithClient("sender@example.com", mock)

	_, err := p.Send(context.Background(), submissionMessage())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "throttled") {
		t.Errorf("error should wrap the SES error, got %q", err.Error())
	}
	if mock.callCount != 1 {
		t.Errorf("call count: got %d, want 1", mock.callCount)
	}
}

func TestSend_InvalidAttachment(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	p := NewWithClient("sender@example.com", mock)

	msg := submissionMessage()
	msg.Attachments[0].Content = "%%%"

	if _, err := p.Send(context.Background(), msg); err == nil {
		t.Fatal("expected error for undecodable attachment")
	}
	if mock.callCount != 0 {
		t.Error("SES must not be called when the message cannot be built")
	}
}

func TestBuildSimpleInput(t *testing.T) {
	t.Parallel()

	msg := &email.Message{
		To:      "to@example.com",
		Cc:      "cc@example.com",
		Bcc:     "bcc@example.com",
		Subject: "Test",
		Text:    "text",
		HTML:    "<p>html</p>",
	}

	input := buildSimpleInput("sender@example.com", msg)

	if input.Content.Simple.Body.Html == nil {
		t.Fatal("expected HTML body")
	}
	if input.Content.Simple.Body.Text == nil {
		t.Fatal("expected text body")
	}
	if got := *input.Content.Simple.Body.Html.Charset; got != "UTF-8" {
		t.Errorf("HTML charset: got %q, want %q", got, "UTF-8")
	}
	dest := input.Destination
	if len(dest.ToAddresses) != 1 || len(dest.CcAddresses) != 1 || len(dest.BccAddresses) != 1 {
		t.Errorf("destination: got %+v", dest)
	}
}

func TestBuildRawMessage(t *testing.T) {
	t.Parallel()

	raw, err := buildRawMessage("sender@example.com", submissionMessage())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rawStr := string(raw)
	checks := []struct {
		name     string
		contains string
	}{
		{"From header", "From: sender@example.com"},
		{"To header", "To: to@example.com"},
		{"Subject header", "Subject: Citizen Submission"},
		{"MIME-Version", "MIME-Version: 1.0"},
		{"multipart boundary", "multipart/mixed"},
		{"body content type", "text/plain; charset=UTF-8"},
		{"attachment filename", "submission.txt"},
		{"base64 encoding", "Content-Transfer-Encoding: base64"},
	}

	for _, check := range checks {
		if !strings.Contains(rawStr, check.contains) {
			t.Errorf("raw message missing %s: expected to contain %q", check.name, check.contains)
		}
	}
}

func TestEncodeBase64WithLineBreaks(t *testing.T) {
	t.Parallel()

	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}

	encoded := encodeBase64WithLineBreaks(data)
	lines := strings.Split(encoded, "\r\n")
	for i, line := range lines {
		if i < len(lines)-1 && len(line) != 76 {
			t.Errorf("line %d length: got %d, want 76", i, len(line))
		}
		if len(line) > 76 {
			t.Errorf("line %d exceeds 76 chars: got %d", i, len(line))
		}
	}
}

func TestProviderInterface(t *testing.T) {
	t.Parallel()

	var _ provider.Provider = (*SESProvider)(nil)
}
