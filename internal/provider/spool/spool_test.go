package spool

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/shineum/submission-relay/internal/email"
)

func TestSend_WritesReadableMessage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := New(dir, "relay@example.com")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.now = func() time.Time { return time.Date(2025, 11, 3, 9, 30, 0, 0, time.UTC) }

	body := "Letter\n\nSincerely,\nZoë Nyambura\n12345678"
	msg := &email.Message{
		To:      "director@example.go.ke",
		Bcc:     "archive@example.go.ke",
		Subject: "Citizen Submission",
		Text:    "Cover note",
		Attachments: []email.Attachment{
			email.NewTextAttachment("submission.txt", body),
		},
	}

	result, err := p.Send(context.Background(), msg)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.eml"))
	if err != nil || len(files) != 1 {
		t.Fatalf("spool files: got %v (err %v), want 1", files, err)
	}
	if !strings.HasPrefix(filepath.Base(files[0]), "20251103T093000Z-") {
		t.Errorf("file name: got %q", filepath.Base(files[0]))
	}
	if !strings.Contains(result.Response, files[0]) {
		t.Errorf("Response should name the spool file, got %q", result.Response)
	}

	f, err := os.Open(files[0])
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	mr, err := mail.CreateReader(f)
	if err != nil {
		t.Fatalf("CreateReader: %v", err)
	}

	subject, _ := mr.Header.Subject()
	if subject != "Citizen Submission" {
		t.Errorf("Subject: got %q", subject)
	}
	bcc, _ := mr.Header.AddressList("Bcc")
	if len(bcc) != 1 || bcc[0].Address != "archive@example.go.ke" {
		t.Errorf("Bcc: got %v", bcc)
	}
	id, _ := mr.Header.MessageID()
	if "<"+id+">" != result.MessageID {
		t.Errorf("Message-Id: got %q, result %q", id, result.MessageID)
	}

	var gotText, gotAttachment string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextPart: %v", err)
		}
		data, _ := io.ReadAll(part.Body)
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			gotText = string(data)
		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename != "submission.txt" {
				t.Errorf("attachment filename: got %q", filename)
			}
			gotAttachment = string(data)
		}
	}

	if gotText != "Cover note" {
		t.Errorf("text part: got %q", gotText)
	}
	if gotAttachment != body {
		t.Errorf("attachment: got %q, want %q", gotAttachment, body)
	}
}

func TestSend_LeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p, err := New(dir, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := p.Send(context.Background(), &email.Message{To: "a@example.com", Text: "x"}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries: got %d, want 3", len(entries))
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".spool-") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestNew_RequiresDir(t *testing.T) {
	t.Parallel()

	if _, err := New("", "x"); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	p, err := New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Name() != "spool" {
		t.Errorf("Name: got %q, want %q", p.Name(), "spool")
	}
}
