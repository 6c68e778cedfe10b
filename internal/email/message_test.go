package email

import (
	"encoding/json"
	"regexp"
	"testing"
)

func TestNewTextAttachment(t *testing.T) {
	t.Parallel()

	text := "Habari, Wakenya 🇰🇪\n<b>not markup</b> & \"quotes\""
	a := NewTextAttachment("letter.txt", text)

	if a.Filename != "letter.txt" {
		t.Errorf("Filename: got %q", a.Filename)
	}
	if a.ContentType != "text/plain" {
		t.Errorf("ContentType: got %q", a.ContentType)
	}
	if a.Encoding != EncodingBase64 {
		t.Errorf("Encoding: got %q", a.Encoding)
	}

	data, err := a.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(data) != text {
		t.Errorf("round trip: got %q, want %q", data, text)
	}
}

func TestAttachment_Decode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		att     Attachment
		want    string
		wantErr bool
	}{
		{name: "base64", att: Attachment{Content: "aGVsbG8=", Encoding: "base64"}, want: "hello"},
		{name: "unset encoding is base64", att: Attachment{Content: "aGVsbG8="}, want: "hello"},
		{name: "other encoding is raw", att: Attachment{Content: "hello", Encoding: "utf8"}, want: "hello"},
		{name: "invalid base64", att: Attachment{Filename: "x.txt", Content: "not base64!"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.att.Decode()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_Recipients(t *testing.T) {
	t.Parallel()

	msg := &Message{To: "a@example.com", Bcc: "c@example.com"}
	got := msg.Recipients()
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "c@example.com" {
		t.Errorf("Recipients: got %v", got)
	}

	msg.Cc = "b@example.com"
	got = msg.Recipients()
	if len(got) != 3 || got[1] != "b@example.com" {
		t.Errorf("Recipients with cc: got %v", got)
	}
}

func TestMessage_JSONFieldNames(t *testing.T) {
	t.Parallel()

	msg := &Message{
		To:          "a@example.com",
		Subject:     "s",
		Attachments: []Attachment{NewTextAttachment("f.txt", "x")},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"to", "subject", "attachments"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	for _, key := range []string{"cc", "bcc", "html"} {
		if _, ok := raw[key]; ok {
			t.Errorf("empty %q should be omitted in %s", key, data)
		}
	}

	att := raw["attachments"].([]any)[0].(map[string]any)
	if att["contentType"] != "text/plain" || att["encoding"] != "base64" {
		t.Errorf("attachment keys: got %v", att)
	}
}

func TestNewMessageID(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^<[0-9a-f-]{36}@submission-relay>$`)
	a, b := NewMessageID(), NewMessageID()
	if !pattern.MatchString(a) {
		t.Errorf("NewMessageID: got %q", a)
	}
	if a == b {
		t.Errorf("NewMessageID returned duplicate %q", a)
	}
}

func TestLocalResult(t *testing.T) {
	t.Parallel()

	msg := &Message{To: "a@example.com", Bcc: "b@example.com"}
	r := LocalResult(msg, "<id>", "done")

	if r.MessageID != "<id>" || r.Response != "done" {
		t.Errorf("LocalResult: got %+v", r)
	}
	if len(r.Accepted) != 2 {
		t.Errorf("Accepted: got %v", r.Accepted)
	}
	if r.Rejected == nil || len(r.Rejected) != 0 {
		t.Errorf("Rejected: got %v, want empty non-nil slice", r.Rejected)
	}
}
