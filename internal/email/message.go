// Package email defines the message model exchanged between the submission
// handler and the delivery providers.
package email

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// EncodingBase64 marks attachment content as standard base64 text.
const EncodingBase64 = "base64"

// Message is an outbound email. The JSON form is the mail gateway's wire
// format, so field names must not change.
type Message struct {
	To          string       `json:"to"`
	Cc          string       `json:"cc,omitempty"`
	Bcc         string       `json:"bcc,omitempty"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text,omitempty"`
	HTML        string       `json:"html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a file attached to a Message. Content holds the file bytes
// encoded as standard base64.
type Attachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"contentType,omitempty"`
	Encoding    string `json:"encoding,omitempty"`
}

// Result is the delivery outcome reported by a provider.
type Result struct {
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected"`
	Pending   []string `json:"pending,omitempty"`
	MessageID string   `json:"messageId"`
	Response  string   `json:"response"`
}

// NewTextAttachment builds a base64 attachment from UTF-8 text.
func NewTextAttachment(filename, text string) Attachment {
	return Attachment{
		Filename:    filename,
		Content:     base64.StdEncoding.EncodeToString([]byte(text)),
		ContentType: "text/plain",
		Encoding:    EncodingBase64,
	}
}

// Decode returns the raw attachment bytes.
func (a Attachment) Decode() ([]byte, error) {
	if a.Encoding != "" && a.Encoding != EncodingBase64 {
		return []byte(a.Content), nil
	}
	data, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode attachment %q: %w", a.Filename, err)
	}
	return data, nil
}

// Recipients returns every non-empty address of the message in To, Cc, Bcc order.
func (m *Message) Recipients() []string {
	addrs := make([]string, 0, 3)
	for _, addr := range []string{m.To, m.Cc, m.Bcc} {
		if addr != "" {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// NewMessageID generates an RFC 5322 message id for backends that do not
// assign one themselves.
func NewMessageID() string {
	return fmt.Sprintf("<%s@submission-relay>", uuid.NewString())
}

// LocalResult builds the Result reported by backends that accept every
// recipient once the message has been handed off.
func LocalResult(msg *Message, messageID, response string) *Result {
	return &Result{
		Accepted:  msg.Recipients(),
		Rejected:  []string{},
		MessageID: messageID,
		Response:  response,
	}
}
