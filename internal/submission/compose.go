package submission

import (
	"net/url"
	"strings"
)

// Links are the browser fallback targets that open a prefilled draft
// instead of relaying through the server.
type Links struct {
	Mailto    string `json:"mailto"`
	Gmail     string `json:"gmail"`
	Recipient string `json:"recipient"`
	Bcc       string `json:"bcc"`
	Subject   string `json:"subject"`
}

// ComposeLinks renders the mailto URI and Gmail compose URL.
func (c *Composer) ComposeLinks() Links {
	cc := c.cfg.Compose
	subject := encodeURIComponent(cc.Subject)
	body := encodeURIComponent(ComposeBody())

	var mailto strings.Builder
	mailto.WriteString("mailto:" + cc.Recipient)
	mailto.WriteString("?subject=" + subject)
	mailto.WriteString("&body=" + body)
	if cc.Bcc != "" {
		mailto.WriteString("&bcc=" + cc.Bcc)
	}

	var gmail strings.Builder
	gmail.WriteString("https://mail.google.com/mail/?view=cm&fs=1")
	gmail.WriteString("&to=" + cc.Recipient)
	if cc.Bcc != "" {
		gmail.WriteString("&bcc=" + cc.Bcc)
	}
	gmail.WriteString("&su=" + subject)
	gmail.WriteString("&body=" + body)

	return Links{
		Mailto:    mailto.String(),
		Gmail:     gmail.String(),
		Recipient: cc.Recipient,
		Bcc:       cc.Bcc,
		Subject:   cc.Subject,
	}
}

// encodeURIComponent percent-encodes s for a URI query value, using %20 for
// spaces so mail clients do not render literal plus signs.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
