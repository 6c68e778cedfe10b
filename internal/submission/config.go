package submission

// Default deployment values for the PSRA submission campaign.
const (
	DefaultRecipient      = "director.general@psra.go.ke"
	DefaultBcc            = "submissions@psra.go.ke"
	DefaultSubject        = "Citizen Submission on the Draft Private Security Regulations, 2025"
	DefaultAttachmentName = "PSRA_Citizen_Submission_2025.txt"

	DefaultComposeRecipient = "regulations@psra.go.ke"
	DefaultComposeBcc       = "jt2500100@gmail.com"
	DefaultComposeSubject   = "Citizen Submission on Draft Private Security (General) Regulations AND Draft Private Security (Fidelity Fund Operations) Regulations, 2025"
)

// Config is the fixed addressing for one deployment. It is built once at
// start-up and never mutated.
type Config struct {
	Recipient      string
	Bcc            string
	Subject        string
	AttachmentName string

	// Compose addresses the browser fallback links. It is kept separate from
	// the relay addressing because the two paths target different mailboxes.
	Compose ComposeConfig
}

// ComposeConfig addresses the mailto and webmail compose links.
type ComposeConfig struct {
	Recipient string
	Bcc       string
	Subject   string
}

// DefaultConfig returns the campaign defaults.
func DefaultConfig() Config {
	return Config{
		Recipient:      DefaultRecipient,
		Bcc:            DefaultBcc,
		Subject:        DefaultSubject,
		AttachmentName: DefaultAttachmentName,
		Compose: ComposeConfig{
			Recipient: DefaultComposeRecipient,
			Bcc:       DefaultComposeBcc,
			Subject:   DefaultComposeSubject,
		},
	}
}
