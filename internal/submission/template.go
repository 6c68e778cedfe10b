package submission

import (
	_ "embed"
	"strings"
)

const (
	namePlaceholder = "[Your Name]"
	idPlaceholder   = "[ID Number]"
)

//go:embed templates/letter.txt
var letterTemplate string

//go:embed templates/compose.txt
var composeTemplate string

// coverNote is the message body that accompanies the attached letter.
const coverNote = "Dear Director General,\n\n" +
	"Please find attached my citizen submission on the Draft Private Security Regulations, 2025.\n\n" +
	"I respectfully request that these recommendations be considered during the public participation process."

// Letter returns the submission letter without a closing block.
func Letter() string {
	return strings.TrimRight(letterTemplate, "\n")
}

// ComposeBody returns the inline body used by the compose links.
func ComposeBody() string {
	return strings.TrimRight(composeTemplate, "\n")
}

// closing renders the sign-off. Values are inserted verbatim.
func closing(req Request) string {
	return "\n\nSincerely,\n" + req.name() + "\n" + req.id()
}
