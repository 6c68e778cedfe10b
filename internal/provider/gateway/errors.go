package gateway

import "fmt"

// defaultDeliveryMessage is reported when the gateway's error body carries
// no usable message.
const defaultDeliveryMessage = "Failed to send email"

// ConfigurationError reports a missing deployment setting. It fails the
// current send only.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s not configured", e.Setting)
}

// CredentialError reports that no usable bearer token could be obtained.
type CredentialError struct {
	Audience string
	Err      error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to obtain identity token for %s: %v", e.Audience, e.Err)
	}
	return fmt.Sprintf("failed to obtain identity token for %s", e.Audience)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// DeliveryError reports a failed round trip to the mail gateway.
// StatusCode is zero when no HTTP response was received. Error returns the
// gateway's own message verbatim so it can be shown to the submitter.
type DeliveryError struct {
	StatusCode int
	Body       []byte
	Message    string
	Err        error
}

func (e *DeliveryError) Error() string {
	return e.Message
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
