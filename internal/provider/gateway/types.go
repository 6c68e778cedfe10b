package gateway

import "encoding/json"

// errorResponse is the gateway's error body.
type errorResponse struct {
	Message string `json:"message"`
}

// Credential is a bearer token bound to the gateway host it was issued for.
type Credential struct {
	AuthToken string
	Hostname  string
}

// parseDeliveryError builds a DeliveryError from a non-2xx response.
func parseDeliveryError(statusCode int, body []byte) *DeliveryError {
	derr := &DeliveryError{
		StatusCode: statusCode,
		Body:       body,
		Message:    defaultDeliveryMessage,
	}

	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		derr.Message = resp.Message
	}

	return derr
}
