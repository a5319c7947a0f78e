package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WebhookAck is the acknowledgment body returned to the bank gateway. The
// HTTP status is always 200; Processed carries the real reconciliation
// outcome for observability on the gateway side.
type WebhookAck struct {
	Success   bool   `json:"success"`
	Processed bool   `json:"processed"`
	Message   string `json:"message"`
}
