package types

// SuccessEnvelope wraps every 2xx payload under a data key so clients
// can decode uniformly.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error body: a stable machine code, a message
// safe to show the shopper and optional structured details.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps APIError under an error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
