package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")
	ErrNotFound           = errors.New("transaction not found")
)

// GatewayError carries the provider's raw response so callers can surface
// it for diagnostics. Kind is one of the sentinel errors above.
type GatewayError struct {
	Kind       error
	Op         string
	StatusCode int
	Details    json.RawMessage
	Err        error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("paystack %s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (http %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// DetailsOf returns the provider payload attached to err, if any.
func DetailsOf(err error) json.RawMessage {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Details
	}
	return nil
}

// rawDetails keeps the provider body as-is when it is JSON and quotes it otherwise.
func rawDetails(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
