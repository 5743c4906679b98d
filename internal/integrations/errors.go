package integrations

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why an integration call did not produce data.
type Kind int

const (
	KindNotConfigured Kind = iota + 1 // disabled or never set up
	KindIncomplete                    // enabled but missing coordinates or secrets
	KindUpstreamStatus                // upstream answered with a non-success status
	KindTransport                     // network error or timeout
	KindAuth                          // login handshake failed
	KindDecode                        // upstream answered with something unreadable
	KindUnavailable                   // circuit open after repeated upstream failures
)

// excerptLimit caps how much of an upstream error body is echoed back.
const excerptLimit = 500

// Error is the structured failure every adapter returns. It never carries a
// full upstream body.
type Error struct {
	Kind       Kind
	Service    string
	Message    string
	StatusCode int    // upstream status, 0 when there was no response
	Detail     string // short diagnostic (transport error or body excerpt)
	Err        error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the failure onto the status returned to API callers.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotConfigured, KindIncomplete:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Failure is the degraded payload rendered by the dashboard.
type Failure struct {
	Online     bool   `json:"online"`
	Message    string `json:"message"`
	StatusCode *int   `json:"statusCode,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Payload renders e as the degraded response body.
func (e *Error) Payload() Failure {
	f := Failure{Online: false, Message: e.Message, Error: e.Detail}
	if e.StatusCode > 0 {
		code := e.StatusCode
		f.StatusCode = &code
	}
	return f
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var ie *Error
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

func excerpt(body []byte) string {
	r := []rune(string(body))
	if len(r) > excerptLimit {
		return string(r[:excerptLimit])
	}
	return string(r)
}

func notConfigured(service string) *Error {
	return &Error{
		Kind:    KindNotConfigured,
		Service: service,
		Message: service + " integration not configured or disabled",
	}
}

func incomplete(service, fields string) *Error {
	return &Error{
		Kind:    KindIncomplete,
		Service: service,
		Message: fmt.Sprintf("%s settings incomplete (%s)", service, fields),
	}
}
