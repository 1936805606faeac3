package marketo

import (
	"fmt"
	"strings"
)

// ConfigError reports an unusable construction config.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("marketo config: %s", e.Msg)
}

// AuthError reports a failed or malformed client-credentials grant.
type AuthError struct {
	StatusCode int
	Body       string
	Msg        string
	Err        error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString("marketo auth: ")
	b.WriteString(e.Msg)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&b, ": %s", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// BuildError is raised before any network I/O when an operation's
// arguments cannot form a request.
type BuildError struct {
	Operation string
	Param     string
	Msg       string
	Err       error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("marketo build %s", e.Operation)
	if e.Param != "" {
		msg += fmt.Sprintf(" [%s]", e.Param)
	}
	msg += ": " + e.Msg
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error { return e.Err }

// TransportError wraps connection, DNS and timeout failures.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("marketo transport %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body that is not a valid envelope.
type DecodeError struct {
	Operation  string
	StatusCode int
	Msg        string
	Err        error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("marketo decode %s (status %d): %s", e.Operation, e.StatusCode, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// APIError is a well-formed envelope the operation's rule deems
// unsuccessful.
type APIError struct {
	Operation string
	RequestID string
	Errors    []Error
}

func (e *APIError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.String())
	}
	return fmt.Sprintf("marketo api %s: %s", e.Operation, strings.Join(parts, "; "))
}

// HasCode reports whether any of the vendor errors carries code.
func (e *APIError) HasCode(code string) bool {
	for _, item := range e.Errors {
		if item.Code == code {
			return true
		}
	}
	return false
}
