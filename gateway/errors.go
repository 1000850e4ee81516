package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Kind classifies every failure the gateway reports.
type Kind int

const (
	KindUnknown Kind = iota
	// KindAuthExpired: the access token was rejected and could not be renewed.
	KindAuthExpired
	// KindValidation: a 4xx other than 401/404, or a request rejected locally.
	KindValidation
	KindNotFound
	KindServerError
	// KindNetwork: the request never produced a response (offline, DNS, timeout).
	KindNetwork
	// KindDecode: a response arrived but could not be parsed.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

var (
	ErrAuthExpired = errors.New("authentication expired")
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrServerError = errors.New("server error")
	ErrNetwork     = errors.New("network error")
	ErrDecode      = errors.New("decode error")
)

const (
	defaultErrorMessage   = "An error occurred"
	networkErrorMessage   = "Network error - please check your connection"
	authExpiredMessage    = "Your session has expired, please log in again"
	unexpectedBodyMessage = "Unexpected response from server"
)

// Error is the single error shape returned to gateway callers.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	// Fields carries field-level details from the backend for validation errors.
	Fields map[string]any
	Err    error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Method != "" || e.Path != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Method, e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind, so callers can write
// errors.Is(err, gateway.ErrAuthExpired).
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

func (k Kind) sentinel() error {
	switch k {
	case KindAuthExpired:
		return ErrAuthExpired
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindServerError:
		return ErrServerError
	case KindNetwork:
		return ErrNetwork
	case KindDecode:
		return ErrDecode
	}
	return nil
}

// KindOf returns the Kind of err, or KindUnknown when err did not come from
// the gateway.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

// ValidationError builds a locally detected validation failure.
func ValidationError(method, path, message string, fields map[string]any) *Error {
	return &Error{
		Kind:    KindValidation,
		Method:  method,
		Path:    path,
		Message: message,
		Fields:  fields,
	}
}

func networkError(method, path string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Method:  method,
		Path:    path,
		Message: networkErrorMessage,
		Err:     err,
	}
}

func decodeError(method, path string, err error) *Error {
	return &Error{
		Kind:    KindDecode,
		Method:  method,
		Path:    path,
		Message: unexpectedBodyMessage,
		Err:     err,
	}
}

func authExpiredError(method, path string) *Error {
	return &Error{
		Kind:    KindAuthExpired,
		Status:  http.StatusUnauthorized,
		Method:  method,
		Path:    path,
		Message: authExpiredMessage,
	}
}

// statusError translates a non-2xx response into the taxonomy.
func statusError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Status:  status,
		Method:  method,
		Path:    path,
		Message: errorMessage(body),
	}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthExpired
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status >= 400 && status < 500:
		e.Kind = KindValidation
		e.Fields = errorFields(body)
	default:
		e.Kind = KindServerError
	}
	return e
}

// errorMessage picks the human readable message from a DRF-style error body.
func errorMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return defaultErrorMessage
	}
	for _, path := range []string{"non_field_errors.0", "detail", "message", "error"} {
		if res := gjson.GetBytes(body, path); res.Exists() && res.String() != "" {
			return res.String()
		}
	}
	// Bare list of messages, e.g. ["Invalid OTP."]
	if first := gjson.GetBytes(body, "0"); first.Type == gjson.String {
		return first.String()
	}
	return defaultErrorMessage
}

func errorFields(body []byte) map[string]any {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return nil
	}

	raw := gjson.GetBytes(body, "errors")
	if !raw.IsObject() {
		raw = gjson.ParseBytes(body)
	}
	if !raw.IsObject() {
		return nil
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(raw.Raw), &fields); err != nil {
		return nil
	}
	return fields
}
