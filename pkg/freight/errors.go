package freight

import (
	"fmt"
)

// Error codes.
const (
	CodeInvalidShipment = "INVALID_SHIPMENT"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeRuleConfig      = "RULE_CONFIG"
)

// Error is a quoting error. Two errors match under errors.Is when their
// codes are equal.
type Error struct {
	Code      string
	Message   string
	ChannelID string
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.ChannelID != "" {
		msg = fmt.Sprintf("channel %s: %s", e.ChannelID, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithChannel scopes the error to a channel.
func (e *Error) WithChannel(channelID string) *Error {
	e.ChannelID = channelID
	return e
}

// Sentinel errors. Compare with errors.Is.
var (
	// ErrInvalidShipment indicates a malformed request; no channel is evaluated.
	ErrInvalidShipment = NewError(CodeInvalidShipment, "invalid shipment")

	// ErrDataUnavailable indicates the reference-data store could not be read.
	ErrDataUnavailable = NewError(CodeDataUnavailable, "reference data unavailable")

	// ErrRuleConfig indicates a special rule with malformed parameters.
	ErrRuleConfig = NewError(CodeRuleConfig, "malformed special rule")
)

func invalidShipment(format string, args ...any) *Error {
	return NewError(CodeInvalidShipment, fmt.Sprintf(format, args...))
}

func dataUnavailable(what string, err error) *Error {
	return NewError(CodeDataUnavailable, "reading "+what).WithCause(err)
}
