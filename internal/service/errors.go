package service

import "errors"

// Error kinds.  Every error returned by this package wraps exactly one of
// them, so callers branch with errors.Is and never parse messages.
var (
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrPaymentPending   = errors.New("payment not captured yet")
	ErrAlreadyCheckedIn = errors.New("ticket already checked in")
	ErrUpstream         = errors.New("payment provider error")
	ErrPersistence      = errors.New("persistence error")
)

// ErrPaidEvent is returned by Orchestrator.BookFree for a paid event.  It
// is a routing signal, not a failure: the caller hands the request to the
// payment intent path.
var ErrPaidEvent = errors.New("event requires payment")

// Error carries a kind, a message safe to show to clients and the
// underlying cause, if any.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newErr(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Message returns the client-facing message for err.  Causes are never
// included; unknown errors collapse to a generic text.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.Error()
	}
	return "internal server error"
}
