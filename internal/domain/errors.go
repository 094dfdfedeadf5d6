package domain

import "errors"

// Base error classes. Every rejection below wraps exactly one of them, so callers
// can branch with errors.Is on either the specific rejection or its class.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	// ErrTransient marks storage failures (lock timeout, serialization failure) where
	// retrying the whole operation may succeed.
	ErrTransient = errors.New("temporarily unavailable")
)

// Rejection is a business-level refusal with a stable machine-readable code.
type Rejection struct {
	Code    string
	Message string
	class   error
}

func (r *Rejection) Error() string { return r.Message }

func (r *Rejection) Unwrap() error { return r.class }

func newRejection(code, message string, class error) *Rejection {
	return &Rejection{Code: code, Message: message, class: class}
}

// Registration and check-in rejections.
var (
	ErrEventNotFound        = newRejection("not_found", "event not found", ErrNotFound)
	ErrRegistrationNotFound = newRejection("not_found", "registration not found", ErrNotFound)

	ErrEventInPast = newRejection("event_in_past", "event has already started", ErrInvalidInput)

	ErrAlreadyRegistered = newRejection("already_registered", "already registered for this event", ErrConflict)
	ErrEventFull         = newRejection("event_full", "event is full", ErrConflict)
	ErrWrongEvent        = newRejection("wrong_event", "token belongs to a different event", ErrConflict)
	ErrAlreadyAttended   = newRejection("already_attended", "registration already checked in", ErrConflict)
	ErrEventStarted      = newRejection("event_started", "registration can no longer be cancelled", ErrConflict)

	ErrNotStudent           = newRejection("not_student", "only students can do this", ErrForbidden)
	ErrNotOrganizer         = newRejection("not_organizer", "only organizers can do this", ErrForbidden)
	ErrNotEventOrganizer    = newRejection("not_event_organizer", "not the organizer of this event", ErrForbidden)
	ErrNotRegistrationOwner = newRejection("not_registration_owner", "registration belongs to another student", ErrForbidden)
)

// ErrorKind is the coarse category of an error, used to pick a transport status.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindConcurrency   ErrorKind = "concurrency"
	KindAuthorization ErrorKind = "authorization"
	KindInternal      ErrorKind = "internal"
)

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransient):
		return KindConcurrency
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindAuthorization
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// CodeOf returns the rejection code carried by err, or "" if err is not a Rejection.
func CodeOf(err error) string {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Code
	}
	return ""
}
