package domain

import (
	"context"
	"time"
)

// RegistrationStatus only ever advances from registered to attended.
type RegistrationStatus string

const (
	StatusRegistered RegistrationStatus = "registered"
	StatusAttended   RegistrationStatus = "attended"
)

// Registration is a student's place at an event. Token is both its identity and
// the credential scanned at check-in.
// swagger:model Registration
type Registration struct {
	Token      string             `json:"token"`
	EventID    string             `json:"event_id"`
	StudentID  string             `json:"student_id"`
	Status     RegistrationStatus `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	AttendedAt *time.Time         `json:"attended_at"`
}

// NewRegistration returns a registration in the registered state.
func NewRegistration(token, eventID, studentID string, createdAt time.Time) *Registration {
	return &Registration{
		Token:     token,
		EventID:   eventID,
		StudentID: studentID,
		Status:    StatusRegistered,
		CreatedAt: createdAt,
	}
}

// CheckIn moves the registration to attended for a scan at eventID.
// Rules are applied in order: the registration must exist, belong to eventID,
// and still be registered. A nil receiver means the token did not resolve.
func (r *Registration) CheckIn(eventID string, at time.Time) error {
	if r == nil {
		return ErrRegistrationNotFound
	}
	if r.EventID != eventID {
		return ErrWrongEvent
	}
	if r.Status != StatusRegistered {
		return ErrAlreadyAttended
	}
	r.Status = StatusAttended
	r.AttendedAt = &at
	return nil
}

// RegistrationWithEvent bundles a registration with its related event.
type RegistrationWithEvent struct {
	Registration *Registration `json:"registration"`
	Event        *Event        `json:"event"`
}

// LockedEvent is the view of an event held under its exclusive registration lock.
// Everything done through it commits or rolls back together.
type LockedEvent interface {
	Event() *Event
	CountLive(ctx context.Context) (int, error)
	// GetByStudent returns ErrRegistrationNotFound when the student holds no live registration.
	GetByStudent(ctx context.Context, studentID string) (*Registration, error)
	// Insert returns ErrAlreadyRegistered if (student, event) is already live.
	Insert(ctx context.Context, reg *Registration) error
}

// RegistrationRepository is the registration ledger.
type RegistrationRepository interface {
	// WithLockedEvent runs fn while holding the event's exclusive lock. A nil return
	// commits everything fn did; an error rolls it back. Lock waits are bounded and
	// surface as ErrTransient.
	WithLockedEvent(ctx context.Context, eventID string, fn func(ctx context.Context, locked LockedEvent) error) error
	GetByToken(ctx context.Context, token string) (*Registration, error)
	GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*Registration, error)
	CountLive(ctx context.Context, eventID string) (int, error)
	// MarkAttended sets status to attended only if it is still registered for eventID.
	MarkAttended(ctx context.Context, token, eventID string, at time.Time) error
	// DeleteRegistered removes the student's registration only while it is still registered.
	DeleteRegistered(ctx context.Context, token, studentID string) error
	ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]*RegistrationWithEvent, error)
	ListByEvent(ctx context.Context, eventID string) ([]*Registration, error)
}

// RegistrationTokenMinter mints unguessable registration tokens.
type RegistrationTokenMinter interface {
	Mint() (string, error)
}

// RegistrationService defines student-facing registration operations.
type RegistrationService interface {
	Register(ctx context.Context, caller Caller, eventID string) (*Registration, error)
	Cancel(ctx context.Context, caller Caller, token string) error
	CancelForEvent(ctx context.Context, caller Caller, eventID string) error
	ListMine(ctx context.Context, caller Caller) ([]*RegistrationWithEvent, error)
}

// EventParticipants is the organizer's view of who registered for an event.
// swagger:model EventParticipants
type EventParticipants struct {
	Event         *Event          `json:"event"`
	LiveCount     int             `json:"live_count"`
	AttendedCount int             `json:"attended_count"`
	SpotsLeft     *int            `json:"spots_left"`
	Registrations []*Registration `json:"registrations"`
}

// CheckInService defines organizer-facing door operations.
type CheckInService interface {
	CheckIn(ctx context.Context, caller Caller, eventID, token string) (*Registration, error)
	Participants(ctx context.Context, caller Caller, eventID string) (*EventParticipants, error)
}
