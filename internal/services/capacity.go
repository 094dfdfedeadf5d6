package services

import (
	"github.com/google/uuid"

	"campusticketing/internal/domain"
)

// admit decides whether one more registration fits in event given the number of
// live registrations. It must only be called while the event lock is held.
func admit(event *domain.Event, live int) error {
	if event.Capacity == nil {
		return nil
	}
	if live >= *event.Capacity {
		return domain.ErrEventFull
	}
	return nil
}

// validID reports whether s is a canonical UUID string (8-4-4-4-12 hex).
func validID(s string) bool {
	return len(s) == 36 && uuid.Validate(s) == nil
}
