package domain

import (
	"context"
	"time"
)

// Event is something students can register for.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	// Capacity is the maximum number of live registrations; nil means unlimited.
	Capacity  *int      `json:"capacity"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title, description, location string, startsAt time.Time, capacity *int, ownerID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Location:    location,
		StartsAt:    startsAt,
		Capacity:    capacity,
		OwnerID:     ownerID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// HasStarted reports whether the event start is at or before now.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// SpotsLeft returns the remaining capacity given live registrations, or nil when unlimited.
// It never returns a negative number.
func (e *Event) SpotsLeft(live int) *int {
	if e.Capacity == nil {
		return nil
	}
	left := *e.Capacity - live
	if left < 0 {
		left = 0
	}
	return &left
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	// GetByID returns ErrEventNotFound when no event has the given id.
	GetByID(ctx context.Context, id string) (*Event, error)
}

// EventDetails is an event as seen by a particular caller.
// swagger:model EventDetails
type EventDetails struct {
	Event        *Event `json:"event"`
	LiveCount    int    `json:"live_count"`
	SpotsLeft    *int   `json:"spots_left"`
	IsRegistered bool   `json:"is_registered"`
	IsOrganizer  bool   `json:"is_organizer"`
}

// EventService defines the event catalog operations exposed over HTTP.
type EventService interface {
	Create(ctx context.Context, caller Caller, event *Event) error
	Get(ctx context.Context, caller Caller, eventID string) (*EventDetails, error)
}
