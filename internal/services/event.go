package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusticketing/internal/domain"
)

type eventService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	contextTimeout   time.Duration
	now              func() time.Time
}

// NewEventService creates an EventService backed by the event catalog and the ledger.
func NewEventService(eventRepo domain.EventRepository, registrationRepo domain.RegistrationRepository, timeout time.Duration) domain.EventService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &eventService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		contextTimeout:   timeout,
		now:              time.Now,
	}
}

func (s *eventService) Create(ctx context.Context, caller domain.Caller, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !caller.IsOrganizer() {
		return domain.ErrNotOrganizer
	}
	event.Title = strings.TrimSpace(event.Title)
	if event.Title == "" {
		return fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if event.StartsAt.IsZero() {
		return fmt.Errorf("starts_at is required: %w", domain.ErrInvalidInput)
	}
	if event.Capacity != nil && *event.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative: %w", domain.ErrInvalidInput)
	}

	now := s.now()
	event.OwnerID = caller.UserID
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *eventService) Get(ctx context.Context, caller domain.Caller, eventID string) (*domain.EventDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !validID(eventID) {
		return nil, fmt.Errorf("invalid event id: %w", domain.ErrInvalidInput)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	live, err := s.registrationRepo.CountLive(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}

	details := &domain.EventDetails{
		Event:       event,
		LiveCount:   live,
		SpotsLeft:   event.SpotsLeft(live),
		IsOrganizer: caller.Owns(event),
	}
	if caller.IsStudent() {
		_, err := s.registrationRepo.GetByEventAndStudent(ctx, eventID, caller.UserID)
		switch {
		case err == nil:
			details.IsRegistered = true
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("get registration: %w", err)
		}
	}
	return details, nil
}
