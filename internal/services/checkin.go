package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campusticketing/internal/domain"
)

type checkInService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	metrics          domain.MetricsRecorder
	logger           *slog.Logger
	retry            RetryPolicy
	now              func() time.Time
}

// NewCheckInService creates a CheckInService with the given repositories.
func NewCheckInService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
	retry RetryPolicy,
) domain.CheckInService {
	return &checkInService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		metrics:          metrics,
		logger:           logger,
		retry:            retry,
		now:              time.Now,
	}
}

func (s *checkInService) CheckIn(ctx context.Context, caller domain.Caller, eventID, token string) (*domain.Registration, error) {
	reg, err := s.checkIn(ctx, caller, eventID, token)
	s.metrics.RecordCheckIn(domain.OutcomeOf(err))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "checked in", "event_id", eventID, "student_id", reg.StudentID)
	return reg, nil
}

func (s *checkInService) checkIn(ctx context.Context, caller domain.Caller, eventID, token string) (*domain.Registration, error) {
	if _, err := s.ownedEvent(ctx, caller, eventID); err != nil {
		return nil, err
	}

	var reg *domain.Registration
	if validID(token) {
		found, err := s.registrationRepo.GetByToken(ctx, token)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("get registration: %w", err)
		}
		reg = found
	}

	now := s.now()
	if err := reg.CheckIn(eventID, now); err != nil {
		return nil, err
	}
	// Persist with a conditional update; of two concurrent scans only one gets past it.
	_, err := retryTransient(ctx, s.retry, s.logger, s.metrics, "check_in", func() (struct{}, error) {
		return struct{}{}, s.registrationRepo.MarkAttended(ctx, token, eventID, now)
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *checkInService) Participants(ctx context.Context, caller domain.Caller, eventID string) (*domain.EventParticipants, error) {
	event, err := s.ownedEvent(ctx, caller, eventID)
	if err != nil {
		return nil, err
	}
	regs, err := s.registrationRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	attended := 0
	for _, r := range regs {
		if r.Status == domain.StatusAttended {
			attended++
		}
	}
	return &domain.EventParticipants{
		Event:         event,
		LiveCount:     len(regs),
		AttendedCount: attended,
		SpotsLeft:     event.SpotsLeft(len(regs)),
		Registrations: regs,
	}, nil
}

// ownedEvent loads the event and checks the caller organizes it.
func (s *checkInService) ownedEvent(ctx context.Context, caller domain.Caller, eventID string) (*domain.Event, error) {
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
	if !caller.Owns(event) {
		return nil, domain.ErrNotEventOrganizer
	}
	return event, nil
}
