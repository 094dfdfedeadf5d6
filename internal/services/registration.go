package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campusticketing/internal/domain"
)

// DefaultRecentWindow is how far back ListMine reaches for events that already started.
const DefaultRecentWindow = 7 * 24 * time.Hour

type registrationService struct {
	eventRepo        domain.EventRepository
	registrationRepo domain.RegistrationRepository
	minter           domain.RegistrationTokenMinter
	metrics          domain.MetricsRecorder
	logger           *slog.Logger
	retry            RetryPolicy
	recentWindow     time.Duration
	now              func() time.Time
}

// NewRegistrationService creates a RegistrationService with the given repositories and token minter.
func NewRegistrationService(
	eventRepo domain.EventRepository,
	registrationRepo domain.RegistrationRepository,
	minter domain.RegistrationTokenMinter,
	metrics domain.MetricsRecorder,
	logger *slog.Logger,
	retry RetryPolicy,
	recentWindow time.Duration,
) domain.RegistrationService {
	if recentWindow <= 0 {
		recentWindow = DefaultRecentWindow
	}
	return &registrationService{
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		minter:           minter,
		metrics:          metrics,
		logger:           logger,
		retry:            retry,
		recentWindow:     recentWindow,
		now:              time.Now,
	}
}

func (s *registrationService) Register(ctx context.Context, caller domain.Caller, eventID string) (*domain.Registration, error) {
	reg, err := s.register(ctx, caller, eventID)
	s.metrics.RecordRegistration(domain.OutcomeOf(err))
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "registered", "event_id", eventID, "student_id", caller.UserID)
	return reg, nil
}

func (s *registrationService) register(ctx context.Context, caller domain.Caller, eventID string) (*domain.Registration, error) {
	if !caller.IsStudent() {
		return nil, domain.ErrNotStudent
	}
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
	if event.HasStarted(s.now()) {
		return nil, domain.ErrEventInPast
	}

	return retryTransient(ctx, s.retry, s.logger, s.metrics, "register", func() (*domain.Registration, error) {
		return s.registerLocked(ctx, caller.UserID, eventID)
	})
}

// registerLocked is the atomic section: start check, duplicate check, capacity gate,
// token mint and insert all happen under the event lock and commit together.
func (s *registrationService) registerLocked(ctx context.Context, studentID, eventID string) (*domain.Registration, error) {
	var reg *domain.Registration
	err := s.registrationRepo.WithLockedEvent(ctx, eventID, func(ctx context.Context, locked domain.LockedEvent) error {
		now := s.now()
		event := locked.Event()
		if event.HasStarted(now) {
			return domain.ErrEventInPast
		}

		_, err := locked.GetByStudent(ctx, studentID)
		if err == nil {
			return domain.ErrAlreadyRegistered
		}
		if !errors.Is(err, domain.ErrRegistrationNotFound) {
			return fmt.Errorf("get registration: %w", err)
		}

		live, err := locked.CountLive(ctx)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if err := admit(event, live); err != nil {
			return err
		}

		token, err := s.minter.Mint()
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		candidate := domain.NewRegistration(token, eventID, studentID, now)
		if err := locked.Insert(ctx, candidate); err != nil {
			return err
		}
		reg = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func (s *registrationService) Cancel(ctx context.Context, caller domain.Caller, token string) error {
	if !caller.IsStudent() {
		return domain.ErrNotStudent
	}
	if !validID(token) {
		return domain.ErrRegistrationNotFound
	}
	reg, err := s.registrationRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrRegistrationNotFound
		}
		return fmt.Errorf("get registration: %w", err)
	}
	return s.cancel(ctx, caller, reg)
}

func (s *registrationService) CancelForEvent(ctx context.Context, caller domain.Caller, eventID string) error {
	if !caller.IsStudent() {
		return domain.ErrNotStudent
	}
	if !validID(eventID) {
		return fmt.Errorf("invalid event id: %w", domain.ErrInvalidInput)
	}
	reg, err := s.registrationRepo.GetByEventAndStudent(ctx, eventID, caller.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrRegistrationNotFound
		}
		return fmt.Errorf("get registration: %w", err)
	}
	return s.cancel(ctx, caller, reg)
}

func (s *registrationService) cancel(ctx context.Context, caller domain.Caller, reg *domain.Registration) error {
	if reg.StudentID != caller.UserID {
		return domain.ErrNotRegistrationOwner
	}
	event, err := s.eventRepo.GetByID(ctx, reg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.HasStarted(s.now()) {
		return domain.ErrEventStarted
	}
	// Once checked in, a registration stays: cancelling would free a slot held by someone present.
	if reg.Status == domain.StatusAttended {
		return domain.ErrAlreadyAttended
	}
	if err := s.registrationRepo.DeleteRegistered(ctx, reg.Token, caller.UserID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "registration cancelled", "event_id", reg.EventID, "student_id", caller.UserID)
	return nil
}

func (s *registrationService) ListMine(ctx context.Context, caller domain.Caller) ([]*domain.RegistrationWithEvent, error) {
	if !caller.IsStudent() {
		return nil, domain.ErrNotStudent
	}
	since := s.now().Add(-s.recentWindow)
	items, err := s.registrationRepo.ListByStudentSince(ctx, caller.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	if items == nil {
		items = []*domain.RegistrationWithEvent{}
	}
	return items, nil
}
