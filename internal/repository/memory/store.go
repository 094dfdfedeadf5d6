// Package memory is an in-process event catalog and registration ledger.
// Each event has its own exclusive lock; a unique (event, student) index backs
// up the in-lock duplicate check.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusticketing/internal/domain"
)

// Store holds all state. Use EventRepository and RegistrationRepository to access it.
type Store struct {
	mu          sync.RWMutex
	events      map[string]*domain.Event
	byToken     map[string]*domain.Registration
	byPair      map[pairKey]string
	eventLocks  map[string]chan struct{}
	lockTimeout time.Duration
}

type pairKey struct {
	eventID   string
	studentID string
}

// NewStore returns an empty store. lockTimeout bounds how long WithLockedEvent waits
// for an event's lock before failing with domain.ErrTransient.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 2 * time.Second
	}
	return &Store{
		events:      make(map[string]*domain.Event),
		byToken:     make(map[string]*domain.Registration),
		byPair:      make(map[pairKey]string),
		eventLocks:  make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// EventRepository returns the store's event catalog.
func (s *Store) EventRepository() domain.EventRepository {
	return &eventRepository{store: s}
}

// RegistrationRepository returns the store's registration ledger.
func (s *Store) RegistrationRepository() domain.RegistrationRepository {
	return &registrationRepository{store: s}
}

type eventRepository struct {
	store *Store
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}
	e.ID = id.String()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	e, ok := r.store.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	return cloneEvent(e), nil
}

// lockFor returns the lock channel for eventID, creating it on first use.
func (s *Store) lockFor(eventID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.eventLocks[eventID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.eventLocks[eventID] = ch
	}
	return ch
}

func (s *Store) acquire(ctx context.Context, eventID string) (release func(), err error) {
	ch := s.lockFor(eventID)
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: lock wait for event %s exceeded %s", domain.ErrTransient, eventID, s.lockTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	if e.Capacity != nil {
		v := *e.Capacity
		c.Capacity = &v
	}
	return &c
}

func cloneRegistration(r *domain.Registration) *domain.Registration {
	c := *r
	if r.AttendedAt != nil {
		v := *r.AttendedAt
		c.AttendedAt = &v
	}
	return &c
}

func sortNewestEventFirst(items []*domain.RegistrationWithEvent) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Event.StartsAt.After(items[j].Event.StartsAt)
	})
}
