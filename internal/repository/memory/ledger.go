package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"campusticketing/internal/domain"
)

type registrationRepository struct {
	store *Store
}

func (r *registrationRepository) WithLockedEvent(ctx context.Context, eventID string, fn func(ctx context.Context, locked domain.LockedEvent) error) error {
	release, err := r.store.acquire(ctx, eventID)
	if err != nil {
		return err
	}
	defer release()

	r.store.mu.RLock()
	event, ok := r.store.events[eventID]
	if ok {
		event = cloneEvent(event)
	}
	r.store.mu.RUnlock()
	if !ok {
		return domain.ErrEventNotFound
	}

	tx := &lockedEvent{store: r.store, event: event}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

func (r *registrationRepository) GetByToken(ctx context.Context, token string) (*domain.Registration, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	reg, ok := r.store.byToken[token]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	return cloneRegistration(reg), nil
}

func (r *registrationRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	token, ok := r.store.byPair[pairKey{eventID, studentID}]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	return cloneRegistration(r.store.byToken[token]), nil
}

func (r *registrationRepository) CountLive(ctx context.Context, eventID string) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.countLive(eventID), nil
}

func (r *registrationRepository) MarkAttended(ctx context.Context, token, eventID string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	reg, ok := r.store.byToken[token]
	switch {
	case !ok:
		return domain.ErrRegistrationNotFound
	case reg.EventID != eventID:
		return domain.ErrWrongEvent
	case reg.Status != domain.StatusRegistered:
		return domain.ErrAlreadyAttended
	}
	reg.Status = domain.StatusAttended
	reg.AttendedAt = &at
	return nil
}

func (r *registrationRepository) DeleteRegistered(ctx context.Context, token, studentID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	reg, ok := r.store.byToken[token]
	switch {
	case !ok:
		return domain.ErrRegistrationNotFound
	case reg.StudentID != studentID:
		return domain.ErrNotRegistrationOwner
	case reg.Status != domain.StatusRegistered:
		return domain.ErrAlreadyAttended
	}
	delete(r.store.byToken, token)
	delete(r.store.byPair, pairKey{reg.EventID, reg.StudentID})
	return nil
}

func (r *registrationRepository) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]*domain.RegistrationWithEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	items := []*domain.RegistrationWithEvent{}
	for _, reg := range r.store.byToken {
		if reg.StudentID != studentID {
			continue
		}
		event, ok := r.store.events[reg.EventID]
		if !ok || event.StartsAt.Before(since) {
			continue
		}
		items = append(items, &domain.RegistrationWithEvent{
			Registration: cloneRegistration(reg),
			Event:        cloneEvent(event),
		})
	}
	sortNewestEventFirst(items)
	return items, nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	regs := []*domain.Registration{}
	for _, reg := range r.store.byToken {
		if reg.EventID == eventID {
			regs = append(regs, cloneRegistration(reg))
		}
	}
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return regs, nil
}

// countLive must be called with s.mu held.
func (s *Store) countLive(eventID string) int {
	n := 0
	for _, reg := range s.byToken {
		if reg.EventID == eventID {
			n++
		}
	}
	return n
}

// lockedEvent stages inserts until the locked section returns without error.
type lockedEvent struct {
	store   *Store
	event   *domain.Event
	pending []*domain.Registration
}

func (l *lockedEvent) Event() *domain.Event {
	return l.event
}

func (l *lockedEvent) CountLive(ctx context.Context) (int, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	return l.store.countLive(l.event.ID) + len(l.pending), nil
}

func (l *lockedEvent) GetByStudent(ctx context.Context, studentID string) (*domain.Registration, error) {
	for _, p := range l.pending {
		if p.StudentID == studentID {
			return cloneRegistration(p), nil
		}
	}
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	token, ok := l.store.byPair[pairKey{l.event.ID, studentID}]
	if !ok {
		return nil, domain.ErrRegistrationNotFound
	}
	return cloneRegistration(l.store.byToken[token]), nil
}

func (l *lockedEvent) Insert(ctx context.Context, reg *domain.Registration) error {
	if reg.EventID != l.event.ID {
		return fmt.Errorf("insert registration for event %s under lock of %s: %w", reg.EventID, l.event.ID, domain.ErrInvalidInput)
	}
	if _, err := l.GetByStudent(ctx, reg.StudentID); err == nil {
		return domain.ErrAlreadyRegistered
	}
	l.pending = append(l.pending, cloneRegistration(reg))
	return nil
}

func (l *lockedEvent) commit() error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	for _, reg := range l.pending {
		if _, taken := l.store.byToken[reg.Token]; taken {
			return fmt.Errorf("%w: token collision", domain.ErrTransient)
		}
		if _, taken := l.store.byPair[pairKey{reg.EventID, reg.StudentID}]; taken {
			return domain.ErrAlreadyRegistered
		}
	}
	for _, reg := range l.pending {
		l.store.byToken[reg.Token] = reg
		l.store.byPair[pairKey{reg.EventID, reg.StudentID}] = reg.Token
	}
	return nil
}
