package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusticketing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingEventRepo returns err from every call.
type failingEventRepo struct {
	err error
}

func (f *failingEventRepo) Create(ctx context.Context, e *domain.Event) error {
	return f.err
}

func (f *failingEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return nil, f.err
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()
	startsAt := time.Now().Add(48 * time.Hour)

	tests := []struct {
		name    string
		caller  domain.Caller
		event   *domain.Event
		wantErr error
	}{
		{
			name:   "success",
			caller: organizer("org-1"),
			event:  domain.NewEvent("  Go meetup ", "talks", "Room 101", startsAt, intPtr(30), "", time.Time{}, time.Time{}),
		},
		{
			name:   "unlimited capacity",
			caller: organizer("org-1"),
			event:  domain.NewEvent("Open day", "", "", startsAt, nil, "", time.Time{}, time.Time{}),
		},
		{
			name:    "student cannot create",
			caller:  student("stu-1"),
			event:   domain.NewEvent("Go meetup", "", "", startsAt, nil, "", time.Time{}, time.Time{}),
			wantErr: domain.ErrNotOrganizer,
		},
		{
			name:    "missing title",
			caller:  organizer("org-1"),
			event:   domain.NewEvent("   ", "", "", startsAt, nil, "", time.Time{}, time.Time{}),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "missing start",
			caller:  organizer("org-1"),
			event:   domain.NewEvent("Go meetup", "", "", time.Time{}, nil, "", time.Time{}, time.Time{}),
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "negative capacity",
			caller:  organizer("org-1"),
			event:   domain.NewEvent("Go meetup", "", "", startsAt, intPtr(-1), "", time.Time{}, time.Time{}),
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture()
			svc := NewEventService(f.events, f.ledger, time.Second)

			err := svc.Create(ctx, tt.caller, tt.event)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, tt.event.ID)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, tt.event.ID)
			assert.Equal(t, tt.caller.UserID, tt.event.OwnerID)
			assert.False(t, tt.event.CreatedAt.IsZero())

			stored, err := f.events.GetByID(ctx, tt.event.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.event.Title, stored.Title)
			assert.Equal(t, strings.TrimSpace(stored.Title), stored.Title)
		})
	}
}

func TestEventService_CreateRepoError(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewEventService(&failingEventRepo{err: boom}, nil, 0)
	err := svc.Create(context.Background(), organizer("org-1"),
		domain.NewEvent("Go meetup", "", "", time.Now().Add(time.Hour), nil, "", time.Time{}, time.Time{}))
	require.ErrorIs(t, err, boom)
}

func TestEventService_Get(t *testing.T) {
	ctx := context.Background()
	f := newRegistrationFixture()
	svc := NewEventService(f.events, f.ledger, time.Second)
	registrations := f.service(nil)
	ev := f.event(t, time.Now().Add(time.Hour), intPtr(2))

	_, err := registrations.Register(ctx, student("stu-1"), ev.ID)
	require.NoError(t, err)

	details, err := svc.Get(ctx, student("stu-1"), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, details.Event.ID)
	assert.Equal(t, 1, details.LiveCount)
	require.NotNil(t, details.SpotsLeft)
	assert.Equal(t, 1, *details.SpotsLeft)
	assert.True(t, details.IsRegistered)
	assert.False(t, details.IsOrganizer)

	details, err = svc.Get(ctx, student("stu-2"), ev.ID)
	require.NoError(t, err)
	assert.False(t, details.IsRegistered)

	details, err = svc.Get(ctx, organizer("org-1"), ev.ID)
	require.NoError(t, err)
	assert.True(t, details.IsOrganizer)
	assert.False(t, details.IsRegistered)

	_, err = svc.Get(ctx, student("stu-1"), "6f1c1c3e-3b8e-4d55-9a43-1b5c1f0f5a01")
	require.ErrorIs(t, err, domain.ErrEventNotFound)

	_, err = svc.Get(ctx, student("stu-1"), "bogus")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
