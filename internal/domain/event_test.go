package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestEvent_SpotsLeft(t *testing.T) {
	tests := []struct {
		name     string
		capacity *int
		live     int
		want     *int
	}{
		{"unlimited", nil, 42, nil},
		{"room left", intPtr(10), 3, intPtr(7)},
		{"exactly full", intPtr(2), 2, intPtr(0)},
		{"over capacity clamps to zero", intPtr(2), 5, intPtr(0)},
		{"zero capacity", intPtr(0), 0, intPtr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Event{Capacity: tt.capacity}
			assert.Equal(t, tt.want, e.SpotsLeft(tt.live))
		})
	}
}

func TestEvent_HasStarted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, (&Event{StartsAt: now.Add(time.Second)}).HasStarted(now))
	assert.True(t, (&Event{StartsAt: now}).HasStarted(now))
	assert.True(t, (&Event{StartsAt: now.Add(-time.Hour)}).HasStarted(now))
}

func TestCaller_Capabilities(t *testing.T) {
	student := NewCaller("u1", RoleStudent)
	organizer := NewCaller("u2", RoleOrganizer)
	event := &Event{ID: "ev-1", OwnerID: "u2"}

	assert.True(t, student.IsStudent())
	assert.False(t, student.IsOrganizer())
	assert.True(t, organizer.IsOrganizer())
	assert.True(t, organizer.Owns(event))
	assert.False(t, NewCaller("u3", RoleOrganizer).Owns(event))
	assert.False(t, NewCaller("u2", RoleStudent).Owns(event))
	assert.False(t, Caller{Roles: []string{RoleStudent}}.IsStudent())
}
