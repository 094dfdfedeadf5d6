package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistrationService implements domain.RegistrationService for handler tests.
type fakeRegistrationService struct {
	registerErr    error
	registerResult *domain.Registration
	cancelErr      error
	listErr        error
	listResult     []*domain.RegistrationWithEvent
	lastCaller     domain.Caller
	lastEventID    string
	lastToken      string
}

func (f *fakeRegistrationService) Register(ctx context.Context, caller domain.Caller, eventID string) (*domain.Registration, error) {
	f.lastCaller = caller
	f.lastEventID = eventID
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerResult, nil
}

func (f *fakeRegistrationService) Cancel(ctx context.Context, caller domain.Caller, token string) error {
	f.lastCaller = caller
	f.lastToken = token
	return f.cancelErr
}

func (f *fakeRegistrationService) CancelForEvent(ctx context.Context, caller domain.Caller, eventID string) error {
	f.lastCaller = caller
	f.lastEventID = eventID
	return f.cancelErr
}

func (f *fakeRegistrationService) ListMine(ctx context.Context, caller domain.Caller) ([]*domain.RegistrationWithEvent, error) {
	f.lastCaller = caller
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func TestRegistrationController_Register(t *testing.T) {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	reg := domain.NewRegistration(testToken, testEventID, "stu-1", created)

	tests := []struct {
		name       string
		fakeErr    error
		noCaller   bool
		wantStatus int
		wantCode   string
		wantRetry  bool
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "unauthenticated", noCaller: true, wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "event full", fakeErr: domain.ErrEventFull, wantStatus: http.StatusConflict, wantCode: "event_full"},
		{name: "already registered", fakeErr: domain.ErrAlreadyRegistered, wantStatus: http.StatusConflict, wantCode: "already_registered"},
		{name: "event in past", fakeErr: domain.ErrEventInPast, wantStatus: http.StatusBadRequest, wantCode: "event_in_past"},
		{name: "not a student", fakeErr: domain.ErrNotStudent, wantStatus: http.StatusForbidden, wantCode: "not_student"},
		{name: "unknown event", fakeErr: domain.ErrEventNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{
			name:       "retries exhausted",
			fakeErr:    fmt.Errorf("%w: lock wait", domain.ErrTransient),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   helpers.ErrCodeRetryable,
			wantRetry:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationService{registerErr: tt.fakeErr, registerResult: reg}
			ctrl := NewRegistrationController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/student/events/"+testEventID+"/registrations", nil)
			req.SetPathValue("eventID", testEventID)
			if !tt.noCaller {
				req = withCaller(req, testStudent)
			}
			rr := httptest.NewRecorder()

			ctrl.Register(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantRetry {
				assert.Equal(t, helpers.RetryAfterSeconds, rr.Header().Get("Retry-After"))
			}
			if tt.wantStatus != http.StatusCreated {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				assert.Nil(t, envelope.Data)
				return
			}
			var got RegistrationResponse
			decodeData(t, envelope, &got)
			assert.Equal(t, testToken, got.Token)
			assert.Equal(t, testToken, got.QRPayload)
			assert.Equal(t, domain.StatusRegistered, got.Status)
			assert.Equal(t, testEventID, fake.lastEventID)
			assert.Equal(t, "stu-1", fake.lastCaller.UserID)
		})
	}
}

func TestRegistrationController_ListMine(t *testing.T) {
	startsAt := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	attended := domain.NewRegistration(testToken, testEventID, "stu-1", startsAt.Add(-time.Hour))
	attended.Status = domain.StatusAttended

	t.Run("success", func(t *testing.T) {
		fake := &fakeRegistrationService{listResult: []*domain.RegistrationWithEvent{{
			Registration: attended,
			Event:        &domain.Event{ID: testEventID, Title: "Go meetup", Location: "Room 101", StartsAt: startsAt},
		}}}
		ctrl := NewRegistrationController(testLogger, fake)
		req := withCaller(httptest.NewRequest(http.MethodGet, "/student/registrations", nil), testStudent)
		rr := httptest.NewRecorder()

		ctrl.ListMine(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var items []MyRegistrationItem
		decodeData(t, decodeEnvelope(t, rr), &items)
		require.Len(t, items, 1)
		assert.Equal(t, "Go meetup", items[0].EventTitle)
		assert.Equal(t, "Room 101", items[0].EventLocation)
		assert.True(t, items[0].Attended)
		assert.Equal(t, testToken, items[0].QRPayload)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		fake := &fakeRegistrationService{listResult: []*domain.RegistrationWithEvent{}}
		ctrl := NewRegistrationController(testLogger, fake)
		req := withCaller(httptest.NewRequest(http.MethodGet, "/student/registrations", nil), testStudent)
		rr := httptest.NewRecorder()

		ctrl.ListMine(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"data":[],"error":null}`, rr.Body.String())
	})

	t.Run("organizer is forbidden", func(t *testing.T) {
		fake := &fakeRegistrationService{listErr: domain.ErrNotStudent}
		ctrl := NewRegistrationController(testLogger, fake)
		req := withCaller(httptest.NewRequest(http.MethodGet, "/student/registrations", nil), testOrganizer)
		rr := httptest.NewRecorder()

		ctrl.ListMine(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
		assert.Equal(t, "not_student", decodeEnvelope(t, rr).Error.Code)
	})
}

func TestRegistrationController_Cancel(t *testing.T) {
	tests := []struct {
		name       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "cancelled", wantStatus: http.StatusOK},
		{name: "someone else's", fakeErr: domain.ErrNotRegistrationOwner, wantStatus: http.StatusForbidden, wantCode: "not_registration_owner"},
		{name: "event started", fakeErr: domain.ErrEventStarted, wantStatus: http.StatusConflict, wantCode: "event_started"},
		{name: "already attended", fakeErr: domain.ErrAlreadyAttended, wantStatus: http.StatusConflict, wantCode: "already_attended"},
		{name: "unknown token", fakeErr: domain.ErrRegistrationNotFound, wantStatus: http.StatusNotFound, wantCode: "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeRegistrationService{cancelErr: tt.fakeErr}
			ctrl := NewRegistrationController(testLogger, fake)

			req := httptest.NewRequest(http.MethodDelete, "/student/registrations/"+testToken, nil)
			req.SetPathValue("token", testToken)
			rr := httptest.NewRecorder()
			ctrl.Cancel(rr, withCaller(req, testStudent))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, testToken, fake.lastToken)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				var got CancelResponse
				decodeData(t, envelope, &got)
				assert.True(t, got.Cancelled)
			} else {
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}

			req = httptest.NewRequest(http.MethodDelete, "/student/events/"+testEventID+"/registrations", nil)
			req.SetPathValue("eventID", testEventID)
			rr = httptest.NewRecorder()
			ctrl.CancelForEvent(rr, withCaller(req, testStudent))

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, testEventID, fake.lastEventID)
		})
	}
}
