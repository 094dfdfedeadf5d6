package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/delivery/http/middleware"
	"campusticketing/internal/domain"
)

type RegistrationController struct {
	Logger  *slog.Logger
	Service domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, svc domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:  logger,
		Service: svc,
	}
}

// callerFromRequest returns the authenticated caller or writes 401.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return domain.Caller{}, false
	}
	return caller, true
}

// RegistrationResponse is a registration as returned to its student. QRPayload is the
// string to encode in the ticket QR code; it equals the token.
type RegistrationResponse struct {
	Token      string                    `json:"token"`
	EventID    string                    `json:"event_id"`
	StudentID  string                    `json:"student_id"`
	Status     domain.RegistrationStatus `json:"status"`
	CreatedAt  time.Time                 `json:"created_at"`
	AttendedAt *time.Time                `json:"attended_at"`
	QRPayload  string                    `json:"qr_payload"`
}

func newRegistrationResponse(reg *domain.Registration) RegistrationResponse {
	return RegistrationResponse{
		Token:      reg.Token,
		EventID:    reg.EventID,
		StudentID:  reg.StudentID,
		Status:     reg.Status,
		CreatedAt:  reg.CreatedAt,
		AttendedAt: reg.AttendedAt,
		QRPayload:  reg.Token,
	}
}

// RegisterSuccessResponse is the success response envelope for POST /student/events/{eventID}/registrations (201).
type RegisterSuccessResponse struct {
	Data  RegistrationResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// Register godoc
// @Summary Register the current student for an event
// @Description Takes one spot of the event for the authenticated student and returns the ticket token. At most one live registration per student and event; never more live registrations than the event capacity.
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 201 {object} controllers.RegisterSuccessResponse "data contains the new registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request | event_in_past"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_student"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_registered | event_full"
// @Failure 429 {object} helpers.APIResponse "error.code: rate_limited"
// @Failure 503 {object} helpers.APIResponse "error.code: retryable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /student/events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reg, err := c.Service.Register(r.Context(), caller, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, newRegistrationResponse(reg))
}

// MyRegistrationItem is an item in the response for GET /student/registrations.
type MyRegistrationItem struct {
	Token         string                    `json:"token"`
	EventID       string                    `json:"event_id"`
	EventTitle    string                    `json:"event_title"`
	EventStartsAt time.Time                 `json:"event_starts_at"`
	EventLocation string                    `json:"event_location"`
	Status        domain.RegistrationStatus `json:"status"`
	Attended      bool                      `json:"attended"`
	CreatedAt     time.Time                 `json:"created_at"`
	QRPayload     string                    `json:"qr_payload"`
}

// ListMyRegistrationsSuccessResponse is the success response envelope for GET /student/registrations (200).
type ListMyRegistrationsSuccessResponse struct {
	Data  []MyRegistrationItem `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// ListMine godoc
// @Summary List the current student's registrations
// @Description Returns the student's registrations for upcoming and recently started events, newest event first.
// @Tags student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyRegistrationsSuccessResponse "data is an array of registrations with event details"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_student"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /student/registrations [get]
func (c *RegistrationController) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	items, err := c.Service.ListMine(r.Context(), caller)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}

	out := make([]MyRegistrationItem, 0, len(items))
	for _, it := range items {
		out = append(out, MyRegistrationItem{
			Token:         it.Registration.Token,
			EventID:       it.Event.ID,
			EventTitle:    it.Event.Title,
			EventStartsAt: it.Event.StartsAt,
			EventLocation: it.Event.Location,
			Status:        it.Registration.Status,
			Attended:      it.Registration.Status == domain.StatusAttended,
			CreatedAt:     it.Registration.CreatedAt,
			QRPayload:     it.Registration.Token,
		})
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// CancelResponse is the data returned after a registration is cancelled.
type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

// CancelSuccessResponse is the success response envelope for the cancel endpoints (200).
type CancelSuccessResponse struct {
	Data  CancelResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Cancel godoc
// @Summary Cancel a registration by token
// @Description Releases the spot held by the student's registration. Only possible before the event starts and before check-in.
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param token path string true "Registration token (UUID)"
// @Success 200 {object} controllers.CancelSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_student | not_registration_owner"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_started | already_attended"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /student/registrations/{token} [delete]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing token")
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	if err := c.Service.Cancel(r.Context(), caller, token); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelResponse{Cancelled: true})
}

// CancelForEvent godoc
// @Summary Cancel the current student's registration for an event
// @Description Same as cancelling by token, addressed by event.
// @Tags student
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.CancelSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_student"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: event_started | already_attended"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /student/events/{eventID}/registrations [delete]
func (c *RegistrationController) CancelForEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	if err := c.Service.CancelForEvent(r.Context(), caller, eventID); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelResponse{Cancelled: true})
}
