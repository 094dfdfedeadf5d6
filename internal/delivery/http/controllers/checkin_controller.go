package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"campusticketing/internal/delivery/http/helpers"
	"campusticketing/internal/domain"
)

type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// CheckInRequest is the request body for POST /organizer/events/{eventID}/check-ins.
// Token is the scanned QR payload.
type CheckInRequest struct {
	Token string `json:"token"`
}

// Validate implements helpers.Validator.
func (c *CheckInRequest) Validate() []string {
	c.Token = strings.TrimSpace(c.Token)
	if c.Token == "" {
		return []string{"token is required"}
	}
	return nil
}

// CheckInSuccessResponse is the success response envelope for POST /organizer/events/{eventID}/check-ins (200).
type CheckInSuccessResponse struct {
	Data  *domain.Registration `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// CheckIn godoc
// @Summary Check in a scanned ticket
// @Description Marks the registration identified by the scanned token as attended. Succeeds at most once per token. Only the event organizer may scan.
// @Tags organizer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CheckInRequest true "Scanned token"
// @Success 200 {object} controllers.CheckInSuccessResponse "data contains the attended registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_event_organizer"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: already_attended | wrong_event"
// @Failure 503 {object} helpers.APIResponse "error.code: retryable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /organizer/events/{eventID}/check-ins [post]
func (c *CheckInController) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req CheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reg, err := c.Service.CheckIn(r.Context(), caller, eventID, req.Token)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, reg)
}

// ParticipantsResponse is the response body for GET /organizer/events/{eventID}/participants.
type ParticipantsResponse struct {
	Event         *domain.Event          `json:"event"`
	LiveCount     int                    `json:"live_count"`
	AttendedCount int                    `json:"attended_count"`
	SpotsLeft     *int                   `json:"spots_left"`
	Registrations []*domain.Registration `json:"registrations"`
	Pagination    helpers.PaginationMeta `json:"pagination"`
}

// ParticipantsSuccessResponse is the success response envelope for GET /organizer/events/{eventID}/participants (200).
type ParticipantsSuccessResponse struct {
	Data  ParticipantsResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// Participants godoc
// @Summary List an event's participants
// @Description Returns the event's registrations in registration order with live and attended counts. Only the event organizer may list them.
// @Tags organizer
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ParticipantsSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: not_event_organizer"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /organizer/events/{eventID}/participants [get]
func (c *CheckInController) Participants(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	caller, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)

	p, err := c.Service.Participants(r.Context(), caller, eventID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}

	total := len(p.Registrations)
	start, end := params.Bounds(total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ParticipantsResponse{
		Event:         p.Event,
		LiveCount:     p.LiveCount,
		AttendedCount: p.AttendedCount,
		SpotsLeft:     p.SpotsLeft,
		Registrations: p.Registrations[start:end],
		Pagination:    helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
