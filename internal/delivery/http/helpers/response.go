package helpers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"campusticketing/internal/domain"
)

// Error codes for API error responses. Use these with WriteJSONError.
// Business rejections carry their own code (domain.Rejection.Code).
const (
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeForbidden     = "forbidden"
	ErrCodeNotFound      = "not_found"
	ErrCodeConflict      = "conflict"
	ErrCodeRetryable     = "retryable"
	ErrCodeRateLimited   = "rate_limited"
	ErrCodeInternalError = "internal_error"
)

// RetryAfterSeconds is sent with 503 responses for transient failures.
const RetryAfterSeconds = "1"

// APIError is the error object in the standardized API response envelope.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

// WriteJSONSuccess sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with the given data and error set to nil.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Data: data, Error: nil})
}

// WriteJSONError sets Content-Type to application/json, writes statusCode, and
// encodes an APIResponse with data nil and the given error code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Data:  nil,
		Error: &APIError{Code: code, Message: message},
	})
}

// StatusFor maps a service error to its HTTP status and response code.
func StatusFor(err error) (status int, code string) {
	kind := domain.KindOf(err)
	code = domain.CodeOf(err)
	switch kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
		if code == "" {
			code = ErrCodeBadRequest
		}
	case domain.KindNotFound:
		status = http.StatusNotFound
		if code == "" {
			code = ErrCodeNotFound
		}
	case domain.KindAuthorization:
		status = http.StatusForbidden
		if code == "" {
			code = ErrCodeForbidden
		}
	case domain.KindConflict:
		status = http.StatusConflict
		if code == "" {
			code = ErrCodeConflict
		}
	case domain.KindConcurrency:
		status, code = http.StatusServiceUnavailable, ErrCodeRetryable
	default:
		status, code = http.StatusInternalServerError, ErrCodeInternalError
	}
	return status, code
}

// WriteDomainError writes err using StatusFor. Internal errors are logged and their
// message is not exposed to the client.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		message = "internal server error"
	case http.StatusServiceUnavailable:
		logger.WarnContext(r.Context(), "request failed after retries", "path", r.URL.Path, "method", r.Method, "err", err)
		w.Header().Set("Retry-After", RetryAfterSeconds)
		message = "temporarily unavailable, please retry"
	}
	WriteJSONError(w, status, code, message)
}
