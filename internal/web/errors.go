package web

// errors.go provides unified error responses for the web layer.
//
// Every failure is logged server-side with the technical error and the
// request ID, then returned to the client as the JSON envelope
//
//	{"success": false, "message": "...", "action": "...", "code": "FILE002"}
//
// with the message taken from core.MapError so technical details never
// reach the client.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/logging"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message with status.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	s.respondErrorMessage(w, r, err, status, "")
}

// respondErrorMessage is respondError with an explicit client message,
// used where a route has a fixed wording for unexpected failures.
func (s *Server) respondErrorMessage(w http.ResponseWriter, r *http.Request, err error, status int, message string) {
	userMsg := core.MapError(err)
	if message != "" {
		userMsg.Message = message
	}

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"user_error", core.FormatUserError(err),
	}
	// Unmapped errors reach clients only as the generic message, so they
	// are logged loudly whatever the status.
	if status >= http.StatusInternalServerError || !core.IsUserFacing(err) {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	writeJSON(w, status, ErrorResponse{
		Success: false,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor picks the HTTP status for a load failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, core.ErrNoValidData),
		errors.Is(err, core.ErrRowTooLarge),
		errors.Is(err, core.ErrInvalidJSONData),
		errors.Is(err, core.ErrFileTooLarge),
		errors.Is(err, core.ErrNotCSV),
		errors.Is(err, core.ErrNoFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
