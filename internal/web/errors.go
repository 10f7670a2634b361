package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err, statusCode)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is written as JSON

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/bulksend/internal/core"
	"github.com/JonMunkholm/bulksend/internal/logging"
	"github.com/JonMunkholm/bulksend/internal/transport"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and writes the mapped
// user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	// Mapped errors log at warn, unmapped ones at error. request_id comes
	// from the logger.
	log := logging.FromContext(r.Context())
	logAt := log.Error
	if core.IsUserFacing(err) {
		logAt = log.Warn
	}
	logAt("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"user_message", core.FormatUserError(err),
	)

	if errors.Is(err, core.ErrTooManyDispatches) {
		w.Header().Set("Retry-After", strconv.Itoa(s.retryAfterSeconds()))
	}

	writeJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps request-level errors to HTTP status codes. Anything not
// listed is treated as a bad request.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrTransportNotReady),
		errors.Is(err, core.ErrTooManyDispatches),
		errors.Is(err, transport.ErrNotConnected):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func (s *Server) retryAfterSeconds() int {
	secs := int(s.cfg.Dispatch.MaxWaitTime.Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
