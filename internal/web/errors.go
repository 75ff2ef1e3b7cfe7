package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request ID, then
// returned to the client as a JSON body carrying the user message, a
// suggested action and the support code from core.MapError.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/tabexport/internal/core"
	"github.com/JonMunkholm/tabexport/internal/logging"
	"github.com/JonMunkholm/tabexport/internal/source"
)

var (
	errRateLimited   = errors.New("rate limit exceeded")
	errInvalidFilter = errors.New("invalid filter")
	errInvalidBody   = errors.New("invalid request body")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status for an export error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, errInvalidFilter),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownPreset):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyExports),
		errors.Is(err, core.ErrExportsClosed),
		errors.Is(err, source.ErrSourceNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error server-side and writes the mapped
// user message. Busy responses carry a Retry-After hint.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	// Client mistakes with a known message are routine; anything else is ours.
	level := slog.LevelError
	if statusCode < http.StatusInternalServerError && core.IsUserFacing(err) {
		level = slog.LevelWarn
	}

	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if errors.Is(err, core.ErrTooManyExports) {
		w.Header().Set("Retry-After", strconv.Itoa(int(s.cfg.Export.MaxWaitTime.Seconds())))
	}
	respondErrorJSON(w, userMsg, statusCode)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
