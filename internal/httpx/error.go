package httpx

import (
	"log/slog"
	"net/http"

	"github.com/complaint-register/api/internal/middleware"
)

type ErrorEnvelope struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"requestId"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorEnvelope{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		RequestID: middleware.RequestIDFromContext(r.Context()),
	})
}

// WriteInternal logs err on the request logger and answers with a generic 500.
func WriteInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, err error) {
	middleware.LoggerFromContext(r.Context(), logger).Error(message, "error", err)
	WriteError(w, r, http.StatusInternalServerError, "internal_error", message, nil)
}
