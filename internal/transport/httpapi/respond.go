package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"roadportal/internal/bootstrap/logging"
	"roadportal/internal/errs"
)

const maxJSONBody = 1 << 20

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code          string `json:"code"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeCreated(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindUnauthenticated:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindStateConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and a caller-safe message. Server-side
// failures get a correlation id that also appears in the log line.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	body := &errorBody{Code: string(kind)}

	message := errs.PublicMessage(err)
	if status >= http.StatusInternalServerError {
		body.CorrelationID = uuid.NewString()
		message = "system error"
		if kind == errs.KindStorage {
			message = "file storage is unavailable"
		}
		logging.Error(r.Context(), "request failed",
			slog.String("correlation_id", body.CorrelationID),
			slog.Any("err", errs.Loggable(err)),
		)
	} else {
		logging.Info(r.Context(), "request rejected",
			slog.String("kind", string(kind)),
			slog.String("reason", message),
		)
	}

	writeJSON(w, status, envelope{Success: false, Message: message, Error: body})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.Validationf("request body is required")
		}
		return errs.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

// parseDate reads an optional YYYY-MM-DD value in loc.
func parseDate(raw string, field string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", trimmed, loc)
	if err != nil {
		return nil, errs.Validationf("%s must be YYYY-MM-DD", field)
	}
	return &t, nil
}
