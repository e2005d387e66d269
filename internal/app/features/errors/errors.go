// Package errors renders application errors as JSON responses.
//
// Validation and authorization failures carry their human-readable reason
// to the caller. Storage failures do not: clients get an opaque message
// and the real error goes to the log only.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/caretrack/internal/domain/apperr"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps error kinds to HTTP statuses.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func kindLabel(kind apperr.Kind) string {
	switch kind {
	case apperr.KindValidation:
		return "validation"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindAuthorization:
		return "authorization"
	case apperr.KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Render writes err as a JSON error response. Unknown errors are treated
// as storage failures: logged in full, surfaced opaquely.
func Render(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	if kind == apperr.KindStorage {
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		msg = "internal error"
	}

	JSON(w, status, errorResponse{Error: msg, Kind: kindLabel(kind)})
}
