package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"aura/internal/availability"
	"aura/internal/booking"
	"aura/internal/db"
	"aura/internal/session"
)

// writeServiceError maps domain errors to status codes. Anything unmapped
// is logged and answered with a generic 500.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, session.ErrExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "session expired", Code: "session_expired"})
	case errors.Is(err, session.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "unauthenticated"})
	case errors.Is(err, booking.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Code: "forbidden"})
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, db.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Code: "not_found"})
	case errors.Is(err, booking.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "the selected time is fully booked", Code: "capacity_exceeded"})
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "slot_unavailable"})
	case errors.Is(err, booking.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.Is(err, db.ErrOverrideExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "an override already exists for this date; delete it first", Code: "override_exists"})
	case errors.Is(err, availability.ErrInvalidRange):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_range"})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
