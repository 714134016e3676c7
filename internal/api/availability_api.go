package api

import (
	"net/http"

	"aura/internal/metrics"
	"aura/internal/models"
)

// handleDayAvailability returns slot-level availability for one date. Any
// time-of-day in the path value is ignored.
// GET /api/availability/{date}
func (s *HTTPServer) handleDayAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncAvailabilityRequest("day")

	date, err := models.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	day, err := s.engine.Day(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// handleCalendar returns one status entry per day in the inclusive range.
// GET /api/availability/calendar/{start}/{end}
func (s *HTTPServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	metrics.IncAvailabilityRequest("range")

	start, err := models.ParseDate(r.PathValue("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date format; expected YYYY-MM-DD")
		return
	}
	end, err := models.ParseDate(r.PathValue("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date format; expected YYYY-MM-DD")
		return
	}

	days, err := s.engine.Range(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}
