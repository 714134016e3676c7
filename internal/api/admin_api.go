package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"aura/internal/audit"
	"aura/internal/db"
	"aura/internal/models"
)

// GET /api/admin/activity-logs?type=ReservationCreated&limit=50&offset=0
func (s *HTTPServer) handleActivityLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := db.ActivityFilter{Type: models.ActivityType(q.Get("type"))}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		f.Offset = n
	}

	list, err := s.store.ListActivity(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleExport streams an xlsx workbook of reservations and activity.
// GET /api/admin/export?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	from, err := models.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := models.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "from must be before or equal to to")
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := s.exporter.Export(r.Context(), from, to, &buf); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", audit.Filename(from, to)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
