package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"aura/internal/booking"
	"aura/internal/db"
	"aura/internal/models"
)

// CreateReservationRequest is the body of POST /api/reservations.
type CreateReservationRequest struct {
	Date            string `json:"date"` // YYYY-MM-DD; a time-of-day is ignored
	Time            string `json:"time"` // HH:MM
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// ReservationSummary is what the guest gets back; it carries nothing about
// other users.
type ReservationSummary struct {
	ID              int64                    `json:"id"`
	Date            models.Date              `json:"date"`
	Time            models.ClockTime         `json:"time"`
	Guests          int                      `json:"guests"`
	Status          models.ReservationStatus `json:"status"`
	SpecialRequests string                   `json:"specialRequests,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
}

func summarize(r *models.Reservation) ReservationSummary {
	return ReservationSummary{
		ID:              r.ID,
		Date:            r.Date,
		Time:            r.Time,
		Guests:          r.Guests,
		Status:          r.Status,
		SpecialRequests: r.SpecialRequests,
		CreatedAt:       r.CreatedAt,
	}
}

// UpdateReservationRequest is a partial admin edit; omitted fields stay.
type UpdateReservationRequest struct {
	Status      *string `json:"status,omitempty"`
	TableNumber *int    `json:"tableNumber,omitempty"`
	AdminNotes  *string `json:"adminNotes,omitempty"`
}

// POST /api/reservations
func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.booking.CreateReservation(r.Context(), actorFrom(r.Context()), booking.ReservationRequest{
		Date:            req.Date,
		Time:            req.Time,
		Guests:          req.Guests,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summarize(res))
}

// GET /api/my-reservations
func (s *HTTPServer) handleMyReservations(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())
	list, err := s.store.ListReservations(r.Context(), db.ReservationFilter{UserID: actor.UserID, NewestFirst: true})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]ReservationSummary, 0, len(list))
	for i := range list {
		out = append(out, summarize(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/reservations?date=YYYY-MM-DD&status=Pending
func (s *HTTPServer) handleListReservations(w http.ResponseWriter, r *http.Request) {
	var f db.ReservationFilter
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := models.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
		f.From, f.To = d, d
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := models.ParseReservationStatus(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = st
	}

	list, err := s.store.ListReservations(r.Context(), f)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// PUT /api/reservations/{id}
func (s *HTTPServer) handleUpdateReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req UpdateReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.booking.UpdateReservation(r.Context(), actorFrom(r.Context()), id, booking.ReservationUpdate{
		Status:      req.Status,
		TableNumber: req.TableNumber,
		AdminNotes:  req.AdminNotes,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DELETE /api/reservations/{id}
func (s *HTTPServer) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.booking.DeleteReservation(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
