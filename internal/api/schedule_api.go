package api

import (
	"net/http"
	"strings"

	"aura/internal/booking"
	"aura/internal/models"
)

// ScheduleRequest is the body of PUT /api/schedule/{weekday}. Empty times
// fall back to the engine defaults.
type ScheduleRequest struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// SlotRequest is the body of POST /api/schedule/{weekday}/slots.
type SlotRequest struct {
	Time            string `json:"time"`
	MaxReservations *int   `json:"maxReservations,omitempty"` // default 1
	IsEnabled       *bool  `json:"isEnabled,omitempty"`       // default true
}

// OverrideRequest is the body of POST /api/date-overrides.
type OverrideRequest struct {
	Date      string `json:"date"`
	IsClosed  bool   `json:"isClosed"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// optionalClock parses s when set; an empty value stays empty.
func optionalClock(s string, field string, verr *booking.ValidationError) models.ClockTime {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	t, err := models.ParseClockTime(s)
	if err != nil {
		addField(verr, field, "must be HH:MM")
		return ""
	}
	return t
}

func addField(verr *booking.ValidationError, field, msg string) {
	if verr.Fields == nil {
		verr.Fields = make(map[string]string)
	}
	verr.Fields[field] = msg
}

func checkHours(open, closing models.ClockTime, verr *booking.ValidationError) {
	if open != "" && closing != "" && closing <= open {
		addField(verr, "closeTime", "must be after openTime")
	}
}

// GET /api/schedule. Public: guests read opening hours from it.
func (s *HTTPServer) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListWeeklySchedules(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// PUT /api/schedule/{weekday}
func (s *HTTPServer) handleUpsertSchedule(w http.ResponseWriter, r *http.Request) {
	weekday, err := models.ParseWeekday(r.PathValue("weekday"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var verr booking.ValidationError
	sched := &models.WeeklySchedule{
		Weekday:   weekday,
		IsOpen:    req.IsOpen,
		OpenTime:  optionalClock(req.OpenTime, "openTime", &verr),
		CloseTime: optionalClock(req.CloseTime, "closeTime", &verr),
	}
	checkHours(sched.OpenTime, sched.CloseTime, &verr)
	if len(verr.Fields) > 0 {
		s.writeServiceError(w, r, &verr)
		return
	}

	if err := s.store.UpsertWeeklySchedule(r.Context(), sched); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info().
		Str("weekday", weekday.String()).
		Bool("open", sched.IsOpen).
		Str("open_time", sched.OpenTime.String()).
		Str("close_time", sched.CloseTime.String()).
		Msg("Weekly schedule updated")
	writeJSON(w, http.StatusOK, sched)
}

// POST /api/schedule/{weekday}/slots
func (s *HTTPServer) handleUpsertSlot(w http.ResponseWriter, r *http.Request) {
	weekday, err := models.ParseWeekday(r.PathValue("weekday"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req SlotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var verr booking.ValidationError
	slot := &models.TimeSlot{MaxCapacity: 1, IsEnabled: true}
	if strings.TrimSpace(req.Time) == "" {
		addField(&verr, "time", "is required")
	} else {
		slot.Time = optionalClock(req.Time, "time", &verr)
	}
	if req.MaxReservations != nil {
		if *req.MaxReservations < 1 {
			addField(&verr, "maxReservations", "must be at least 1")
		}
		slot.MaxCapacity = *req.MaxReservations
	}
	if req.IsEnabled != nil {
		slot.IsEnabled = *req.IsEnabled
	}
	if len(verr.Fields) > 0 {
		s.writeServiceError(w, r, &verr)
		return
	}

	if err := s.store.UpsertTimeSlot(r.Context(), weekday, slot); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info().
		Str("weekday", weekday.String()).
		Str("time", slot.Time.String()).
		Int("capacity", slot.MaxCapacity).
		Bool("enabled", slot.IsEnabled).
		Msg("Time slot saved")
	writeJSON(w, http.StatusOK, slot)
}

// DELETE /api/schedule/slots/{id}
func (s *HTTPServer) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTimeSlot(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/date-overrides?from=YYYY-MM-DD&to=YYYY-MM-DD
func (s *HTTPServer) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	var from, to models.Date
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = models.ParseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = models.ParseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
			return
		}
	}

	list, err := s.store.ListDateOverrides(r.Context(), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// POST /api/date-overrides. A date holds at most one override; replacing
// one means deleting it first.
func (s *HTTPServer) handleCreateOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var verr booking.ValidationError
	o := &models.DateOverride{
		IsClosed:  req.IsClosed,
		OpenTime:  optionalClock(req.OpenTime, "openTime", &verr),
		CloseTime: optionalClock(req.CloseTime, "closeTime", &verr),
		Reason:    strings.TrimSpace(req.Reason),
	}
	if strings.TrimSpace(req.Date) == "" {
		addField(&verr, "date", "is required")
	} else if d, err := models.ParseDate(req.Date); err != nil {
		addField(&verr, "date", "must be a calendar date (YYYY-MM-DD)")
	} else {
		o.Date = d
	}
	checkHours(o.OpenTime, o.CloseTime, &verr)
	if len(verr.Fields) > 0 {
		s.writeServiceError(w, r, &verr)
		return
	}

	if err := s.store.InsertDateOverride(r.Context(), o); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info().
		Str("date", o.Date.String()).
		Bool("closed", o.IsClosed).
		Str("reason", o.Reason).
		Msg("Date override created")
	writeJSON(w, http.StatusCreated, o)
}

// DELETE /api/date-overrides/{id}
func (s *HTTPServer) handleDeleteOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteDateOverride(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
