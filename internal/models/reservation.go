package models

import (
	"fmt"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationCompleted ReservationStatus = "Completed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCompleted, ReservationCancelled},
}

// ParseReservationStatus matches a status name case-insensitively.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	for _, st := range []ReservationStatus{ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationCancelled} {
		if equalFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Writing the current status again is a no-op and always allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

// Reservation is a booked table for a date and slot time.
type Reservation struct {
	ID              int64             `json:"id"`
	UserID          int64             `json:"userId"`
	Date            Date              `json:"date"`
	Time            ClockTime         `json:"time"`
	Guests          int               `json:"guests"`
	TableNumber     int               `json:"tableNumber"`
	Status          ReservationStatus `json:"status"`
	SpecialRequests string            `json:"specialRequests,omitempty"`
	AdminNotes      string            `json:"adminNotes,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// Active reports whether the reservation consumes slot capacity.
func (r *Reservation) Active() bool {
	return r.Status != ReservationCancelled
}
