// Package booking writes reservations and orders. Every write re-checks its
// preconditions inside the transaction that performs it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"aura/internal/availability"
	"aura/internal/db"
	"aura/internal/events"
	"aura/internal/metrics"
	"aura/internal/models"
)

// Store is the transactional side of the relational store.
type Store interface {
	WithTx(ctx context.Context, fn func(tx *db.Tx) error) error
}

// Publisher receives domain events after a write commits.
type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Actor is the verified caller of a write.
type Actor struct {
	UserID  int64
	Name    string
	Email   string
	Phone   string
	IsAdmin bool
}

// Rules bound user input.
type Rules struct {
	MaxGuests              int
	MaxSpecialRequestChars int
}

func DefaultRules() Rules {
	return Rules{MaxGuests: 20, MaxSpecialRequestChars: 500}
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithRules(r Rules) Option {
	return func(s *Service) { s.rules = r }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *zerolog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

type Service struct {
	store     Store
	now       func() time.Time
	loc       *time.Location
	rules     Rules
	publisher Publisher
	logger    *zerolog.Logger
}

func NewService(store Store, opts ...Option) *Service {
	nop := zerolog.Nop()
	s := &Service{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		rules:  DefaultRules(),
		logger: &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) cutoff() availability.SameDayCutoff {
	now := s.now().In(s.loc)
	return availability.SameDayCutoff{Today: models.DateOf(now), Hour: now.Hour()}
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	e.CreatedAt = s.now().UTC()
	s.publisher.Publish(ctx, e)
}

// ReservationRequest is a booking as submitted by a user.
type ReservationRequest struct {
	Date            string
	Time            string
	Guests          int
	SpecialRequests string
}

type reservationInput struct {
	date    models.Date
	at      models.ClockTime
	guests  int
	request string
}

func (s *Service) validateReservation(req ReservationRequest) (reservationInput, error) {
	var (
		in   reservationInput
		verr ValidationError
		err  error
	)
	if strings.TrimSpace(req.Date) == "" {
		verr.add("date", "is required")
	} else if in.date, err = models.ParseDate(req.Date); err != nil {
		verr.add("date", "must be a calendar date (YYYY-MM-DD)")
	}
	if strings.TrimSpace(req.Time) == "" {
		verr.add("time", "is required")
	} else if in.at, err = models.ParseClockTime(req.Time); err != nil {
		verr.add("time", "must be HH:MM")
	}
	switch {
	case req.Guests < 1:
		verr.add("guests", "must be at least 1")
	case s.rules.MaxGuests > 0 && req.Guests > s.rules.MaxGuests:
		verr.add("guests", fmt.Sprintf("must be at most %d", s.rules.MaxGuests))
	}
	in.guests = req.Guests
	in.request = strings.TrimSpace(req.SpecialRequests)
	if limit := s.rules.MaxSpecialRequestChars; limit > 0 && utf8.RuneCountInString(in.request) > limit {
		verr.add("specialRequests", fmt.Sprintf("must be at most %d characters", limit))
	}
	return in, verr.orNil()
}

// CreateReservation books a table for actor. The slot is locked, its
// availability recomputed and the reservation inserted in one transaction,
// so at most maxCapacity active reservations can exist per (date, time).
func (s *Service) CreateReservation(ctx context.Context, actor Actor, req ReservationRequest) (*models.Reservation, error) {
	if actor.UserID == 0 || actor.IsAdmin {
		return nil, ErrForbidden
	}
	in, err := s.validateReservation(req)
	if err != nil {
		return nil, err
	}

	cutoff := s.cutoff()
	if in.date.Before(cutoff.Today) {
		metrics.IncReservationConflict("past_date")
		return nil, fmt.Errorf("%w: %s is in the past", ErrSlotUnavailable, in.date)
	}

	r := &models.Reservation{
		UserID:          actor.UserID,
		Date:            in.date,
		Time:            in.at,
		Guests:          in.guests,
		TableNumber:     0,
		Status:          models.ReservationPending,
		SpecialRequests: in.request,
	}

	err = s.store.WithTx(ctx, func(tx *db.Tx) error {
		if err := tx.LockSlot(ctx, in.date, in.at); err != nil {
			return err
		}
		day, err := availability.LoadDay(ctx, tx, in.date)
		if err != nil {
			return err
		}
		if err := checkSlot(availability.Evaluate(day, &cutoff), in.at); err != nil {
			return err
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return err
		}
		return tx.InsertActivity(ctx, &models.ActivityLog{
			Type:        models.ActivityReservationCreated,
			UserID:      actorID(actor),
			UserName:    models.DisplayName(actor.Name),
			UserEmail:   actor.Email,
			Description: fmt.Sprintf("New reservation: %s at %s for %d guests", r.Date, r.Time, r.Guests),
			RelatedID:   &r.ID,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCapacityExceeded):
			metrics.IncReservationConflict("capacity_exceeded")
		case errors.Is(err, ErrSlotUnavailable):
			metrics.IncReservationConflict("slot_unavailable")
		}
		return nil, err
	}

	metrics.IncReservationCreated()
	s.logger.Info().
		Int64("reservation_id", r.ID).
		Int64("user_id", actor.UserID).
		Str("date", r.Date.String()).
		Str("time", r.Time.String()).
		Int("guests", r.Guests).
		Msg("Reservation created")
	s.publish(ctx, events.Event{Type: events.ReservationCreated, Actor: actor.Name, Reservation: r})
	return r, nil
}

func checkSlot(day availability.DayAvailability, at models.ClockTime) error {
	if day.IsClosed {
		return fmt.Errorf("%w: %s is closed (%s)", ErrSlotUnavailable, day.Date, day.Reason)
	}
	slot, ok := day.Slot(at)
	if !ok {
		return fmt.Errorf("%w: no bookable slot at %s on %s", ErrSlotUnavailable, at, day.Date)
	}
	if slot.Available <= 0 {
		return fmt.Errorf("%w: %s on %s", ErrCapacityExceeded, at, day.Date)
	}
	return nil
}

// ReservationUpdate is a partial admin edit; nil fields are left untouched.
type ReservationUpdate struct {
	Status      *string
	TableNumber *int
	AdminNotes  *string
}

func (s *Service) UpdateReservation(ctx context.Context, actor Actor, id int64, upd ReservationUpdate) (*models.Reservation, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	var (
		next models.ReservationStatus
		verr ValidationError
	)
	if upd.Status != nil {
		st, err := models.ParseReservationStatus(*upd.Status)
		if err != nil {
			verr.add("status", "must be one of Pending, Confirmed, Completed, Cancelled")
		}
		next = st
	}
	if upd.TableNumber != nil && *upd.TableNumber < 0 {
		verr.add("tableNumber", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	var (
		r    *models.Reservation
		prev models.ReservationStatus
	)
	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		var err error
		if r, err = tx.GetReservation(ctx, id); err != nil {
			return mapNotFound(err)
		}
		prev = r.Status
		if upd.Status != nil {
			if !prev.CanTransitionTo(next) {
				return fmt.Errorf("%w: reservation %d from %s to %s", ErrInvalidTransition, id, prev, next)
			}
			r.Status = next
		}
		if upd.TableNumber != nil {
			r.TableNumber = *upd.TableNumber
		}
		if upd.AdminNotes != nil {
			r.AdminNotes = *upd.AdminNotes
		}
		if err := tx.UpdateReservation(ctx, r); err != nil {
			return mapNotFound(err)
		}

		entry := &models.ActivityLog{
			Type:        models.ActivityReservationUpdated,
			UserID:      actorID(actor),
			UserName:    models.DisplayName(actor.Name),
			UserEmail:   actor.Email,
			Description: fmt.Sprintf("Reservation #%d updated: %s -> %s", r.ID, prev, r.Status),
			RelatedID:   &r.ID,
		}
		if r.Status == models.ReservationCancelled && prev != models.ReservationCancelled {
			entry.Type = models.ActivityReservationCancelled
			entry.Description = fmt.Sprintf("Reservation cancelled: %s at %s", r.Date, r.Time)
		}
		return tx.InsertActivity(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if r.Status != prev {
		metrics.IncReservationTransition(string(r.Status))
	}
	s.logger.Info().
		Int64("reservation_id", r.ID).
		Str("from", string(prev)).
		Str("to", string(r.Status)).
		Msg("Reservation updated")
	s.publish(ctx, events.Event{Type: events.ReservationUpdated, Actor: actor.Name, Reservation: r})
	return r, nil
}

// DeleteReservation removes the row outright. Cancelling is the usual path;
// this is for records entered by mistake.
func (s *Service) DeleteReservation(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		if err := tx.DeleteReservation(ctx, id); err != nil {
			return mapNotFound(err)
		}
		return tx.InsertActivity(ctx, &models.ActivityLog{
			Type:        models.ActivityReservationCancelled,
			UserID:      actorID(actor),
			UserName:    models.DisplayName(actor.Name),
			UserEmail:   actor.Email,
			Description: fmt.Sprintf("Reservation #%d deleted (%s at %s)", r.ID, r.Date, r.Time),
			RelatedID:   &r.ID,
		})
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("reservation_id", id).Msg("Reservation deleted")
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func actorID(a Actor) *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}
