// Package availability turns the weekly template, date overrides and booked
// reservations into per-slot and per-day availability.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"aura/internal/models"
)

const (
	DefaultOpenTime  models.ClockTime = "12:00"
	DefaultCloseTime models.ClockTime = "23:00"

	// ClosedReason is reported when the weekday itself is closed.
	ClosedReason = "Closed"
)

var ErrInvalidRange = errors.New("invalid date range")

// Store is the read side the engine works on. Both the store handle and a
// store transaction satisfy it.
type Store interface {
	GetDateOverride(ctx context.Context, date models.Date) (*models.DateOverride, error)
	GetWeeklySchedule(ctx context.Context, w models.Weekday) (*models.WeeklySchedule, error)
	CountActiveByTime(ctx context.Context, date models.Date) (map[models.ClockTime]int, error)

	ListWeeklySchedules(ctx context.Context) ([]models.WeeklySchedule, error)
	ListDateOverrides(ctx context.Context, from, to models.Date) ([]models.DateOverride, error)
	CountActiveInRange(ctx context.Context, from, to models.Date) (map[string]map[models.ClockTime]int, error)
}

// SlotAvailability is one slot with its remaining capacity. Available can
// be negative when a slot is overbooked.
type SlotAvailability struct {
	Time            models.ClockTime `json:"time"`
	Available       int              `json:"available"`
	MaxReservations int              `json:"maxReservations"`
}

// DayAvailability is the slot-level view of one date.
type DayAvailability struct {
	Date      models.Date        `json:"date"`
	IsClosed  bool               `json:"isClosed"`
	Reason    string             `json:"reason,omitempty"`
	OpenTime  models.ClockTime   `json:"openTime,omitempty"`
	CloseTime models.ClockTime   `json:"closeTime,omitempty"`
	Slots     []SlotAvailability `json:"slots"`
	AllSlots  []SlotAvailability `json:"allSlots"`
}

// Slot returns the entry for at from AllSlots.
func (d *DayAvailability) Slot(at models.ClockTime) (SlotAvailability, bool) {
	for _, s := range d.AllSlots {
		if s.Time == at {
			return s, true
		}
	}
	return SlotAvailability{}, false
}

// DayInputs is everything needed to evaluate one date.
type DayInputs struct {
	Date     models.Date
	Override *models.DateOverride
	Schedule *models.WeeklySchedule
	Counts   map[models.ClockTime]int
}

// SameDayCutoff hides slots whose hour is at or before Hour on Today.
type SameDayCutoff struct {
	Today models.Date
	Hour  int
}

// LoadDay reads the override, the weekday template and the reservation
// counts for date.
func LoadDay(ctx context.Context, store Store, date models.Date) (DayInputs, error) {
	in := DayInputs{Date: date}
	var err error

	if in.Override, err = store.GetDateOverride(ctx, date); err != nil {
		return in, fmt.Errorf("load override: %w", err)
	}
	if in.Override != nil && in.Override.IsClosed {
		return in, nil
	}
	if in.Schedule, err = store.GetWeeklySchedule(ctx, date.Weekday()); err != nil {
		return in, fmt.Errorf("load schedule: %w", err)
	}
	if in.Schedule == nil || !in.Schedule.IsOpen {
		return in, nil
	}
	if in.Counts, err = store.CountActiveByTime(ctx, date); err != nil {
		return in, fmt.Errorf("load reservations: %w", err)
	}
	return in, nil
}

// EffectiveHours picks the override's open/close when set, else the
// template's, else the defaults.
func EffectiveHours(o *models.DateOverride, s *models.WeeklySchedule) (open, closing models.ClockTime) {
	open, closing = DefaultOpenTime, DefaultCloseTime
	if s != nil {
		open = s.OpenTime.Or(DefaultOpenTime)
		closing = s.CloseTime.Or(DefaultCloseTime)
	}
	if o != nil {
		open = o.OpenTime.Or(open)
		closing = o.CloseTime.Or(closing)
	}
	return open, closing
}

// Evaluate computes the availability of in.Date. cutoff may be nil.
func Evaluate(in DayInputs, cutoff *SameDayCutoff) DayAvailability {
	day := DayAvailability{
		Date:     in.Date,
		Slots:    []SlotAvailability{},
		AllSlots: []SlotAvailability{},
	}

	if in.Override != nil && in.Override.IsClosed {
		day.IsClosed = true
		day.Reason = in.Override.Reason
		return day
	}
	if in.Schedule == nil || !in.Schedule.IsOpen {
		day.IsClosed = true
		day.Reason = ClosedReason
		return day
	}

	day.OpenTime, day.CloseTime = EffectiveHours(in.Override, in.Schedule)
	openHour, openOK := day.OpenTime.Hour()
	closeHour, closeOK := day.CloseTime.Hour()
	sameDay := cutoff != nil && in.Date.Equal(cutoff.Today)

	for _, slot := range in.Schedule.Slots {
		if !slot.IsEnabled {
			continue
		}
		// Slots with an unreadable hour are never filtered out.
		if h, ok := slot.Time.Hour(); ok {
			if openOK && h < openHour {
				continue
			}
			if closeOK && h >= closeHour {
				continue
			}
			if sameDay && h <= cutoff.Hour {
				continue
			}
		}
		day.AllSlots = append(day.AllSlots, SlotAvailability{
			Time:            slot.Time,
			Available:       slot.MaxCapacity - in.Counts[slot.Time],
			MaxReservations: slot.MaxCapacity,
		})
	}

	sort.SliceStable(day.AllSlots, func(i, j int) bool { return day.AllSlots[i].Time < day.AllSlots[j].Time })
	for _, s := range day.AllSlots {
		if s.Available > 0 {
			day.Slots = append(day.Slots, s)
		}
	}
	return day
}

type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLocation sets the restaurant's zone used to decide "today".
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithMaxRangeDays limits the span of Range requests; 0 means no limit.
func WithMaxRangeDays(n int) Option {
	return func(e *Engine) { e.maxRangeDays = n }
}

// Engine answers availability queries. It keeps no state between calls;
// every call reads the store.
type Engine struct {
	store        Store
	now          func() time.Time
	loc          *time.Location
	maxRangeDays int
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cutoff returns the same-day cutoff for the current local time.
func (e *Engine) Cutoff() SameDayCutoff {
	now := e.now().In(e.loc)
	return SameDayCutoff{Today: models.DateOf(now), Hour: now.Hour()}
}

// Day returns slot-level availability for date.
func (e *Engine) Day(ctx context.Context, date models.Date) (*DayAvailability, error) {
	in, err := LoadDay(ctx, e.store, date)
	if err != nil {
		return nil, err
	}
	cutoff := e.Cutoff()
	day := Evaluate(in, &cutoff)
	return &day, nil
}

type DayStatus string

const (
	StatusAvailable DayStatus = "available"
	StatusLimited   DayStatus = "limited"
	StatusFull      DayStatus = "full"
	StatusClosed    DayStatus = "closed"
)

// CalendarDay is the per-day summary returned by Range.
type CalendarDay struct {
	Date           models.Date `json:"date"`
	Status         DayStatus   `json:"status"`
	IsClosed       bool        `json:"isClosed"`
	Reason         string      `json:"reason,omitempty"`
	AvailableSlots int         `json:"availableSlots"`
	TotalSlots     int         `json:"totalSlots"`
}

// Classify maps slot counts of an open day to a status. A day is limited
// when strictly more than half of its slots (integer division) are taken.
func Classify(total, available int) DayStatus {
	if available == 0 {
		return StatusFull
	}
	if total-available > total/2 {
		return StatusLimited
	}
	return StatusAvailable
}

// Summarize reduces a day to its calendar entry.
func Summarize(day DayAvailability) CalendarDay {
	c := CalendarDay{Date: day.Date, IsClosed: day.IsClosed, Reason: day.Reason}
	if day.IsClosed {
		c.Status = StatusClosed
		return c
	}
	c.TotalSlots = len(day.AllSlots)
	c.AvailableSlots = len(day.Slots)
	c.Status = Classify(c.TotalSlots, c.AvailableSlots)
	return c
}

// Range returns one entry per day in [start, end]. It issues three bulk
// reads regardless of the span; no same-day cutoff applies.
func (e *Engine) Range(ctx context.Context, start, end models.Date) ([]CalendarDay, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start, end)
	}
	span := start.DaysUntil(end) + 1
	if e.maxRangeDays > 0 && span > e.maxRangeDays {
		return nil, fmt.Errorf("%w: %d days exceeds the maximum of %d", ErrInvalidRange, span, e.maxRangeDays)
	}

	schedules, err := e.store.ListWeeklySchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	overrides, err := e.store.ListDateOverrides(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	counts, err := e.store.CountActiveInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	byWeekday := make(map[models.Weekday]*models.WeeklySchedule, len(schedules))
	for i := range schedules {
		byWeekday[schedules[i].Weekday] = &schedules[i]
	}
	byDate := make(map[string]*models.DateOverride, len(overrides))
	for i := range overrides {
		byDate[overrides[i].Date.String()] = &overrides[i]
	}

	out := make([]CalendarDay, 0, span)
	for d := start; !d.After(end); d = d.AddDays(1) {
		in := DayInputs{
			Date:     d,
			Override: byDate[d.String()],
			Schedule: byWeekday[d.Weekday()],
			Counts:   counts[d.String()],
		}
		out = append(out, Summarize(Evaluate(in, nil)))
	}
	return out, nil
}
