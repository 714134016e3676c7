package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

const scheduleWithSlotsSQL = `
	SELECT s.id, s.weekday, s.is_open, s.open_time, s.close_time, s.updated_at,
	       t.id, t.time, t.max_capacity, t.is_enabled
	FROM weekly_schedules s
	LEFT JOIN time_slots t ON t.schedule_id = s.id`

// ListWeeklySchedules returns every weekday template with its slots in one
// read, ordered by weekday and slot time.
func (c conn) ListWeeklySchedules(ctx context.Context) ([]models.WeeklySchedule, error) {
	rows, err := c.query(ctx, scheduleWithSlotsSQL+` ORDER BY s.weekday, t.time`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// GetWeeklySchedule returns the template for w, or nil when none exists.
func (c conn) GetWeeklySchedule(ctx context.Context, w models.Weekday) (*models.WeeklySchedule, error) {
	rows, err := c.query(ctx, scheduleWithSlotsSQL+` WHERE s.weekday = ? ORDER BY t.time`, int(w))
	if err != nil {
		return nil, fmt.Errorf("get schedule %s: %w", w, err)
	}
	defer rows.Close()

	list, err := scanSchedules(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func scanSchedules(rows *sql.Rows) ([]models.WeeklySchedule, error) {
	var out []models.WeeklySchedule
	index := make(map[int64]int)

	for rows.Next() {
		var (
			s         models.WeeklySchedule
			weekday   int
			slotID    sql.NullInt64
			slotTime  sql.NullString
			slotCap   sql.NullInt64
			slotOn    sql.NullBool
			openTime  string
			closeTime string
		)
		if err := rows.Scan(&s.ID, &weekday, &s.IsOpen, &openTime, &closeTime, &s.UpdatedAt,
			&slotID, &slotTime, &slotCap, &slotOn); err != nil {
			return nil, err
		}

		i, ok := index[s.ID]
		if !ok {
			s.Weekday = models.Weekday(weekday)
			s.OpenTime = models.ClockTime(openTime)
			s.CloseTime = models.ClockTime(closeTime)
			s.Slots = []models.TimeSlot{}
			out = append(out, s)
			i = len(out) - 1
			index[s.ID] = i
		}
		if slotID.Valid {
			out[i].Slots = append(out[i].Slots, models.TimeSlot{
				ID:          slotID.Int64,
				ScheduleID:  out[i].ID,
				Time:        models.ClockTime(slotTime.String),
				MaxCapacity: int(slotCap.Int64),
				IsEnabled:   slotOn.Bool,
			})
		}
	}
	return out, rows.Err()
}

// CountWeeklySchedules reports how many weekday templates exist.
func (c conn) CountWeeklySchedules(ctx context.Context) (int, error) {
	var n int
	if err := c.queryRow(ctx, `SELECT COUNT(*) FROM weekly_schedules`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertWeeklySchedule creates or replaces the template row for s.Weekday.
// Slots are left untouched.
func (c conn) UpsertWeeklySchedule(ctx context.Context, s *models.WeeklySchedule) error {
	if !s.Weekday.Valid() {
		return fmt.Errorf("upsert schedule: invalid weekday %d", s.Weekday)
	}
	s.UpdatedAt = nowUTC()
	err := c.queryRow(ctx, `
		INSERT INTO weekly_schedules (weekday, is_open, open_time, close_time, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(weekday) DO UPDATE SET
			is_open = excluded.is_open,
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			updated_at = excluded.updated_at
		RETURNING id`,
		int(s.Weekday), s.IsOpen, string(s.OpenTime), string(s.CloseTime), s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("upsert schedule %s: %w", s.Weekday, err)
	}
	return nil
}

// UpsertTimeSlot creates or updates the slot keyed by (weekday, time).
// ErrNotFound is returned when the weekday has no template yet.
func (c conn) UpsertTimeSlot(ctx context.Context, w models.Weekday, slot *models.TimeSlot) error {
	var scheduleID int64
	err := c.queryRow(ctx, `SELECT id FROM weekly_schedules WHERE weekday = ?`, int(w)).Scan(&scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("schedule for %s: %w", w, ErrNotFound)
	}
	if err != nil {
		return err
	}

	slot.ScheduleID = scheduleID
	err = c.queryRow(ctx, `
		INSERT INTO time_slots (schedule_id, time, max_capacity, is_enabled)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(schedule_id, time) DO UPDATE SET
			max_capacity = excluded.max_capacity,
			is_enabled = excluded.is_enabled
		RETURNING id`,
		scheduleID, string(slot.Time), slot.MaxCapacity, slot.IsEnabled,
	).Scan(&slot.ID)
	if err != nil {
		return fmt.Errorf("upsert slot %s %s: %w", w, slot.Time, err)
	}
	return nil
}

func (c conn) DeleteTimeSlot(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, `DELETE FROM time_slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete slot %d: %w", id, err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return fmt.Errorf("slot %d: %w", id, err)
	}
	return nil
}
