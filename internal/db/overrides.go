package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aura/internal/models"
)

const overrideColumns = `id, date, is_closed, open_time, close_time, reason, created_at`

func scanOverride(sc interface{ Scan(...any) error }) (*models.DateOverride, error) {
	var (
		o         models.DateOverride
		openTime  string
		closeTime string
	)
	if err := sc.Scan(&o.ID, &o.Date, &o.IsClosed, &openTime, &closeTime, &o.Reason, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.OpenTime = models.ClockTime(openTime)
	o.CloseTime = models.ClockTime(closeTime)
	return &o, nil
}

// GetDateOverride returns the override for date, or nil when none exists.
func (c conn) GetDateOverride(ctx context.Context, date models.Date) (*models.DateOverride, error) {
	o, err := scanOverride(c.queryRow(ctx, `SELECT `+overrideColumns+` FROM date_overrides WHERE date = ?`, date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get override %s: %w", date, err)
	}
	return o, nil
}

// ListDateOverrides returns overrides in [from, to] ordered by date. A zero
// bound leaves that side open.
func (c conn) ListDateOverrides(ctx context.Context, from, to models.Date) ([]models.DateOverride, error) {
	var (
		where []string
		args  []any
	)
	if !from.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, from)
	}
	if !to.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, to)
	}
	q := `SELECT ` + overrideColumns + ` FROM date_overrides`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY date`

	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := []models.DateOverride{}
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// InsertDateOverride stores o as a new override. Overrides are never
// rewritten in place: ErrOverrideExists is returned when the date already
// has one, and the caller must delete it first.
func (c conn) InsertDateOverride(ctx context.Context, o *models.DateOverride) error {
	o.CreatedAt = nowUTC()
	err := c.queryRow(ctx, `
		INSERT INTO date_overrides (date, is_closed, open_time, close_time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO NOTHING
		RETURNING id`,
		o.Date, o.IsClosed, string(o.OpenTime), string(o.CloseTime), o.Reason, o.CreatedAt,
	).Scan(&o.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("override %s: %w", o.Date, ErrOverrideExists)
	}
	if err != nil {
		return fmt.Errorf("insert override %s: %w", o.Date, err)
	}
	return nil
}

// InsertDateOverrideIfAbsent stores o only when its date has no override.
// It reports whether a row was written.
func (c conn) InsertDateOverrideIfAbsent(ctx context.Context, o *models.DateOverride) (bool, error) {
	o.CreatedAt = nowUTC()
	res, err := c.exec(ctx, `
		INSERT INTO date_overrides (date, is_closed, open_time, close_time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO NOTHING`,
		o.Date, o.IsClosed, string(o.OpenTime), string(o.CloseTime), o.Reason, o.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert override %s: %w", o.Date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c conn) DeleteDateOverride(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, `DELETE FROM date_overrides WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete override %d: %w", id, err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return fmt.Errorf("override %d: %w", id, err)
	}
	return nil
}
