package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aura/internal/models"
)

const reservationColumns = `id, user_id, date, time, guests, table_number, status,
	special_requests, admin_notes, created_at, updated_at`

func scanReservation(sc interface{ Scan(...any) error }) (*models.Reservation, error) {
	var (
		r      models.Reservation
		at     string
		status string
	)
	err := sc.Scan(&r.ID, &r.UserID, &r.Date, &at, &r.Guests, &r.TableNumber, &status,
		&r.SpecialRequests, &r.AdminNotes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Time = models.ClockTime(at)
	r.Status = models.ReservationStatus(status)
	return &r, nil
}

// CountActiveByTime counts non-cancelled reservations on date, per slot time.
func (c conn) CountActiveByTime(ctx context.Context, date models.Date) (map[models.ClockTime]int, error) {
	rows, err := c.query(ctx, `
		SELECT time, COUNT(*) FROM reservations
		WHERE date = ? AND status <> ?
		GROUP BY time`,
		date, string(models.ReservationCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("count reservations %s: %w", date, err)
	}
	defer rows.Close()

	out := make(map[models.ClockTime]int)
	for rows.Next() {
		var (
			at string
			n  int
		)
		if err := rows.Scan(&at, &n); err != nil {
			return nil, err
		}
		out[models.ClockTime(at)] = n
	}
	return out, rows.Err()
}

// CountActiveInRange counts non-cancelled reservations in [from, to], keyed
// by YYYY-MM-DD and then slot time.
func (c conn) CountActiveInRange(ctx context.Context, from, to models.Date) (map[string]map[models.ClockTime]int, error) {
	rows, err := c.query(ctx, `
		SELECT date, time, COUNT(*) FROM reservations
		WHERE date >= ? AND date <= ? AND status <> ?
		GROUP BY date, time`,
		from, to, string(models.ReservationCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("count reservations %s..%s: %w", from, to, err)
	}
	defer rows.Close()

	out := make(map[string]map[models.ClockTime]int)
	for rows.Next() {
		var (
			date models.Date
			at   string
			n    int
		)
		if err := rows.Scan(&date, &at, &n); err != nil {
			return nil, err
		}
		key := date.String()
		if out[key] == nil {
			out[key] = make(map[models.ClockTime]int)
		}
		out[key][models.ClockTime(at)] = n
	}
	return out, rows.Err()
}

// CountActiveAt counts non-cancelled reservations for one (date, time).
func (c conn) CountActiveAt(ctx context.Context, date models.Date, at models.ClockTime) (int, error) {
	var n int
	err := c.queryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE date = ? AND time = ? AND status <> ?`,
		date, string(at), string(models.ReservationCancelled),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations %s %s: %w", date, at, err)
	}
	return n, nil
}

// InsertReservation stores r and fills its ID and timestamps.
func (c conn) InsertReservation(ctx context.Context, r *models.Reservation) error {
	now := nowUTC()
	r.CreatedAt, r.UpdatedAt = now, now
	err := c.queryRow(ctx, `
		INSERT INTO reservations (user_id, date, time, guests, table_number, status,
			special_requests, admin_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		r.UserID, r.Date, string(r.Time), r.Guests, r.TableNumber, string(r.Status),
		r.SpecialRequests, r.AdminNotes, r.CreatedAt, r.UpdatedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (c conn) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := scanReservation(c.queryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", id, err)
	}
	return r, nil
}

// UpdateReservation writes the admin-editable fields of r.
func (c conn) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	r.UpdatedAt = nowUTC()
	res, err := c.exec(ctx, `
		UPDATE reservations
		SET status = ?, table_number = ?, admin_notes = ?, updated_at = ?
		WHERE id = ?`,
		string(r.Status), r.TableNumber, r.AdminNotes, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update reservation %d: %w", r.ID, err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return fmt.Errorf("reservation %d: %w", r.ID, err)
	}
	return nil
}

func (c conn) DeleteReservation(ctx context.Context, id int64) error {
	res, err := c.exec(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation %d: %w", id, err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return fmt.Errorf("reservation %d: %w", id, err)
	}
	return nil
}

// ReservationFilter narrows ListReservations. Zero fields do not filter.
type ReservationFilter struct {
	UserID      int64
	From, To    models.Date
	Status      models.ReservationStatus
	NewestFirst bool
}

func (c conn) ListReservations(ctx context.Context, f ReservationFilter) ([]models.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	q := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.NewestFirst {
		q += ` ORDER BY date DESC, time DESC, id DESC`
	} else {
		q += ` ORDER BY date, time, id`
	}

	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []models.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
