package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"aura/internal/models"
)

// InsertActivity appends an audit entry. Entries are never updated.
func (c conn) InsertActivity(ctx context.Context, a *models.ActivityLog) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowUTC()
	}
	err := c.queryRow(ctx, `
		INSERT INTO activity_logs (type, user_id, user_name, user_email, description, related_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		string(a.Type), nullInt64(a.UserID), a.UserName, a.UserEmail, a.Description, nullInt64(a.RelatedID), a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", a.Type, err)
	}
	return nil
}

// ActivityFilter narrows ListActivity. Limit defaults to 50 and is capped
// at 500.
type ActivityFilter struct {
	Type     models.ActivityType
	From, To time.Time
	Limit    int
	Offset   int
}

const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 500
)

// ListActivity returns audit entries newest first.
func (c conn) ListActivity(ctx context.Context, f ActivityFilter) ([]models.ActivityLog, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, f.To.UTC())
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q := `SELECT id, type, user_id, user_name, user_email, description, related_id, created_at FROM activity_logs`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := []models.ActivityLog{}
	for rows.Next() {
		var (
			a         models.ActivityLog
			kind      string
			userID    sql.NullInt64
			relatedID sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &kind, &userID, &a.UserName, &a.UserEmail, &a.Description, &relatedID, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Type = models.ActivityType(kind)
		if userID.Valid {
			v := userID.Int64
			a.UserID = &v
		}
		if relatedID.Valid {
			v := relatedID.Int64
			a.RelatedID = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
