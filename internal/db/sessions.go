package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionRecord is the user row behind a bearer token. Tokens are issued by
// the auth service; this package only reads them back.
type SessionRecord struct {
	UserID    int64
	Name      string
	Email     string
	Phone     string
	IsAdmin   bool
	ExpiresAt time.Time
}

// LookupSession finds the user holding token. Expiry is left to the caller.
func (c conn) LookupSession(ctx context.Context, token string) (*SessionRecord, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var (
		rec    SessionRecord
		expiry sql.NullTime
	)
	err := c.queryRow(ctx, `
		SELECT id, name, email, phone, is_admin, token_expiry
		FROM users WHERE session_token = ?`, token,
	).Scan(&rec.UserID, &rec.Name, &rec.Email, &rec.Phone, &rec.IsAdmin, &expiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	rec.ExpiresAt = expiry.Time
	return &rec, nil
}

// PutSession creates or updates the user identified by rec.Email and binds
// token to it. It returns the user id.
func (c conn) PutSession(ctx context.Context, rec SessionRecord, token string) (int64, error) {
	var id int64
	err := c.queryRow(ctx, `
		INSERT INTO users (name, email, phone, is_admin, session_token, token_expiry, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			is_admin = excluded.is_admin,
			session_token = excluded.session_token,
			token_expiry = excluded.token_expiry
		RETURNING id`,
		rec.Name, rec.Email, rec.Phone, rec.IsAdmin, token, rec.ExpiresAt.UTC(), nowUTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("put session for %s: %w", rec.Email, err)
	}
	return id, nil
}
