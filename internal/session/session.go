// Package session verifies bearer credentials issued by the external auth
// service and turns them into a Principal.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aura/internal/db"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrExpired         = errors.New("session expired")
)

// Principal is a verified caller.
type Principal struct {
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Lookup reads the user row bound to a session token.
type Lookup interface {
	LookupSession(ctx context.Context, token string) (*db.SessionRecord, error)
}

// SQLVerifier checks tokens against the users table.
type SQLVerifier struct {
	store Lookup
	now   func() time.Time
}

func NewSQLVerifier(store Lookup, now func() time.Time) *SQLVerifier {
	if now == nil {
		now = time.Now
	}
	return &SQLVerifier{store: store, now: now}
}

func (v *SQLVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	rec, err := v.store.LookupSession(ctx, token)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}
	if !rec.ExpiresAt.After(v.now()) {
		return nil, ErrExpired
	}
	return &Principal{
		UserID:    rec.UserID,
		Name:      rec.Name,
		Email:     rec.Email,
		Phone:     rec.Phone,
		IsAdmin:   rec.IsAdmin,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}
