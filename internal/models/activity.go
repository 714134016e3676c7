package models

import (
	"strings"
	"time"
	"unicode"
)

type ActivityType string

const (
	ActivityUserRegistered       ActivityType = "UserRegistered"
	ActivityUserLogin            ActivityType = "UserLogin"
	ActivityAdminLogin           ActivityType = "AdminLogin"
	ActivityUserLogout           ActivityType = "UserLogout"
	ActivityReservationCreated   ActivityType = "ReservationCreated"
	ActivityReservationUpdated   ActivityType = "ReservationUpdated"
	ActivityReservationCancelled ActivityType = "ReservationCancelled"
	ActivityOrderCreated         ActivityType = "OrderCreated"
	ActivityOrderUpdated         ActivityType = "OrderUpdated"
	ActivityOrderCancelled       ActivityType = "OrderCancelled"
)

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID          int64        `json:"id"`
	Type        ActivityType `json:"type"`
	UserID      *int64       `json:"userId,omitempty"`
	UserName    string       `json:"userName"`
	UserEmail   string       `json:"userEmail,omitempty"`
	Description string       `json:"description"`
	RelatedID   *int64       `json:"relatedEntityId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// DisplayName turns "ana marija horvat" into "Ana H.". Single names are only
// capitalized; empty input yields "Guest".
func DisplayName(full string) string {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "Guest"
	case 1:
		return capitalize(parts[0])
	}
	last := []rune(parts[len(parts)-1])
	return capitalize(parts[0]) + " " + string(unicode.ToUpper(last[0])) + "."
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
