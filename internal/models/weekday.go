package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the store's day numbering: Monday=0 through Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// AllWeekdays lists the store weekdays in order.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf converts Go's Sunday-first numbering to the store's Monday-first
// numbering: Sunday becomes 6, every other day shifts down by one.
func WeekdayOf(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d - 1)
}

// ParseWeekday accepts a day name (case-insensitive, "mon" prefixes too) or
// its store number 0-6.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		w := Weekday(n)
		if !w.Valid() {
			return 0, fmt.Errorf("invalid weekday %q: expected 0-6", s)
		}
		return w, nil
	}
	if len(s) >= 3 {
		lower := strings.ToLower(s)
		for i, name := range weekdayNames {
			if strings.HasPrefix(strings.ToLower(name), lower) {
				return Weekday(i), nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

func (w Weekday) String() string {
	if !w.Valid() {
		return "Weekday(" + strconv.Itoa(int(w)) + ")"
	}
	return weekdayNames[w]
}
