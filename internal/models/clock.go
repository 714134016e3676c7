package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a local time-of-day in "HH:MM" form.
//
// Values produced by ParseClockTime are zero-padded, so lexicographic order
// equals chronological order. Values read back from the store are kept as
// written; Hour reports whether the leading hour component is usable.
type ClockTime string

// ParseClockTime validates s as H:MM or HH:MM (00:00-23:59) and returns the
// zero-padded form.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(mm) != 2 || hh == "" || len(hh) > 2 {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("invalid time %q: hour out of range", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("invalid time %q: minute out of range", s)
	}
	return ClockTime(fmt.Sprintf("%02d:%02d", h, m)), nil
}

// MustClockTime is ParseClockTime for literals; it panics on bad input.
func MustClockTime(s string) ClockTime {
	t, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Hour returns the leading integer before ':'. ok is false when the value is
// empty or the hour component does not parse.
func (t ClockTime) Hour() (hour int, ok bool) {
	head, _, _ := strings.Cut(strings.TrimSpace(string(t)), ":")
	if head == "" {
		return 0, false
	}
	h, err := strconv.Atoi(head)
	if err != nil {
		return 0, false
	}
	return h, true
}

// IsZero reports whether no time is set.
func (t ClockTime) IsZero() bool { return strings.TrimSpace(string(t)) == "" }

// Or returns t, or fallback when t is empty.
func (t ClockTime) Or(fallback ClockTime) ClockTime {
	if t.IsZero() {
		return fallback
	}
	return t
}

func (t ClockTime) String() string { return string(t) }
