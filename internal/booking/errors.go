package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrCapacityExceeded means the recount inside the booking transaction
	// found no remaining capacity for the slot.
	ErrCapacityExceeded = errors.New("slot capacity exceeded")
	// ErrSlotUnavailable means the requested date and time is not a bookable
	// slot: closed day, unknown or disabled slot, or outside the open hours.
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// orNil returns e only when it holds at least one field.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
