package models

import (
	"sort"
	"time"
)

// WeeklySchedule is the template for one weekday.
type WeeklySchedule struct {
	ID        int64      `json:"id"`
	Weekday   Weekday    `json:"dayOfWeek"`
	IsOpen    bool       `json:"isOpen"`
	OpenTime  ClockTime  `json:"openTime"`
	CloseTime ClockTime  `json:"closeTime"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Slots     []TimeSlot `json:"timeSlots"`
}

// TimeSlot is a bookable time-of-day on a weekday with its capacity.
type TimeSlot struct {
	ID          int64     `json:"id"`
	ScheduleID  int64     `json:"dayScheduleId"`
	Time        ClockTime `json:"time"`
	MaxCapacity int       `json:"maxReservations"`
	IsEnabled   bool      `json:"isEnabled"`
}

// SortSlots orders slots by their time string.
func SortSlots(slots []TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
}

// DateOverride replaces the weekly template for a single date.
type DateOverride struct {
	ID        int64     `json:"id"`
	Date      Date      `json:"date"`
	IsClosed  bool      `json:"isClosed"`
	OpenTime  ClockTime `json:"openTime,omitempty"`
	CloseTime ClockTime `json:"closeTime,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
