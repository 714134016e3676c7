package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayOf_AllDays(t *testing.T) {
	cases := []struct {
		in   time.Weekday
		want Weekday
	}{
		{time.Sunday, Sunday},
		{time.Monday, Monday},
		{time.Tuesday, Tuesday},
		{time.Wednesday, Wednesday},
		{time.Thursday, Thursday},
		{time.Friday, Friday},
		{time.Saturday, Saturday},
	}
	seen := make(map[Weekday]bool)
	for _, tc := range cases {
		got := WeekdayOf(tc.in)
		assert.Equal(t, tc.want, got, "WeekdayOf(%s)", tc.in)
		seen[got] = true
	}
	assert.Len(t, seen, 7, "mapping must be a bijection")
	assert.Equal(t, Weekday(6), WeekdayOf(time.Sunday))
	assert.Equal(t, Weekday(0), WeekdayOf(time.Monday))
}

func TestDate_Weekday(t *testing.T) {
	// 2026-01-05 is a Monday.
	monday := NewDate(2026, time.January, 5)
	for i, want := range AllWeekdays {
		assert.Equal(t, want, monday.AddDays(i).Weekday())
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]Weekday{
		"0": Monday, "6": Sunday, "monday": Monday, "SUNDAY": Sunday, "wed": Wednesday, "Fri": Friday,
	} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"7", "-1", "", "mo", "funday"} {
		_, err := ParseWeekday(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"12:00", "12:00", false},
		{"9:30", "09:30", false},
		{" 23:59 ", "23:59", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"12", "", true},
		{"ab:cd", "", true},
		{"", "", true},
		{"123:00", "", true},
	}
	for _, tc := range tests {
		got, err := ParseClockTime(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestClockTime_Hour(t *testing.T) {
	h, ok := ClockTime("18:30").Hour()
	assert.True(t, ok)
	assert.Equal(t, 18, h)

	h, ok = ClockTime("9:00").Hour()
	assert.True(t, ok)
	assert.Equal(t, 9, h)

	_, ok = ClockTime("noon").Hour()
	assert.False(t, ok)

	_, ok = ClockTime("").Hour()
	assert.False(t, ok)
}

func TestClockTime_LexicographicMatchesChronological(t *testing.T) {
	slots := []TimeSlot{{Time: MustClockTime("21:00")}, {Time: MustClockTime("9:00")}, {Time: MustClockTime("12:30")}}
	SortSlots(slots)
	assert.Equal(t, []ClockTime{"09:00", "12:30", "21:00"}, []ClockTime{slots[0].Time, slots[1].Time, slots[2].Time})
}

func TestParseDate_DropsTimeOfDay(t *testing.T) {
	for _, in := range []string{"2026-03-09", "2026-03-09T23:30:00Z", "2026-03-09T23:30:00+05:00", "2026-03-09T08:00:00"} {
		d, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2026-03-09", d.String(), in)
		assert.Equal(t, time.UTC, d.Time().Location())
	}
	_, err := ParseDate("09.03.2026")
	assert.Error(t, err)
}

func TestDate_JSONAndScan(t *testing.T) {
	d := NewDate(2026, time.May, 1)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-05-01"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, d.Equal(back))

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("2026-05-01")))
	assert.True(t, d.Equal(scanned))
	require.NoError(t, scanned.Scan(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, d.Equal(scanned))
	assert.Error(t, scanned.Scan(42))
}

func TestReservationStatus_Transitions(t *testing.T) {
	allowed := map[ReservationStatus][]ReservationStatus{
		ReservationPending:   {ReservationConfirmed, ReservationCancelled},
		ReservationConfirmed: {ReservationCompleted, ReservationCancelled},
		ReservationCancelled: {},
		ReservationCompleted: {},
	}
	all := []ReservationStatus{ReservationPending, ReservationConfirmed, ReservationCompleted, ReservationCancelled}
	for from, targets := range allowed {
		for _, to := range all {
			want := from == to
			for _, a := range targets {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.True(t, ReservationCancelled.Terminal())
	assert.False(t, ReservationPending.Terminal())
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderPending.CanTransitionTo(OrderConfirmed))
	assert.True(t, OrderPreparing.CanTransitionTo(OrderOutForDelivery))
	assert.True(t, OrderOutForDelivery.CanTransitionTo(OrderDelivered))
	assert.False(t, OrderOutForDelivery.CanTransitionTo(OrderCancelled))
	assert.False(t, OrderDelivered.CanTransitionTo(OrderPending))
	assert.False(t, OrderPending.CanTransitionTo(OrderDelivered))

	st, err := ParseOrderStatus("outfordelivery")
	require.NoError(t, err)
	assert.Equal(t, OrderOutForDelivery, st)
}

func TestCents(t *testing.T) {
	assert.Equal(t, Cents(1080), Cents(1200).ApplyDiscount(10))
	assert.Equal(t, Cents(1200), Cents(1200).ApplyDiscount(0))
	assert.Equal(t, Cents(0), Cents(1200).ApplyDiscount(100))
	assert.Equal(t, Cents(829), Cents(999).ApplyDiscount(17))
	assert.Equal(t, "12.50 EUR", Cents(1250).String())
	assert.InDelta(t, 12.5, Cents(1250).Euros(), 0.0001)

	item := OrderItem{UnitPrice: 450, Quantity: 3}
	assert.Equal(t, Cents(1350), item.LineTotal())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ana H.", DisplayName("ana marija horvat"))
	assert.Equal(t, "Ivan K.", DisplayName("IVAN kovač"))
	assert.Equal(t, "Luka", DisplayName("luka"))
	assert.Equal(t, "Guest", DisplayName("  "))
	assert.Equal(t, "Željko Š.", DisplayName("željko šimić"))
}
