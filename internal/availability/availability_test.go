package availability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aura/internal/models"
)

// fakeStore keeps everything in memory and counts bulk reads.
type fakeStore struct {
	schedules    map[models.Weekday]*models.WeeklySchedule
	overrides    map[string]*models.DateOverride
	reservations []models.Reservation
	calls        map[string]int
	failOn       string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		schedules: make(map[models.Weekday]*models.WeeklySchedule),
		overrides: make(map[string]*models.DateOverride),
		calls:     make(map[string]int),
	}
}

func (f *fakeStore) hit(name string) error {
	f.calls[name]++
	if f.failOn == name {
		return errors.New("store down")
	}
	return nil
}

func (f *fakeStore) GetDateOverride(_ context.Context, d models.Date) (*models.DateOverride, error) {
	if err := f.hit("GetDateOverride"); err != nil {
		return nil, err
	}
	return f.overrides[d.String()], nil
}

func (f *fakeStore) GetWeeklySchedule(_ context.Context, w models.Weekday) (*models.WeeklySchedule, error) {
	if err := f.hit("GetWeeklySchedule"); err != nil {
		return nil, err
	}
	return f.schedules[w], nil
}

func (f *fakeStore) CountActiveByTime(_ context.Context, d models.Date) (map[models.ClockTime]int, error) {
	if err := f.hit("CountActiveByTime"); err != nil {
		return nil, err
	}
	out := make(map[models.ClockTime]int)
	for _, r := range f.reservations {
		if r.Date.Equal(d) && r.Active() {
			out[r.Time]++
		}
	}
	return out, nil
}

func (f *fakeStore) ListWeeklySchedules(context.Context) ([]models.WeeklySchedule, error) {
	if err := f.hit("ListWeeklySchedules"); err != nil {
		return nil, err
	}
	var out []models.WeeklySchedule
	for _, w := range models.AllWeekdays {
		if s, ok := f.schedules[w]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDateOverrides(_ context.Context, from, to models.Date) ([]models.DateOverride, error) {
	if err := f.hit("ListDateOverrides"); err != nil {
		return nil, err
	}
	var out []models.DateOverride
	for _, o := range f.overrides {
		if !o.Date.Before(from) && !o.Date.After(to) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) CountActiveInRange(_ context.Context, from, to models.Date) (map[string]map[models.ClockTime]int, error) {
	if err := f.hit("CountActiveInRange"); err != nil {
		return nil, err
	}
	out := make(map[string]map[models.ClockTime]int)
	for _, r := range f.reservations {
		if r.Date.Before(from) || r.Date.After(to) || !r.Active() {
			continue
		}
		if out[r.Date.String()] == nil {
			out[r.Date.String()] = make(map[models.ClockTime]int)
		}
		out[r.Date.String()][r.Time]++
	}
	return out, nil
}

func (f *fakeStore) book(d models.Date, at models.ClockTime, st models.ReservationStatus) {
	f.reservations = append(f.reservations, models.Reservation{Date: d, Time: at, Guests: 2, Status: st})
}

func hourlySlots(from, to int) []models.TimeSlot {
	var out []models.TimeSlot
	for h := from; h <= to; h++ {
		out = append(out, models.TimeSlot{Time: models.ClockTime(fmt.Sprintf("%02d:00", h)), MaxCapacity: 1, IsEnabled: true})
	}
	return out
}

var (
	// 2026-03-09 is a Monday.
	nextMonday = models.NewDate(2026, time.March, 9)
	// Fixed "now": Wednesday 2026-03-04 15:20 local.
	fixedNow = time.Date(2026, time.March, 4, 15, 20, 0, 0, time.UTC)
)

func newEngine(store Store) *Engine {
	return NewEngine(store, WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
}

func mondayStore() *fakeStore {
	f := newFakeStore()
	f.schedules[models.Monday] = &models.WeeklySchedule{
		Weekday: models.Monday, IsOpen: true, OpenTime: "12:00", CloseTime: "22:00",
		Slots: []models.TimeSlot{{Time: "12:00", MaxCapacity: 1, IsEnabled: true}},
	}
	return f
}

func TestDay_ScenarioA_SingleFreeSlot(t *testing.T) {
	day, err := newEngine(mondayStore()).Day(context.Background(), nextMonday)
	require.NoError(t, err)

	want := []SlotAvailability{{Time: "12:00", Available: 1, MaxReservations: 1}}
	assert.False(t, day.IsClosed)
	assert.Equal(t, want, day.AllSlots)
	assert.Equal(t, want, day.Slots)
	assert.Equal(t, models.ClockTime("12:00"), day.OpenTime)
	assert.Equal(t, models.ClockTime("22:00"), day.CloseTime)
}

func TestDay_ScenarioB_BookedSlotOnlyInAllSlots(t *testing.T) {
	f := mondayStore()
	f.book(nextMonday, "12:00", models.ReservationPending)

	day, err := newEngine(f).Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.Equal(t, []SlotAvailability{{Time: "12:00", Available: 0, MaxReservations: 1}}, day.AllSlots)
	assert.Empty(t, day.Slots)
	assert.NotNil(t, day.Slots)
}

func TestDay_ScenarioC_ClosedOverrideWins(t *testing.T) {
	f := mondayStore()
	f.overrides[nextMonday.String()] = &models.DateOverride{Date: nextMonday, IsClosed: true, Reason: "Holiday"}

	day, err := newEngine(f).Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.True(t, day.IsClosed)
	assert.Equal(t, "Holiday", day.Reason)
	assert.Empty(t, day.Slots)
	assert.Empty(t, day.AllSlots)
	assert.Zero(t, f.calls["GetWeeklySchedule"], "closed override short-circuits")
}

func TestDay_ClosedWeekday(t *testing.T) {
	f := mondayStore()
	f.schedules[models.Monday].IsOpen = false

	day, err := newEngine(f).Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.True(t, day.IsClosed)
	assert.Equal(t, ClosedReason, day.Reason)

	// No template row at all.
	day, err = newEngine(f).Day(context.Background(), nextMonday.AddDays(1))
	require.NoError(t, err)
	assert.True(t, day.IsClosed)
	assert.Equal(t, ClosedReason, day.Reason)
}

func TestDay_CancelledReservationsFreeCapacity(t *testing.T) {
	f := mondayStore()
	f.schedules[models.Monday].Slots[0].MaxCapacity = 3
	f.book(nextMonday, "12:00", models.ReservationConfirmed)
	f.book(nextMonday, "12:00", models.ReservationCancelled)
	f.book(nextMonday, "12:00", models.ReservationCompleted)

	e := newEngine(f)
	first, err := e.Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.Equal(t, 1, first.AllSlots[0].Available)

	second, err := e.Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.Equal(t, first, second, "reads are idempotent")

	f.reservations[0].Status = models.ReservationCancelled
	third, err := e.Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.Equal(t, 2, third.AllSlots[0].Available)
}

func TestDay_OverbookedGoesNegative(t *testing.T) {
	f := mondayStore()
	f.book(nextMonday, "12:00", models.ReservationPending)
	f.book(nextMonday, "12:00", models.ReservationPending)

	day, err := newEngine(f).Day(context.Background(), nextMonday)
	require.NoError(t, err)
	assert.Equal(t, -1, day.AllSlots[0].Available)
	assert.Empty(t, day.Slots)
}

func TestDay_FilteringAndOrdering(t *testing.T) {
	f := newFakeStore()
	slots := []models.TimeSlot{
		{Time: "21:00", MaxCapacity: 2, IsEnabled: true},
		{Time: "11:00", MaxCapacity: 1, IsEnabled: true}, // before open
		{Time: "22:00", MaxCapacity: 1, IsEnabled: true}, // close hour is exclusive
		{Time: "13:00", MaxCapacity: 1, IsEnabled: false},
		{Time: "12:30", MaxCapacity: 1, IsEnabled: true},
		{Time: "late", MaxCapacity: 1, IsEnabled: true}, // unreadable hour is kept
	}
	f.schedules[models.Monday] = &models.WeeklySchedule{Weekday: models.Monday, IsOpen: true, OpenTime: "12:00", CloseTime: "22:00", Slots: slots}

	day, err := newEngine(f).Day(context.Background(), nextMonday)
	require.NoError(t, err)
	var times []models.ClockTime
	for _, s := range day.AllSlots {
		times = append(times, s.Time)
	}
	assert.Equal(t, []models.ClockTime{"12:30", "21:00", "late"}, times)
}

func TestDay_EffectiveHours(t *testing.T) {
	tests := []struct {
		name      string
		schedule  models.WeeklySchedule
		override  *models.DateOverride
		wantOpen  models.ClockTime
		wantClose models.ClockTime
		wantSlots int
	}{
		{"template hours", models.WeeklySchedule{OpenTime: "12:00", CloseTime: "22:00"}, nil, "12:00", "22:00", 10},
		{"defaults when template empty", models.WeeklySchedule{}, nil, "12:00", "23:00", 11},
		{"override shortens day", models.WeeklySchedule{OpenTime: "12:00", CloseTime: "22:00"},
			&models.DateOverride{CloseTime: "16:00"}, "12:00", "16:00", 4},
		{"empty override fields fall through", models.WeeklySchedule{OpenTime: "14:00", CloseTime: "20:00"},
			&models.DateOverride{Reason: "note only"}, "14:00", "20:00", 6},
		{"malformed bounds do not constrain", models.WeeklySchedule{OpenTime: "noon", CloseTime: "x"}, nil, "noon", "x", 12},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeStore()
			s := tc.schedule
			s.Weekday, s.IsOpen, s.Slots = models.Monday, true, hourlySlots(12, 23)
			f.schedules[models.Monday] = &s
			if tc.override != nil {
				o := *tc.override
				o.Date = nextMonday
				f.overrides[nextMonday.String()] = &o
			}

			day, err := newEngine(f).Day(context.Background(), nextMonday)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOpen, day.OpenTime)
			assert.Equal(t, tc.wantClose, day.CloseTime)
			assert.Len(t, day.AllSlots, tc.wantSlots)
		})
	}
}

func TestDay_SameDayCutoff(t *testing.T) {
	f := newFakeStore()
	f.schedules[models.Wednesday] = &models.WeeklySchedule{
		Weekday: models.Wednesday, IsOpen: true, OpenTime: "12:00", CloseTime: "22:00", Slots: hourlySlots(12, 23),
	}
	today := models.DateOf(fixedNow)

	day, err := newEngine(f).Day(context.Background(), today)
	require.NoError(t, err)
	require.NotEmpty(t, day.AllSlots)
	for _, s := range day.AllSlots {
		h, _ := s.Time.Hour()
		assert.Greater(t, h, fixedNow.Hour(), "slot %s is at or before the current hour", s.Time)
	}
	assert.Equal(t, models.ClockTime("16:00"), day.AllSlots[0].Time)

	nextWeek, err := newEngine(f).Day(context.Background(), today.AddDays(7))
	require.NoError(t, err)
	assert.Len(t, nextWeek.AllSlots, 10, "cutoff only applies to today")
}

func TestDay_CutoffUsesRestaurantZone(t *testing.T) {
	zagreb, err := time.LoadLocation("Europe/Zagreb")
	require.NoError(t, err)
	f := newFakeStore()
	f.schedules[models.Thursday] = &models.WeeklySchedule{
		Weekday: models.Thursday, IsOpen: true, OpenTime: "00:00", CloseTime: "23:00", Slots: hourlySlots(0, 22),
	}
	// 23:30 UTC on Wednesday is already 00:30 Thursday in Zagreb.
	now := time.Date(2026, time.March, 4, 23, 30, 0, 0, time.UTC)
	e := NewEngine(f, WithClock(func() time.Time { return now }), WithLocation(zagreb))

	cut := e.Cutoff()
	assert.Equal(t, "2026-03-05", cut.Today.String())
	assert.Equal(t, 0, cut.Hour)

	day, err := e.Day(context.Background(), cut.Today)
	require.NoError(t, err)
	assert.Equal(t, models.ClockTime("01:00"), day.AllSlots[0].Time)
}

func TestDay_StoreErrorPropagates(t *testing.T) {
	f := mondayStore()
	f.failOn = "CountActiveByTime"
	_, err := newEngine(f).Day(context.Background(), nextMonday)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		total, available int
		want             DayStatus
	}{
		{10, 7, StatusAvailable}, // 3 taken
		{10, 5, StatusAvailable}, // exactly half taken
		{10, 4, StatusLimited},   // 6 taken
		{10, 0, StatusFull},
		{1, 1, StatusAvailable},
		{3, 1, StatusLimited}, // 2 taken > 3/2
		{0, 0, StatusFull},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Classify(tc.total, tc.available), "total=%d available=%d", tc.total, tc.available)
	}
}

func TestRange_ScenarioD(t *testing.T) {
	f := newFakeStore()
	for _, w := range models.AllWeekdays {
		f.schedules[w] = &models.WeeklySchedule{Weekday: w, IsOpen: true, OpenTime: "12:00", CloseTime: "22:00", Slots: hourlySlots(12, 23)}
	}
	start := nextMonday
	bookHours := func(d models.Date, n int) {
		for h := 12; h < 12+n; h++ {
			f.book(d, models.ClockTime(fmt.Sprintf("%02d:00", h)), models.ReservationConfirmed)
		}
	}
	bookHours(start, 3)
	bookHours(start.AddDays(1), 6)
	bookHours(start.AddDays(2), 10)
	f.book(start.AddDays(3), "12:00", models.ReservationCancelled)
	f.overrides[start.AddDays(4).String()] = &models.DateOverride{Date: start.AddDays(4), IsClosed: true, Reason: "Holiday"}
	f.schedules[models.Sunday].IsOpen = false

	days, err := newEngine(f).Range(context.Background(), start, start.AddDays(6))
	require.NoError(t, err)
	require.Len(t, days, 7)

	want := []struct {
		status    DayStatus
		available int
		total     int
	}{
		{StatusAvailable, 7, 10},
		{StatusLimited, 4, 10},
		{StatusFull, 0, 10},
		{StatusAvailable, 10, 10},
		{StatusClosed, 0, 0},
		{StatusAvailable, 10, 10},
		{StatusClosed, 0, 0},
	}
	for i, w := range want {
		assert.Equal(t, start.AddDays(i).String(), days[i].Date.String())
		assert.Equal(t, w.status, days[i].Status, "day %d", i)
		assert.Equal(t, w.available, days[i].AvailableSlots, "day %d", i)
		assert.Equal(t, w.total, days[i].TotalSlots, "day %d", i)
	}
	assert.Equal(t, "Holiday", days[4].Reason)
	assert.Equal(t, ClosedReason, days[6].Reason)
}

func TestRange_ThreeBulkReadsForAMonth(t *testing.T) {
	f := mondayStore()
	_, err := newEngine(f).Range(context.Background(), nextMonday, nextMonday.AddDays(30))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ListWeeklySchedules": 1, "ListDateOverrides": 1, "CountActiveInRange": 1}, f.calls)
}

func TestRange_NoSameDayCutoff(t *testing.T) {
	f := newFakeStore()
	f.schedules[models.Wednesday] = &models.WeeklySchedule{
		Weekday: models.Wednesday, IsOpen: true, OpenTime: "12:00", CloseTime: "22:00", Slots: hourlySlots(12, 23),
	}
	today := models.DateOf(fixedNow)
	days, err := newEngine(f).Range(context.Background(), today, today)
	require.NoError(t, err)
	assert.Equal(t, 10, days[0].TotalSlots)
}

func TestRange_AgreesWithDayOnClosedStatus(t *testing.T) {
	f := mondayStore()
	f.overrides[nextMonday.AddDays(7).String()] = &models.DateOverride{Date: nextMonday.AddDays(7), IsClosed: true, Reason: "Holiday"}
	e := newEngine(f)

	for i := 0; i < 14; i++ {
		d := nextMonday.AddDays(i)
		day, err := e.Day(context.Background(), d)
		require.NoError(t, err)
		rng, err := e.Range(context.Background(), d, d)
		require.NoError(t, err)
		require.Len(t, rng, 1)
		assert.Equal(t, day.IsClosed, rng[0].IsClosed, d.String())
		assert.Equal(t, day.IsClosed, rng[0].Status == StatusClosed, d.String())
	}
}

func TestRange_Validation(t *testing.T) {
	e := NewEngine(newFakeStore(), WithMaxRangeDays(31))
	_, err := e.Range(context.Background(), nextMonday, nextMonday.AddDays(-1))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = e.Range(context.Background(), nextMonday, nextMonday.AddDays(31))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = e.Range(context.Background(), nextMonday, nextMonday.AddDays(30))
	assert.NoError(t, err)
}
