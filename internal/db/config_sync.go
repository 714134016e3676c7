package db

import (
	"context"
	"fmt"

	"aura/internal/config"
	"aura/internal/holidays"
	"aura/internal/models"
)

// SyncReport summarizes what SyncRestaurant changed.
type SyncReport struct {
	SchedulesSeeded int
	SlotsSeeded     int
	ClosuresAdded   int
	MenuUpserted    int
	MenuDisabled    int64
}

// SyncRestaurant applies restaurant.yaml to the store. The weekly template
// is seeded only when the store has none. Each configured closure is offered
// once per date: it is recorded in seeded_closures, so an override an admin
// deleted later stays deleted across restarts and reloads. A date that
// already has an override keeps it. The menu is upserted by name.
func (db *DB) SyncRestaurant(ctx context.Context, cfg *config.RestaurantConfig) (*SyncReport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("restaurant config is nil")
	}
	report := &SyncReport{}

	n, err := db.CountWeeklySchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("count schedules: %w", err)
	}
	if n == 0 {
		if err := db.seedSchedule(ctx, cfg, report); err != nil {
			return nil, err
		}
	}

	if err := db.seedClosures(ctx, closuresFromConfig(cfg), report); err != nil {
		return nil, err
	}

	upserted, disabled, err := db.SyncMenu(ctx, cfg)
	if err != nil {
		return nil, err
	}
	report.MenuUpserted, report.MenuDisabled = upserted, disabled

	db.logger.Info().
		Int("schedules_seeded", report.SchedulesSeeded).
		Int("slots_seeded", report.SlotsSeeded).
		Int("closures_added", report.ClosuresAdded).
		Int("menu_upserted", report.MenuUpserted).
		Int64("menu_disabled", report.MenuDisabled).
		Msg("Restaurant config synced")
	return report, nil
}

func (db *DB) seedSchedule(ctx context.Context, cfg *config.RestaurantConfig, report *SyncReport) error {
	slots, err := cfg.SlotTimes()
	if err != nil {
		return err
	}
	open, _ := models.ParseClockTime(cfg.Schedule.OpenTime)
	closing, _ := models.ParseClockTime(cfg.Schedule.CloseTime)

	return db.WithTx(ctx, func(tx *Tx) error {
		for _, w := range models.AllWeekdays {
			s := &models.WeeklySchedule{
				Weekday:   w,
				IsOpen:    !cfg.IsClosedDay(w),
				OpenTime:  open,
				CloseTime: closing,
			}
			if err := tx.UpsertWeeklySchedule(ctx, s); err != nil {
				return err
			}
			report.SchedulesSeeded++
			for _, at := range slots {
				slot := &models.TimeSlot{Time: at, MaxCapacity: cfg.Schedule.SlotCapacity, IsEnabled: true}
				if err := tx.UpsertTimeSlot(ctx, w, slot); err != nil {
					return err
				}
				report.SlotsSeeded++
			}
		}
		return nil
	})
}

func (db *DB) seedClosures(ctx context.Context, closures []models.DateOverride, report *SyncReport) error {
	return db.WithTx(ctx, func(tx *Tx) error {
		for _, c := range closures {
			first, err := tx.markClosureSeeded(ctx, c.Date, c.Reason)
			if err != nil {
				return err
			}
			if !first {
				continue
			}
			o := c
			added, err := tx.InsertDateOverrideIfAbsent(ctx, &o)
			if err != nil {
				return err
			}
			if added {
				report.ClosuresAdded++
			}
		}
		return nil
	})
}

// markClosureSeeded records that the closure on date was offered to the
// store and reports whether this is the first time.
func (c conn) markClosureSeeded(ctx context.Context, date models.Date, reason string) (bool, error) {
	res, err := c.exec(ctx, `
		INSERT INTO seeded_closures (date, reason, seeded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO NOTHING`,
		date, reason, nowUTC(),
	)
	if err != nil {
		return false, fmt.Errorf("mark closure %s seeded: %w", date, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func closuresFromConfig(cfg *config.RestaurantConfig) []models.DateOverride {
	var out []models.DateOverride
	for _, h := range holidays.ForCountry(cfg.Holidays.Country, cfg.Holidays.Years...) {
		out = append(out, models.DateOverride{Date: h.Date, IsClosed: true, Reason: h.Name})
	}
	for _, e := range cfg.Holidays.Extra {
		d, err := models.ParseDate(e.Date)
		if err != nil {
			continue // rejected by Validate
		}
		out = append(out, models.DateOverride{Date: d, IsClosed: true, Reason: e.Reason})
	}
	return out
}

// SyncMenu upserts the configured menu by name and disables items that are
// no longer listed. An empty menu section leaves the table alone.
func (db *DB) SyncMenu(ctx context.Context, cfg *config.RestaurantConfig) (int, int64, error) {
	items := cfg.MenuItems()
	if len(items) == 0 {
		return 0, 0, nil
	}

	var disabled int64
	err := db.WithTx(ctx, func(tx *Tx) error {
		names := make([]string, 0, len(items))
		for i := range items {
			if err := tx.UpsertMenuItem(ctx, &items[i]); err != nil {
				return err
			}
			names = append(names, items[i].Name)
		}
		n, err := tx.DisableMenuItemsExcept(ctx, names)
		disabled = n
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("sync menu: %w", err)
	}
	return len(items), disabled, nil
}
