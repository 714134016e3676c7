// Package audit exports reservations and the activity log as an xlsx
// workbook for admin reporting.
package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"aura/internal/db"
	"aura/internal/models"
)

// Source is the read side the export needs.
type Source interface {
	ListReservations(ctx context.Context, f db.ReservationFilter) ([]models.Reservation, error)
	ListActivity(ctx context.Context, f db.ActivityFilter) ([]models.ActivityLog, error)
}

type Exporter struct {
	source    Source
	newWriter func() SheetWriter
	logger    *zerolog.Logger
}

func NewExporter(source Source, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{source: source, newWriter: NewExcelizeWriter, logger: logger}
}

var (
	reservationColumns = []string{"ID", "User ID", "Date", "Time", "Guests", "Table", "Status", "Special requests", "Admin notes", "Created", "Updated"}
	activityColumns    = []string{"ID", "Type", "User", "Email", "Description", "Related ID", "Created"}
)

// Filename names the workbook for the period, e.g. aura_2026-03-01_2026-03-31.xlsx.
func Filename(from, to models.Date) string {
	return fmt.Sprintf("aura_%s_%s.xlsx", from, to)
}

// Export writes reservations dated within [from, to] and activity entries
// recorded within those days (UTC) to w.
func (e *Exporter) Export(ctx context.Context, from, to models.Date, w io.Writer) error {
	reservations, err := e.source.ListReservations(ctx, db.ReservationFilter{From: from, To: to})
	if err != nil {
		return fmt.Errorf("load reservations: %w", err)
	}
	activity, err := e.allActivity(ctx, from.Time(), to.AddDays(1).Time())
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}

	xl := e.newWriter()
	defer xl.Close()

	if err := xl.AddSheet("Reservations"); err != nil {
		return err
	}
	if err := xl.WriteHeader(reservationColumns); err != nil {
		return err
	}
	for i := range reservations {
		if err := xl.WriteRow(reservationRow(&reservations[i])); err != nil {
			return err
		}
	}

	if err := xl.AddSheet("Activity"); err != nil {
		return err
	}
	if err := xl.WriteHeader(activityColumns); err != nil {
		return err
	}
	for i := range activity {
		if err := xl.WriteRow(activityRow(&activity[i])); err != nil {
			return err
		}
	}

	if err := xl.Save(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	e.logger.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Int("reservations", len(reservations)).
		Int("activity", len(activity)).
		Msg("Export written")
	return nil
}

// allActivity pages through the log; the store caps a single page.
func (e *Exporter) allActivity(ctx context.Context, from, to time.Time) ([]models.ActivityLog, error) {
	var out []models.ActivityLog
	for offset := 0; ; offset += db.MaxActivityLimit {
		page, err := e.source.ListActivity(ctx, db.ActivityFilter{From: from, To: to, Limit: db.MaxActivityLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < db.MaxActivityLimit {
			return out, nil
		}
	}
}

func reservationRow(r *models.Reservation) []interface{} {
	return []interface{}{
		r.ID,
		r.UserID,
		r.Date.String(),
		r.Time.String(),
		r.Guests,
		r.TableNumber,
		string(r.Status),
		r.SpecialRequests,
		r.AdminNotes,
		r.CreatedAt.UTC().Format(time.DateTime),
		r.UpdatedAt.UTC().Format(time.DateTime),
	}
}

func activityRow(a *models.ActivityLog) []interface{} {
	var related interface{} = ""
	if a.RelatedID != nil {
		related = *a.RelatedID
	}
	return []interface{}{
		a.ID,
		string(a.Type),
		a.UserName,
		a.UserEmail,
		a.Description,
		related,
		a.CreatedAt.UTC().Format(time.DateTime),
	}
}
