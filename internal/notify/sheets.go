package notify

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"aura/internal/events"
)

// SheetsSender appends one row per reservation event to a spreadsheet that
// front-of-house keeps open. Order events are ignored.
type SheetsSender struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
}

func NewSheetsSender(ctx context.Context, credentialsFile, spreadsheetID, sheetName string) (*SheetsSender, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return NewSheetsSenderWithOptions(ctx, spreadsheetID, sheetName, option.WithCredentials(creds))
}

func NewSheetsSenderWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*SheetsSender, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsSender{srv: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func (s *SheetsSender) Name() string { return "sheets" }

func (s *SheetsSender) Send(ctx context.Context, e events.Event) error {
	if e.Reservation == nil {
		return nil
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{reservationRowValues(e)}}
	_, err := s.srv.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+"!A:J", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func reservationRowValues(e events.Event) []interface{} {
	r := e.Reservation
	return []interface{}{
		string(e.Type),
		r.ID,
		r.UserID,
		r.Date.String(),
		r.Time.String(),
		r.Guests,
		string(r.Status),
		r.TableNumber,
		r.SpecialRequests,
		e.CreatedAt.UTC().Format(time.DateTime),
	}
}
