package audit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"zapis/internal/models"
)

// BookingSource lists ledger rows for export.
type BookingSource interface {
	ListBookings(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

// Exporter renders a booking ledger report as an xlsx workbook.
type Exporter struct {
	source BookingSource
	loc    *time.Location
}

// NewExporter creates a ledger exporter rendering times in loc.
func NewExporter(source BookingSource, loc *time.Location) *Exporter {
	return &Exporter{source: source, loc: loc}
}

var exportColumns = []string{
	"ID", "Provider", "Services", "Date", "Start", "End", "Status",
	"Client", "Email", "Phone", "Created",
}

// Export writes all bookings in [from, to) to w as a single-sheet
// workbook.
func (e *Exporter) Export(ctx context.Context, w io.Writer, from, to time.Time) error {
	bookings, err := e.source.ListBookings(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Bookings"
	f.SetSheetName("Sheet1", sheet)

	if err := e.writeHeader(f, sheet); err != nil {
		return err
	}

	for i, b := range bookings {
		row := i + 2
		start := b.StartAt.In(e.loc)
		end := b.EndAt.In(e.loc)
		values := []any{
			b.ID,
			b.ProviderID,
			strings.Join(b.ServiceIDs, ", "),
			start.Format("2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			b.Status,
			b.Client.Name,
			b.Client.Email,
			b.Client.Phone,
			b.CreatedAt.In(e.loc).Format("2006-01-02 15:04"),
		}
		for col, val := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	return f.Write(w)
}

func (e *Exporter) writeHeader(f *excelize.File, sheet string) error {
	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}
	return nil
}

// Filename generates a report name like "bookings_2026-03.xlsx".
func Filename(t time.Time) string {
	return fmt.Sprintf("bookings_%s.xlsx", t.Format("2006-01"))
}
