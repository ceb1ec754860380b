package board

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"hotel-portal/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportTimeLayout = "2006-01-02 15:04"

// Table is a header plus rows of already formatted cells
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// HistoryHeader is the column order of the request history export
var HistoryHeader = []string{
	"ID", "Hotel", "Room", "Kind", "Title", "Status", "Subtotal", "Paid",
	"Created", "Accepted", "Completed", "Cancelled", "Note",
}

// StaysHeader is the column order of the stay export
var StaysHeader = []string{
	"ID", "Room", "Guest", "Phone", "Status", "Check-in", "Check-out",
	"Invoice", "Total due", "Paid", "Payment mode", "Paid at",
}

func exportTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(exportTimeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// HistoryTable lays out requests for export
func HistoryTable(reqs []models.Request, loc *time.Location) Table {
	t := Table{Sheet: "Requests", Header: HistoryHeader, Rows: make([][]string, 0, len(reqs))}
	for i := range reqs {
		r := &reqs[i]
		created := r.CreatedAt
		title := r.DisplayName()
		if r.Kind == models.KindFood {
			title = "Food order"
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.HotelName,
			r.RoomNumber,
			r.Kind,
			title,
			r.Status,
			r.Subtotal.String(),
			yesNo(r.IsPaid),
			exportTime(&created, loc),
			exportTime(r.AcceptedAt, loc),
			exportTime(r.CompletedAt, loc),
			exportTime(r.CancelledAt, loc),
			r.Note,
		})
	}
	return t
}

// StaysTable lays out stays for export
func StaysTable(stays []models.Stay, loc *time.Location) Table {
	t := Table{Sheet: "Stays", Header: StaysHeader, Rows: make([][]string, 0, len(stays))}
	for i := range stays {
		s := &stays[i]
		checkIn := s.CheckInAt
		invoice := ""
		if s.InvoiceNo != nil {
			invoice = *s.InvoiceNo
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.RoomNumber,
			s.GuestName,
			s.Phone,
			s.Status,
			exportTime(&checkIn, loc),
			exportTime(s.CheckOutAt, loc),
			invoice,
			s.TotalDue.String(),
			yesNo(s.IsPaid),
			s.PaymentMode,
			exportTime(s.PaidAt, loc),
		})
	}
	return t
}

// WriteCSV writes the table as CSV
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// XLSX renders the table as a single-sheet workbook
func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(t.Sheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if t.Sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}
	index, err := f.GetSheetIndex(t.Sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(t.Sheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(t.Sheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	for i, row := range t.Rows {
		for col, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(t.Sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetPanes(t.Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
