package sheetsclient

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/ministry-attendance/pkg/db"
)

// AttendanceHeader is the first row of an exported attendance tab
var AttendanceHeader = []interface{}{
	"Shelter", "Team", "Schedule", "Date", "Category", "Member", "Status", "Comment",
	"Schedule ID", "Member ID",
}

// AttendanceValues converts rows to sheet values, header first
func AttendanceValues(rows []db.AttendanceRow) [][]interface{} {
	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, AttendanceHeader)
	for _, r := range rows {
		date := ""
		if r.ScheduleDate != nil {
			date = r.ScheduleDate.Format("02/01/2006")
		}
		values = append(values, []interface{}{
			r.ShelterName,
			r.TeamNumber,
			r.ScheduleLabel,
			date,
			r.Category,
			r.MemberName,
			r.Status,
			r.Comment,
			r.ScheduleID,
			r.MemberID,
		})
	}
	return values
}

// WriteAttendanceSheet replaces the contents of tab with rows, creating the tab
// when missing. Rewriting the same rows leaves the tab unchanged.
func (c *Client) WriteAttendanceSheet(ctx context.Context, spreadsheetID, tab string, rows []db.AttendanceRow) error {
	existing, err := c.findSheet(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}
	if existing == nil {
		if err := c.createSheet(ctx, spreadsheetID, tab); err != nil {
			return err
		}
	} else {
		_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, tab, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to clear sheet %q: %w", tab, err)
		}
	}

	valueRange := &sheets.ValueRange{Values: AttendanceValues(rows)}
	_, err = c.service.Spreadsheets.Values.Update(spreadsheetID, tab+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet %q: %w", tab, err)
	}
	return nil
}

// Sink writes exported attendance to one tab of a spreadsheet
type Sink struct {
	Client        *Client
	SpreadsheetID string
	Tab           string
}

func (s *Sink) WriteAttendanceRows(ctx context.Context, rows []db.AttendanceRow) (int, error) {
	rows = db.DedupeAttendanceRows(rows)
	if err := s.Client.WriteAttendanceSheet(ctx, s.SpreadsheetID, s.Tab, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
