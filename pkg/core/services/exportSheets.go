package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
	"github.com/jakechorley/ministry-attendance/pkg/db"
)

// SheetsSource defines the API operation the export reads from
type SheetsSource interface {
	HierarchicalSheets(ctx context.Context, start, end time.Time) ([]model.SheetShelter, error)
}

// ExportResult summarises an export
type ExportResult struct {
	Sheets []model.SheetShelter
	Rows   int
}

// FlattenSheets turns the hierarchical sheet into one row per attendance record
func FlattenSheets(sheets []model.SheetShelter) []db.AttendanceRow {
	var rows []db.AttendanceRow
	for _, shelter := range sheets {
		for _, team := range shelter.Teams {
			for _, entry := range team.Schedules {
				sched := entry.Schedule
				var date *time.Time
				if d, ok := sched.EffectiveDate(); ok {
					date = &d
				}
				for _, r := range entry.Records {
					status := db.StatusPresent
					if r.Type == model.AttendanceAbsent {
						status = db.StatusAbsent
					}
					rows = append(rows, db.AttendanceRow{
						ShelterName:   shelter.ShelterName,
						TeamID:        team.TeamID,
						TeamNumber:    team.TeamNumber,
						ScheduleID:    sched.ID,
						Category:      string(sched.Category),
						ScheduleLabel: viewmodel.FormatScheduleLabel(sched),
						ScheduleDate:  date,
						MemberID:      r.MemberID,
						MemberName:    r.MemberName,
						Status:        status,
						Comment:       r.Comment,
					})
				}
			}
		}
	}
	return rows
}

// ExportAttendanceSheets writes the attendance of schedules between start and
// end to sink. Sinks that also keep an export log get a run recorded.
func ExportAttendanceSheets(
	ctx context.Context,
	source SheetsSource,
	sink db.AttendanceSink,
	sinkName string,
	logger *zap.Logger,
	start, end time.Time,
) (*ExportResult, error) {
	logger.Debug("Starting exportAttendanceSheets",
		zap.String("sink", sinkName),
		zap.Time("start", start),
		zap.Time("end", end))

	sheets, err := source.HierarchicalSheets(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance sheets: %w", err)
	}

	rows := FlattenSheets(sheets)
	written, err := sink.WriteAttendanceRows(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to write attendance to %s: %w", sinkName, err)
	}

	if store, ok := sink.(db.ExportStore); ok {
		run := &db.ExportRun{
			ID:          uuid.New().String(),
			Sink:        sinkName,
			RangeStart:  start,
			RangeEnd:    end,
			RowCount:    written,
			CompletedAt: time.Now().UTC(),
		}
		if err := store.InsertExportRun(ctx, run); err != nil {
			logger.Warn("Failed to record export run", zap.Error(err))
		}
	}

	logger.Info("Attendance exported", zap.String("sink", sinkName), zap.Int("rows", written))
	return &ExportResult{Sheets: sheets, Rows: written}, nil
}
