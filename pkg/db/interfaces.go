package db

import "context"

// AttendanceSink receives exported attendance rows. Writing the same rows
// twice must leave the target unchanged.
type AttendanceSink interface {
	WriteAttendanceRows(ctx context.Context, rows []AttendanceRow) (int, error)
}

// ExportStore is the relational export target
type ExportStore interface {
	AttendanceSink
	InsertExportRun(ctx context.Context, run *ExportRun) error
	GetExportRuns(ctx context.Context, limit int) ([]ExportRun, error)
}
