package db

import "time"

// Attendance statuses written to export targets
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// AttendanceRow is one exported attendance record, flattened from the
// hierarchical sheet. It is keyed by (ScheduleID, MemberID, Category).
type AttendanceRow struct {
	ShelterName   string
	TeamID        string
	TeamNumber    int
	ScheduleID    string
	Category      string
	ScheduleLabel string
	ScheduleDate  *time.Time
	MemberID      string
	MemberName    string
	Status        string
	Comment       string
}

// Key returns the identity of the row in the export target
func (r AttendanceRow) Key() string {
	return r.ScheduleID + "|" + r.MemberID + "|" + r.Category
}

// ExportRun records a completed export
type ExportRun struct {
	ID          string
	Sink        string
	RangeStart  time.Time
	RangeEnd    time.Time
	RowCount    int
	CompletedAt time.Time
}
