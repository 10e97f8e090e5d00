package model

// SheetShelter is the root of the hierarchical attendance sheet
type SheetShelter struct {
	ShelterID   string
	ShelterName string
	Teams       []SheetTeam
}

type SheetTeam struct {
	TeamID      string
	TeamNumber  int
	Description string
	Schedules   []SheetSchedule
}

// SheetSchedule carries the counts the server derived for one schedule
type SheetSchedule struct {
	Schedule     Schedule
	PresentCount int
	AbsentCount  int
	PendingCount int
	Records      []SheetRecord
}

type SheetRecord struct {
	MemberID   string
	MemberName string
	Type       AttendanceType
	Comment    string
}

// TeamOverview summarises a team for its leaders
type TeamOverview struct {
	TeamID               string
	TeamNumber           int
	ShelterName          string
	MemberCount          int
	ScheduleCount        int
	LastRegistered       *Schedule // nil when nothing was registered yet
	PendingScheduleCount int
}

// ServerPending is a pending entry as reported by the attendance API
type ServerPending struct {
	ShelterName    string
	TeamID         string
	TeamNumber     int
	Schedule       Schedule
	PendingMembers []Member // Empty for member pendings
	ReportPending  bool
}

// RecordsPage is one page of attendance records
type RecordsPage struct {
	Records    []AttendanceRecord
	Total      int
	Page       int
	TotalPages int
}
