package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleLeader Role = "leader"
	RoleMember Role = "member"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleLeader || r == RoleMember
}

// Category distinguishes shelter visits from team meetings
type Category string

const (
	CategoryVisit   Category = "visit"
	CategoryMeeting Category = "meeting"
)

func (c Category) IsValid() bool {
	return c == CategoryVisit || c == CategoryMeeting
}

type AttendanceType string

const (
	AttendancePresent AttendanceType = "present"
	AttendanceAbsent  AttendanceType = "absent"
)

func (t AttendanceType) IsValid() bool {
	return t == AttendancePresent || t == AttendanceAbsent
}

// Shelter is the top of the hierarchy and owns its teams
type Shelter struct {
	ID    string
	Name  string
	Teams []Team
}

// Team belongs to exactly one shelter
type Team struct {
	ID            string
	ShelterID     string
	ShelterName   string
	Number        int
	Description   string // Empty string if not set
	MemberCount   *int
	ScheduleCount *int
	Members       []Member
	Schedules     []Schedule
}

// Member represents a ministry volunteer within a team
type Member struct {
	ID    string
	Name  string
	Email string // Empty string if not set
	Role  Role   // Empty means member
}

// EffectiveRole returns the member's role, defaulting to member when absent
func (m Member) EffectiveRole() Role {
	if m.Role == "" {
		return RoleMember
	}
	return m.Role
}

// Schedule is a single visit or meeting of a team
type Schedule struct {
	ID            string
	TeamID        string
	Category      Category
	VisitDate     *time.Time
	MeetingDate   *time.Time
	VisitNumber   int
	LessonContent string
	Location      string
	Room          string
	Observation   string
}

// EffectiveDate returns the date relevant for the schedule's category.
// Visits prefer the visit date and meetings the meeting date; either falls back to the other.
func (s Schedule) EffectiveDate() (time.Time, bool) {
	primary, secondary := s.VisitDate, s.MeetingDate
	if s.Category == CategoryMeeting {
		primary, secondary = s.MeetingDate, s.VisitDate
	}
	if primary != nil && !primary.IsZero() {
		return *primary, true
	}
	if secondary != nil && !secondary.IsZero() {
		return *secondary, true
	}
	return time.Time{}, false
}

// HasValidDate reports whether the schedule carries a visit or meeting date
func (s Schedule) HasValidDate() bool {
	_, ok := s.EffectiveDate()
	return ok
}

// AttendanceRecord is keyed by (ScheduleID, MemberID, Category)
type AttendanceRecord struct {
	ID         string
	ScheduleID string
	MemberID   string
	Category   Category
	Type       AttendanceType
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// VisitReport holds the aggregate statistics of a visit. At most one exists per schedule.
type VisitReport struct {
	ID                     string
	ScheduleID             string
	TeamID                 string
	ShelterID              string
	TeamMembersPresent     int
	ShelteredHeardMessage  int
	CaretakersHeardMessage int
	ShelteredDecisions     int
	CaretakersDecisions    int
	Observation            string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// MemberAttendance is one entry of a team attendance upsert
type MemberAttendance struct {
	MemberID string
	Type     AttendanceType
	Comment  *string
}

// TeamAttendancePayload is the body of a team attendance upsert
type TeamAttendancePayload struct {
	TeamID      string
	ScheduleID  string
	Category    Category
	Attendances []MemberAttendance
}

// ScheduleSort controls the ordering of team schedules returned by the API
type ScheduleSort struct {
	SortBy string // "date" or "visitNumber"
	Desc   bool
}

// FindTeam returns the team with the given id across all shelters
func FindTeam(shelters []Shelter, teamID string) (*Shelter, *Team) {
	for i := range shelters {
		for j := range shelters[i].Teams {
			if shelters[i].Teams[j].ID == teamID {
				return &shelters[i], &shelters[i].Teams[j]
			}
		}
	}
	return nil, nil
}

// NormalizeComment trims a comment, returning nil when nothing is left
func NormalizeComment(comment string) *string {
	trimmed := strings.TrimSpace(comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
