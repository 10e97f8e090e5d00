package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

const dateLayout = "2006-01-02"

// Date accepts RFC3339 timestamps, plain dates, empty strings and null
type Date struct {
	time.Time
	Valid bool
}

func NewDate(t *time.Time) Date {
	if t == nil || t.IsZero() {
		return Date{}
	}
	return Date{Time: *t, Valid: true}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid date %s: %w", data, err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time, d.Valid = t, true
			return nil
		}
	}
	// Unparseable dates are treated as missing
	return nil
}

// Ptr returns nil when the date is missing
func (d Date) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

type MemberDto struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func (d MemberDto) toModel() model.Member {
	return model.Member{ID: d.ID, Name: d.Name, Email: d.Email, Role: model.Role(d.Role)}
}

type ScheduleDto struct {
	ID            string `json:"id"`
	TeamID        string `json:"teamId,omitempty"`
	Category      string `json:"category"`
	VisitNumber   int    `json:"visitNumber"`
	VisitDate     Date   `json:"visitDate"`
	MeetingDate   Date   `json:"meetingDate"`
	LessonContent string `json:"lessonContent,omitempty"`
	Location      string `json:"location,omitempty"`
	Room          string `json:"room,omitempty"`
	Observation   string `json:"observation,omitempty"`
}

func (d ScheduleDto) toModel() model.Schedule {
	return model.Schedule{
		ID:            d.ID,
		TeamID:        d.TeamID,
		Category:      model.Category(d.Category),
		VisitNumber:   d.VisitNumber,
		VisitDate:     d.VisitDate.Ptr(),
		MeetingDate:   d.MeetingDate.Ptr(),
		LessonContent: d.LessonContent,
		Location:      d.Location,
		Room:          d.Room,
		Observation:   d.Observation,
	}
}

func ScheduleToDto(s model.Schedule) ScheduleDto {
	return ScheduleDto{
		ID:            s.ID,
		TeamID:        s.TeamID,
		Category:      string(s.Category),
		VisitNumber:   s.VisitNumber,
		VisitDate:     NewDate(s.VisitDate),
		MeetingDate:   NewDate(s.MeetingDate),
		LessonContent: s.LessonContent,
		Location:      s.Location,
		Room:          s.Room,
		Observation:   s.Observation,
	}
}

type TeamDto struct {
	ID            string        `json:"id"`
	ShelterID     string        `json:"shelterId,omitempty"`
	ShelterName   string        `json:"shelterName,omitempty"`
	Number        int           `json:"number"`
	Description   string        `json:"description,omitempty"`
	MemberCount   *int          `json:"memberCount,omitempty"`
	ScheduleCount *int          `json:"scheduleCount,omitempty"`
	Members       []MemberDto   `json:"members,omitempty"`
	Schedules     []ScheduleDto `json:"schedules,omitempty"`
}

func (d TeamDto) toModel() model.Team {
	team := model.Team{
		ID:            d.ID,
		ShelterID:     d.ShelterID,
		ShelterName:   d.ShelterName,
		Number:        d.Number,
		Description:   d.Description,
		MemberCount:   d.MemberCount,
		ScheduleCount: d.ScheduleCount,
	}
	for _, m := range d.Members {
		team.Members = append(team.Members, m.toModel())
	}
	for _, s := range d.Schedules {
		sched := s.toModel()
		if sched.TeamID == "" {
			sched.TeamID = d.ID
		}
		team.Schedules = append(team.Schedules, sched)
	}
	return team
}

type ShelterWithTeamsDto struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Teams []TeamDto `json:"teams"`
}

func (d ShelterWithTeamsDto) toModel() model.Shelter {
	shelter := model.Shelter{ID: d.ID, Name: d.Name}
	for _, t := range d.Teams {
		team := t.toModel()
		team.ShelterID = d.ID
		team.ShelterName = d.Name
		shelter.Teams = append(shelter.Teams, team)
	}
	return shelter
}

type AttendanceResponseDto struct {
	ID         string `json:"id"`
	ScheduleID string `json:"scheduleId"`
	MemberID   string `json:"memberId"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  Date   `json:"createdAt"`
	UpdatedAt  Date   `json:"updatedAt"`
}

func (d AttendanceResponseDto) toModel() model.AttendanceRecord {
	return model.AttendanceRecord{
		ID:         d.ID,
		ScheduleID: d.ScheduleID,
		MemberID:   d.MemberID,
		Category:   model.Category(d.Category),
		Type:       model.AttendanceType(d.Type),
		Comment:    d.Comment,
		CreatedAt:  d.CreatedAt.Time,
		UpdatedAt:  d.UpdatedAt.Time,
	}
}

func AttendanceToDto(r model.AttendanceRecord) AttendanceResponseDto {
	return AttendanceResponseDto{
		ID:         r.ID,
		ScheduleID: r.ScheduleID,
		MemberID:   r.MemberID,
		Category:   string(r.Category),
		Type:       string(r.Type),
		Comment:    r.Comment,
		CreatedAt:  NewDate(&r.CreatedAt),
		UpdatedAt:  NewDate(&r.UpdatedAt),
	}
}

type RegisterAttendanceDto struct {
	ScheduleID string  `json:"scheduleId"`
	Type       string  `json:"type"`
	Comment    *string `json:"comment,omitempty"`
}

type MemberAttendanceDto struct {
	MemberID string  `json:"memberId"`
	Type     string  `json:"type"`
	Comment  *string `json:"comment,omitempty"`
}

type RegisterTeamAttendanceDto struct {
	TeamID      string                `json:"teamId"`
	ScheduleID  string                `json:"scheduleId"`
	Category    string                `json:"category"`
	Attendances []MemberAttendanceDto `json:"attendances"`
}

func teamAttendanceToDto(p model.TeamAttendancePayload) RegisterTeamAttendanceDto {
	dto := RegisterTeamAttendanceDto{
		TeamID:      p.TeamID,
		ScheduleID:  p.ScheduleID,
		Category:    string(p.Category),
		Attendances: make([]MemberAttendanceDto, 0, len(p.Attendances)),
	}
	for _, a := range p.Attendances {
		dto.Attendances = append(dto.Attendances, MemberAttendanceDto{
			MemberID: a.MemberID,
			Type:     string(a.Type),
			Comment:  a.Comment,
		})
	}
	return dto
}

type PaginatedResponseDto[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type PendingForLeaderDto struct {
	ShelterName    string      `json:"shelterName"`
	TeamID         string      `json:"teamId"`
	TeamNumber     int         `json:"teamNumber"`
	Schedule       ScheduleDto `json:"schedule"`
	PendingMembers []MemberDto `json:"pendingMembers"`
	ReportPending  bool        `json:"reportPending,omitempty"`
}

func (d PendingForLeaderDto) toModel() model.ServerPending {
	p := model.ServerPending{
		ShelterName:   d.ShelterName,
		TeamID:        d.TeamID,
		TeamNumber:    d.TeamNumber,
		Schedule:      d.Schedule.toModel(),
		ReportPending: d.ReportPending,
	}
	for _, m := range d.PendingMembers {
		p.PendingMembers = append(p.PendingMembers, m.toModel())
	}
	return p
}

type PendingForMemberDto struct {
	ShelterName string      `json:"shelterName"`
	TeamID      string      `json:"teamId"`
	TeamNumber  int         `json:"teamNumber"`
	Schedule    ScheduleDto `json:"schedule"`
}

func (d PendingForMemberDto) toModel() model.ServerPending {
	return model.ServerPending{
		ShelterName: d.ShelterName,
		TeamID:      d.TeamID,
		TeamNumber:  d.TeamNumber,
		Schedule:    d.Schedule.toModel(),
	}
}

type TeamOverviewDto struct {
	TeamID               string       `json:"teamId"`
	TeamNumber           int          `json:"teamNumber"`
	ShelterName          string       `json:"shelterName"`
	MemberCount          int          `json:"memberCount"`
	ScheduleCount        int          `json:"scheduleCount"`
	LastRegistered       *ScheduleDto `json:"lastRegisteredSchedule"`
	PendingScheduleCount int          `json:"pendingScheduleCount"`
}

func (d TeamOverviewDto) toModel() model.TeamOverview {
	o := model.TeamOverview{
		TeamID:               d.TeamID,
		TeamNumber:           d.TeamNumber,
		ShelterName:          d.ShelterName,
		MemberCount:          d.MemberCount,
		ScheduleCount:        d.ScheduleCount,
		PendingScheduleCount: d.PendingScheduleCount,
	}
	if d.LastRegistered != nil {
		s := d.LastRegistered.toModel()
		o.LastRegistered = &s
	}
	return o
}

type SheetRecordDto struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName"`
	Type       string `json:"type"`
	Comment    string `json:"comment,omitempty"`
}

type SheetScheduleDto struct {
	ScheduleDto
	PresentCount int              `json:"presentCount"`
	AbsentCount  int              `json:"absentCount"`
	PendingCount int              `json:"pendingCount"`
	Attendances  []SheetRecordDto `json:"attendances"`
}

type SheetTeamDto struct {
	TeamID      string             `json:"teamId"`
	TeamNumber  int                `json:"teamNumber"`
	Description string             `json:"description,omitempty"`
	Schedules   []SheetScheduleDto `json:"schedules"`
}

type SheetShelterDto struct {
	ShelterID   string         `json:"shelterId"`
	ShelterName string         `json:"shelterName"`
	Teams       []SheetTeamDto `json:"teams"`
}

func (d SheetShelterDto) toModel() model.SheetShelter {
	shelter := model.SheetShelter{ShelterID: d.ShelterID, ShelterName: d.ShelterName}
	for _, t := range d.Teams {
		team := model.SheetTeam{TeamID: t.TeamID, TeamNumber: t.TeamNumber, Description: t.Description}
		for _, s := range t.Schedules {
			sched := s.ScheduleDto.toModel()
			if sched.TeamID == "" {
				sched.TeamID = t.TeamID
			}
			entry := model.SheetSchedule{
				Schedule:     sched,
				PresentCount: s.PresentCount,
				AbsentCount:  s.AbsentCount,
				PendingCount: s.PendingCount,
			}
			for _, r := range s.Attendances {
				entry.Records = append(entry.Records, model.SheetRecord{
					MemberID:   r.MemberID,
					MemberName: r.MemberName,
					Type:       model.AttendanceType(r.Type),
					Comment:    r.Comment,
				})
			}
			team.Schedules = append(team.Schedules, entry)
		}
		shelter.Teams = append(shelter.Teams, team)
	}
	return shelter
}

type VisitReportDto struct {
	ID                     string `json:"id,omitempty"`
	ScheduleID             string `json:"scheduleId"`
	TeamID                 string `json:"teamId"`
	ShelterID              string `json:"shelterId"`
	TeamMembersPresent     int    `json:"teamMembersPresent"`
	ShelteredHeardMessage  int    `json:"shelteredHeardMessage"`
	CaretakersHeardMessage int    `json:"caretakersHeardMessage"`
	ShelteredDecisions     int    `json:"shelteredDecisions"`
	CaretakersDecisions    int    `json:"caretakersDecisions"`
	Observation            string `json:"observation,omitempty"`
	CreatedAt              Date   `json:"createdAt"`
	UpdatedAt              Date   `json:"updatedAt"`
}

func (d VisitReportDto) toModel() model.VisitReport {
	return model.VisitReport{
		ID:                     d.ID,
		ScheduleID:             d.ScheduleID,
		TeamID:                 d.TeamID,
		ShelterID:              d.ShelterID,
		TeamMembersPresent:     d.TeamMembersPresent,
		ShelteredHeardMessage:  d.ShelteredHeardMessage,
		CaretakersHeardMessage: d.CaretakersHeardMessage,
		ShelteredDecisions:     d.ShelteredDecisions,
		CaretakersDecisions:    d.CaretakersDecisions,
		Observation:            d.Observation,
		CreatedAt:              d.CreatedAt.Time,
		UpdatedAt:              d.UpdatedAt.Time,
	}
}

func VisitReportToDto(r model.VisitReport) VisitReportDto {
	return VisitReportDto{
		ID:                     r.ID,
		ScheduleID:             r.ScheduleID,
		TeamID:                 r.TeamID,
		ShelterID:              r.ShelterID,
		TeamMembersPresent:     r.TeamMembersPresent,
		ShelteredHeardMessage:  r.ShelteredHeardMessage,
		CaretakersHeardMessage: r.CaretakersHeardMessage,
		ShelteredDecisions:     r.ShelteredDecisions,
		CaretakersDecisions:    r.CaretakersDecisions,
		Observation:            r.Observation,
		CreatedAt:              NewDate(&r.CreatedAt),
		UpdatedAt:              NewDate(&r.UpdatedAt),
	}
}
