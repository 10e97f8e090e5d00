package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// DefaultRecordsLimit is the page size used when a query sets none
const DefaultRecordsLimit = 200

// RecordsQuery filters GET /attendance/records
type RecordsQuery struct {
	ScheduleID string
	Category   model.Category
	Limit      int
	Page       int
}

func (q RecordsQuery) values() url.Values {
	v := url.Values{}
	if q.ScheduleID != "" {
		v.Set("scheduleId", q.ScheduleID)
	}
	if q.Category != "" {
		v.Set("category", string(q.Category))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultRecordsLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// RegisterAttendance registers the signed-in member's own attendance
func (c *Client) RegisterAttendance(ctx context.Context, scheduleID string, attendanceType model.AttendanceType, comment string, flags model.RequestFlags) (model.AttendanceRecord, error) {
	body := RegisterAttendanceDto{
		ScheduleID: scheduleID,
		Type:       string(attendanceType),
		Comment:    model.NormalizeComment(comment),
	}
	var out AttendanceResponseDto
	if err := c.do(ctx, http.MethodPost, "/attendance/register", nil, body, &out, flags); err != nil {
		return model.AttendanceRecord{}, err
	}
	return out.toModel(), nil
}

// RegisterTeamAttendance upserts attendance for every member in the payload
func (c *Client) RegisterTeamAttendance(ctx context.Context, payload model.TeamAttendancePayload, flags model.RequestFlags) ([]model.AttendanceRecord, error) {
	var out []AttendanceResponseDto
	if err := c.do(ctx, http.MethodPost, "/attendance/register/team", nil, teamAttendanceToDto(payload), &out, flags); err != nil {
		return nil, err
	}
	records := make([]model.AttendanceRecord, 0, len(out))
	for _, r := range out {
		records = append(records, r.toModel())
	}
	return records, nil
}

// AttendanceRecords fetches a single page of records
func (c *Client) AttendanceRecords(ctx context.Context, query RecordsQuery) (model.RecordsPage, error) {
	var out PaginatedResponseDto[AttendanceResponseDto]
	if err := c.do(ctx, http.MethodGet, "/attendance/records", query.values(), nil, &out, model.RequestFlags{}); err != nil {
		return model.RecordsPage{}, err
	}
	page := model.RecordsPage{Total: out.Total, Page: out.Page, TotalPages: out.TotalPages}
	for _, r := range out.Data {
		page.Records = append(page.Records, r.toModel())
	}
	return page, nil
}

// AllAttendanceRecords follows pagination until every matching record is fetched
func (c *Client) AllAttendanceRecords(ctx context.Context, query RecordsQuery) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	query.Page = 1
	for {
		page, err := c.AttendanceRecords(ctx, query)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if len(page.Records) == 0 || query.Page >= page.TotalPages {
			return records, nil
		}
		query.Page++
	}
}

// GetExistingAttendance returns the records for a schedule and category
func (c *Client) GetExistingAttendance(ctx context.Context, scheduleID string, category model.Category) ([]model.AttendanceRecord, error) {
	records, err := c.AllAttendanceRecords(ctx, RecordsQuery{ScheduleID: scheduleID, Category: category})
	if err != nil {
		return nil, fmt.Errorf("failed to get existing attendance: %w", err)
	}
	c.logger.Debug("Fetched existing attendance",
		zap.String("schedule_id", scheduleID),
		zap.String("category", string(category)),
		zap.Int("count", len(records)))
	return records, nil
}

// PendingForLeader returns the server-computed pendings of the teams the caller leads
func (c *Client) PendingForLeader(ctx context.Context, teamID string) ([]model.ServerPending, error) {
	var query url.Values
	if teamID != "" {
		query = url.Values{"teamId": {teamID}}
	}
	var out []PendingForLeaderDto
	if err := c.do(ctx, http.MethodGet, "/attendance/pending/leader", query, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	pendings := make([]model.ServerPending, 0, len(out))
	for _, p := range out {
		pendings = append(pendings, p.toModel())
	}
	return pendings, nil
}

// PendingForMember returns the server-computed pendings of the signed-in member
func (c *Client) PendingForMember(ctx context.Context) ([]model.ServerPending, error) {
	var out []PendingForMemberDto
	if err := c.do(ctx, http.MethodGet, "/attendance/pending/member", nil, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	pendings := make([]model.ServerPending, 0, len(out))
	for _, p := range out {
		pendings = append(pendings, p.toModel())
	}
	return pendings, nil
}

// GetSheltersTeamsMembers loads the full shelter, team and member hierarchy
func (c *Client) GetSheltersTeamsMembers(ctx context.Context) ([]model.Shelter, error) {
	var out []ShelterWithTeamsDto
	if err := c.do(ctx, http.MethodGet, "/attendance/shelters-teams-members", nil, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	shelters := make([]model.Shelter, 0, len(out))
	for _, s := range out {
		shelters = append(shelters, s.toModel())
	}
	return shelters, nil
}

// GetTeamMembers lists the members of a team
func (c *Client) GetTeamMembers(ctx context.Context, teamID string) ([]model.Member, error) {
	var out []MemberDto
	path := "/attendance/team/" + url.PathEscape(teamID) + "/members"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	members := make([]model.Member, 0, len(out))
	for _, m := range out {
		members = append(members, m.toModel())
	}
	return members, nil
}

// GetTeamSchedules lists the schedules of a team in the requested order
func (c *Client) GetTeamSchedules(ctx context.Context, teamID string, sort model.ScheduleSort) ([]model.Schedule, error) {
	query := url.Values{}
	if sort.SortBy != "" {
		query.Set("sortBy", sort.SortBy)
		order := "asc"
		if sort.Desc {
			order = "desc"
		}
		query.Set("sortOrder", order)
	}
	var out []ScheduleDto
	path := "/attendance/team/" + url.PathEscape(teamID) + "/schedules"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	schedules := make([]model.Schedule, 0, len(out))
	for _, s := range out {
		sched := s.toModel()
		if sched.TeamID == "" {
			sched.TeamID = teamID
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// TeamOverview returns the summary of a team
func (c *Client) TeamOverview(ctx context.Context, teamID string) (model.TeamOverview, error) {
	var out TeamOverviewDto
	path := "/attendance/team/" + url.PathEscape(teamID) + "/overview"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, model.RequestFlags{}); err != nil {
		return model.TeamOverview{}, err
	}
	overview := out.toModel()
	if overview.TeamID == "" {
		overview.TeamID = teamID
	}
	return overview, nil
}

// LeaderTeams lists the teams the caller leads
func (c *Client) LeaderTeams(ctx context.Context) ([]model.Team, error) {
	return c.teams(ctx, "/attendance/leader/teams")
}

// TeamsMembers lists every team visible to the caller with its members
func (c *Client) TeamsMembers(ctx context.Context) ([]model.Team, error) {
	return c.teams(ctx, "/attendance/teams/members")
}

func (c *Client) teams(ctx context.Context, path string) ([]model.Team, error) {
	var out []TeamDto
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	teams := make([]model.Team, 0, len(out))
	for _, t := range out {
		teams = append(teams, t.toModel())
	}
	return teams, nil
}

// HierarchicalSheets returns the attendance sheet tree for schedules between start and end
func (c *Client) HierarchicalSheets(ctx context.Context, start, end time.Time) ([]model.SheetShelter, error) {
	query := url.Values{}
	if !start.IsZero() {
		query.Set("startDate", start.UTC().Format(dateLayout))
	}
	if !end.IsZero() {
		query.Set("endDate", end.UTC().Format(dateLayout))
	}
	var out []SheetShelterDto
	if err := c.do(ctx, http.MethodGet, "/attendance/sheets/hierarchical", query, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	shelters := make([]model.SheetShelter, 0, len(out))
	for _, s := range out {
		shelters = append(shelters, s.toModel())
	}
	return shelters, nil
}
