package pending

import (
	"sort"
	"time"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// AttendanceKey identifies a member's attendance for a schedule
type AttendanceKey struct {
	ScheduleID string
	MemberID   string
}

// AttendanceIndex records which (schedule, member) pairs already have attendance
type AttendanceIndex map[AttendanceKey]struct{}

// ReportIndex records which schedules already have a visit report
type ReportIndex map[string]struct{}

// NewAttendanceIndex builds an index from attendance records
func NewAttendanceIndex(records []model.AttendanceRecord) AttendanceIndex {
	idx := make(AttendanceIndex, len(records))
	for _, r := range records {
		idx[AttendanceKey{ScheduleID: r.ScheduleID, MemberID: r.MemberID}] = struct{}{}
	}
	return idx
}

// Has reports whether attendance exists for the member and schedule
func (idx AttendanceIndex) Has(scheduleID, memberID string) bool {
	_, ok := idx[AttendanceKey{ScheduleID: scheduleID, MemberID: memberID}]
	return ok
}

// NewReportIndex builds an index from visit reports
func NewReportIndex(reports []model.VisitReport) ReportIndex {
	idx := make(ReportIndex, len(reports))
	for _, r := range reports {
		idx[r.ScheduleID] = struct{}{}
	}
	return idx
}

// Has reports whether the schedule already has a visit report
func (idx ReportIndex) Has(scheduleID string) bool {
	_, ok := idx[scheduleID]
	return ok
}

// Input is the snapshot pendings are derived from
type Input struct {
	Hierarchy  []model.Shelter
	Attendance AttendanceIndex
	Reports    ReportIndex
	Session    model.Session
	Now        time.Time
}

// MemberPending is a schedule the signed-in member has not registered attendance for
type MemberPending struct {
	ShelterName string
	Team        model.Team
	Schedule    model.Schedule
}

// SchedulePending is a schedule with at least one member missing attendance
type SchedulePending struct {
	Schedule       model.Schedule
	PendingMembers []model.Member
}

// TeamPendings groups leader pendings of a single team
type TeamPendings struct {
	ShelterName string
	Team        model.Team
	Schedules   []SchedulePending
}

// TeamReportPendings groups visits of a team that still lack a report
type TeamReportPendings struct {
	ShelterName string
	Team        model.Team
	Schedules   []model.Schedule
}

// Result partitions pendings by role and work type
type Result struct {
	MemberPendings      []MemberPending
	LeaderPendings      []TeamPendings
	VisitReportPendings []TeamReportPendings
}

// Total returns the number of pending items across all partitions
func (r Result) Total() int {
	total := len(r.MemberPendings)
	for _, t := range r.LeaderPendings {
		total += len(t.Schedules)
	}
	for _, t := range r.VisitReportPendings {
		total += len(t.Schedules)
	}
	return total
}

// Compute derives pendings from the snapshot. It is a pure function of its input.
func Compute(in Input) Result {
	caps := model.ResolveCapabilities(in.Session.Role)
	cutoff := endOfDay(in.Now)

	var result Result
	seenMember := make(map[string]bool)

	for _, team := range orderedTeams(in.Hierarchy) {
		if len(team.Members) == 0 {
			continue
		}

		schedules := dueSchedules(team.Schedules, cutoff)
		if len(schedules) == 0 {
			continue
		}

		if caps.CanRegisterForSelf && in.Session.MemberID != "" && hasMember(team, in.Session.MemberID) {
			for _, s := range schedules {
				if seenMember[s.ID] || in.Attendance.Has(s.ID, in.Session.MemberID) {
					continue
				}
				seenMember[s.ID] = true
				result.MemberPendings = append(result.MemberPendings, MemberPending{
					ShelterName: team.ShelterName,
					Team:        stripTeam(team),
					Schedule:    s,
				})
			}
		}

		if !caps.CanRegisterForTeam || !leadsTeam(in.Session, team) {
			continue
		}

		var teamPendings []SchedulePending
		var reportPendings []model.Schedule
		for _, s := range schedules {
			var missing []model.Member
			for _, m := range team.Members {
				if !in.Attendance.Has(s.ID, m.ID) {
					missing = append(missing, m)
				}
			}
			if len(missing) > 0 {
				teamPendings = append(teamPendings, SchedulePending{Schedule: s, PendingMembers: missing})
			}

			if s.Category == model.CategoryVisit && !in.Reports.Has(s.ID) {
				reportPendings = append(reportPendings, s)
			}
		}

		if len(teamPendings) > 0 {
			result.LeaderPendings = append(result.LeaderPendings, TeamPendings{
				ShelterName: team.ShelterName,
				Team:        stripTeam(team),
				Schedules:   teamPendings,
			})
		}
		if len(reportPendings) > 0 {
			result.VisitReportPendings = append(result.VisitReportPendings, TeamReportPendings{
				ShelterName: team.ShelterName,
				Team:        stripTeam(team),
				Schedules:   reportPendings,
			})
		}
	}

	return result
}

// leadsTeam reports whether the session acts as leader or admin for the team.
// A leader session without a member id leads every team it was given.
func leadsTeam(session model.Session, team model.Team) bool {
	switch session.Role {
	case model.RoleAdmin:
		return true
	case model.RoleLeader:
		return session.MemberID == "" || hasMember(team, session.MemberID)
	default:
		return false
	}
}

func hasMember(team model.Team, memberID string) bool {
	for _, m := range team.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// orderedTeams flattens the hierarchy into teams sorted by shelter name then number.
// Teams appearing more than once are kept only the first time.
func orderedTeams(shelters []model.Shelter) []model.Team {
	var teams []model.Team
	seen := make(map[string]bool)
	for _, s := range shelters {
		for _, t := range s.Teams {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			if t.ShelterName == "" {
				t.ShelterName = s.Name
			}
			if t.ShelterID == "" {
				t.ShelterID = s.ID
			}
			teams = append(teams, t)
		}
	}

	sort.SliceStable(teams, func(i, j int) bool {
		if teams[i].ShelterName != teams[j].ShelterName {
			return teams[i].ShelterName < teams[j].ShelterName
		}
		return teams[i].Number < teams[j].Number
	})
	return teams
}

// dueSchedules returns dated schedules on or before cutoff, deduplicated and ordered
func dueSchedules(schedules []model.Schedule, cutoff time.Time) []model.Schedule {
	var due []model.Schedule
	seen := make(map[string]bool)
	for _, s := range schedules {
		if seen[s.ID] {
			continue
		}
		d, ok := s.EffectiveDate()
		if !ok || d.After(cutoff) {
			continue
		}
		seen[s.ID] = true
		due = append(due, s)
	}

	sort.SliceStable(due, func(i, j int) bool {
		di, _ := due[i].EffectiveDate()
		dj, _ := due[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return due[i].VisitNumber < due[j].VisitNumber
	})
	return due
}

// stripTeam drops the nested lists so results stay small and comparable
func stripTeam(t model.Team) model.Team {
	t.Members = nil
	t.Schedules = nil
	return t
}

func endOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}
