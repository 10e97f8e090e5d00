package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/pending"
)

// PendingSource defines the API operations a pending snapshot is built from
type PendingSource interface {
	GetSheltersTeamsMembers(ctx context.Context) ([]model.Shelter, error)
	HierarchicalSheets(ctx context.Context, start, end time.Time) ([]model.SheetShelter, error)
	ListVisitReports(ctx context.Context, query apiclient.VisitReportQuery) ([]model.VisitReport, error)
}

// ServerPendingSource defines the server-side pending endpoints
type ServerPendingSource interface {
	PendingForLeader(ctx context.Context, teamID string) ([]model.ServerPending, error)
	PendingForMember(ctx context.Context) ([]model.ServerPending, error)
}

// LoadPendingSnapshot fetches the hierarchy, the attendance sheet of the last
// windowDays days and the visit reports in parallel, and merges them into the
// input of pending.Compute
func LoadPendingSnapshot(
	ctx context.Context,
	source PendingSource,
	session model.Session,
	now time.Time,
	windowDays int,
	logger *zap.Logger,
) (*pending.Input, error) {
	start := now.AddDate(0, 0, -windowDays)
	logger.Debug("Loading pending snapshot", zap.Time("start", start), zap.Time("end", now))

	var shelters []model.Shelter
	var sheets []model.SheetShelter
	var reports []model.VisitReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shelters, err = source.GetSheltersTeamsMembers(gctx)
		if err != nil {
			return fmt.Errorf("failed to load hierarchy: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sheets, err = source.HierarchicalSheets(gctx, start, now)
		if err != nil {
			return fmt.Errorf("failed to load attendance sheets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reports, err = source.ListVisitReports(gctx, apiclient.VisitReportQuery{})
		if err != nil {
			return fmt.Errorf("failed to load visit reports: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Warn("Pending snapshot load failed", zap.Error(err))
		return nil, err
	}

	hierarchy, records := MergeSheets(shelters, sheets)
	hierarchy = DropSchedulesBefore(hierarchy, start)
	logger.Debug("Pending snapshot loaded",
		zap.Int("shelters", len(hierarchy)),
		zap.Int("records", len(records)),
		zap.Int("reports", len(reports)))

	return &pending.Input{
		Hierarchy:  hierarchy,
		Attendance: pending.NewAttendanceIndex(records),
		Reports:    pending.NewReportIndex(reports),
		Session:    session,
		Now:        now,
	}, nil
}

// LoadPendings loads a snapshot and computes pendings for the session
func LoadPendings(
	ctx context.Context,
	source PendingSource,
	session model.Session,
	now time.Time,
	windowDays int,
	logger *zap.Logger,
) (*pending.Result, error) {
	input, err := LoadPendingSnapshot(ctx, source, session, now, windowDays, logger)
	if err != nil {
		return nil, err
	}
	result := pending.Compute(*input)
	logger.Info("Pendings computed",
		zap.Int("member", len(result.MemberPendings)),
		zap.Int("leader_teams", len(result.LeaderPendings)),
		zap.Int("report_teams", len(result.VisitReportPendings)),
		zap.Int("total", result.Total()))
	return &result, nil
}

// LoadServerPendings asks the API for the pendings it computed for the session.
// Team-capable sessions get leader pendings, others their own.
func LoadServerPendings(
	ctx context.Context,
	source ServerPendingSource,
	session model.Session,
	teamID string,
	logger *zap.Logger,
) ([]model.ServerPending, error) {
	caps := model.ResolveCapabilities(session.Role)
	switch {
	case caps.CanRegisterForTeam:
		pendings, err := source.PendingForLeader(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to load leader pendings: %w", err)
		}
		return pendings, nil
	case caps.CanRegisterForSelf:
		pendings, err := source.PendingForMember(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load member pendings: %w", err)
		}
		return pendings, nil
	default:
		logger.Debug("Session has no pending capability", zap.String("role", string(session.Role)))
		return nil, ErrNotPermitted
	}
}

// MergeSheets attaches the schedules of the attendance sheet to the teams of
// the hierarchy and returns the attendance records the sheet contains.
// Teams only present in the sheet are ignored since their roster is unknown.
func MergeSheets(shelters []model.Shelter, sheets []model.SheetShelter) ([]model.Shelter, []model.AttendanceRecord) {
	merged := make([]model.Shelter, len(shelters))
	for i, s := range shelters {
		merged[i] = s
		merged[i].Teams = append([]model.Team(nil), s.Teams...)
		for j := range merged[i].Teams {
			merged[i].Teams[j].Schedules = append([]model.Schedule(nil), s.Teams[j].Schedules...)
		}
	}

	var records []model.AttendanceRecord
	for _, sheetShelter := range sheets {
		for _, sheetTeam := range sheetShelter.Teams {
			_, team := model.FindTeam(merged, sheetTeam.TeamID)
			for _, entry := range sheetTeam.Schedules {
				sched := entry.Schedule
				if sched.TeamID == "" {
					sched.TeamID = sheetTeam.TeamID
				}
				if team != nil {
					team.Schedules = appendSchedule(team.Schedules, sched)
				}
				for _, r := range entry.Records {
					records = append(records, model.AttendanceRecord{
						ScheduleID: sched.ID,
						MemberID:   r.MemberID,
						Category:   sched.Category,
						Type:       r.Type,
						Comment:    r.Comment,
					})
				}
			}
		}
	}

	return merged, records
}

// DropSchedulesBefore removes schedules dated before the day of start.
// Their records lie outside the loaded sheet window, so they cannot be judged.
// Schedules without a date are kept; they are never pending.
func DropSchedulesBefore(shelters []model.Shelter, start time.Time) []model.Shelter {
	s := start.UTC()
	cutoff := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	for i := range shelters {
		for j := range shelters[i].Teams {
			team := &shelters[i].Teams[j]
			var kept []model.Schedule
			for _, sched := range team.Schedules {
				if date, ok := sched.EffectiveDate(); ok && date.Before(cutoff) {
					continue
				}
				kept = append(kept, sched)
			}
			team.Schedules = kept
		}
	}
	return shelters
}

func appendSchedule(schedules []model.Schedule, s model.Schedule) []model.Schedule {
	for _, existing := range schedules {
		if existing.ID == s.ID {
			return schedules
		}
	}
	return append(schedules, s)
}
