package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/rules"
)

// VisitReportClient defines the API operations for visit reports
type VisitReportClient interface {
	ListVisitReports(ctx context.Context, query apiclient.VisitReportQuery) ([]model.VisitReport, error)
	CreateVisitReport(ctx context.Context, report model.VisitReport, flags model.RequestFlags) (model.VisitReport, error)
	UpdateVisitReport(ctx context.Context, report model.VisitReport, flags model.RequestFlags) (model.VisitReport, error)
	DeleteVisitReport(ctx context.Context, id string, flags model.RequestFlags) error
	GetTeamMembers(ctx context.Context, teamID string) ([]model.Member, error)
}

// VisitReportArgs identifies the visit and carries the statistics
type VisitReportArgs struct {
	ScheduleID string
	TeamID     string
	ShelterID  string
	Stats      rules.VisitReportInput
}

func (a VisitReportArgs) report() model.VisitReport {
	return model.VisitReport{
		ScheduleID:             a.ScheduleID,
		TeamID:                 a.TeamID,
		ShelterID:              a.ShelterID,
		TeamMembersPresent:     a.Stats.TeamMembersPresent,
		ShelteredHeardMessage:  a.Stats.ShelteredHeardMessage,
		CaretakersHeardMessage: a.Stats.CaretakersHeardMessage,
		ShelteredDecisions:     a.Stats.ShelteredDecisions,
		CaretakersDecisions:    a.Stats.CaretakersDecisions,
		Observation:            a.Stats.Observation,
	}
}

// findReport returns the report of a schedule, or nil
func findReport(ctx context.Context, client VisitReportClient, scheduleID string) (*model.VisitReport, error) {
	reports, err := client.ListVisitReports(ctx, apiclient.VisitReportQuery{ScheduleID: scheduleID})
	if err != nil {
		return nil, fmt.Errorf("failed to list visit reports: %w", err)
	}
	for i := range reports {
		if reports[i].ScheduleID == scheduleID {
			return &reports[i], nil
		}
	}
	return nil, nil
}

// validateReport checks the statistics against the team size. An unknown team
// size only disables the team size check.
func validateReport(ctx context.Context, client VisitReportClient, logger *zap.Logger, args VisitReportArgs) error {
	teamSize := 0
	if args.TeamID != "" {
		members, err := client.GetTeamMembers(ctx, args.TeamID)
		if err != nil {
			logger.Warn("Could not load team size for visit report", zap.String("team_id", args.TeamID), zap.Error(err))
		} else {
			teamSize = len(members)
		}
	}
	return rules.ValidateVisitReport(args.Stats, teamSize)
}

// CreateVisitReport creates the report of a visit. Only one report may exist per schedule.
func CreateVisitReport(
	ctx context.Context,
	client VisitReportClient,
	session model.Session,
	logger *zap.Logger,
	args VisitReportArgs,
) (model.VisitReport, error) {
	if !model.ResolveCapabilities(session.Role).CanRegisterForTeam {
		return model.VisitReport{}, ErrNotPermitted
	}
	if args.ScheduleID == "" {
		return model.VisitReport{}, fmt.Errorf("schedule id is required")
	}
	if err := validateReport(ctx, client, logger, args); err != nil {
		return model.VisitReport{}, err
	}

	existing, err := findReport(ctx, client, args.ScheduleID)
	if err != nil {
		return model.VisitReport{}, err
	}
	if existing != nil {
		return model.VisitReport{}, ErrReportExists
	}

	created, err := client.CreateVisitReport(ctx, args.report(), model.RequestFlags{SkipGlobalErrorHandling: true})
	if err != nil {
		return model.VisitReport{}, fmt.Errorf("failed to create visit report: %w", err)
	}

	logger.Info("Visit report created", zap.String("report_id", created.ID), zap.String("schedule_id", created.ScheduleID))
	return created, nil
}

// UpdateVisitReport replaces the statistics of the report of a schedule
func UpdateVisitReport(
	ctx context.Context,
	client VisitReportClient,
	session model.Session,
	logger *zap.Logger,
	args VisitReportArgs,
) (model.VisitReport, error) {
	if !model.ResolveCapabilities(session.Role).CanRegisterForTeam {
		return model.VisitReport{}, ErrNotPermitted
	}

	existing, err := findReport(ctx, client, args.ScheduleID)
	if err != nil {
		return model.VisitReport{}, err
	}
	if existing == nil {
		return model.VisitReport{}, ErrReportNotFound
	}

	if args.TeamID == "" {
		args.TeamID = existing.TeamID
	}
	if args.ShelterID == "" {
		args.ShelterID = existing.ShelterID
	}
	if err := validateReport(ctx, client, logger, args); err != nil {
		return model.VisitReport{}, err
	}

	report := args.report()
	report.ID = existing.ID
	updated, err := client.UpdateVisitReport(ctx, report, model.RequestFlags{SkipGlobalErrorHandling: true})
	if err != nil {
		return model.VisitReport{}, fmt.Errorf("failed to update visit report: %w", err)
	}

	logger.Info("Visit report updated", zap.String("report_id", updated.ID))
	return updated, nil
}

// DeleteVisitReport removes the report of a schedule
func DeleteVisitReport(
	ctx context.Context,
	client VisitReportClient,
	session model.Session,
	logger *zap.Logger,
	scheduleID string,
) error {
	if !model.ResolveCapabilities(session.Role).CanRegisterForTeam {
		return ErrNotPermitted
	}

	existing, err := findReport(ctx, client, scheduleID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrReportNotFound
	}

	if err := client.DeleteVisitReport(ctx, existing.ID, model.RequestFlags{SkipGlobalErrorHandling: true}); err != nil {
		return fmt.Errorf("failed to delete visit report: %w", err)
	}

	logger.Info("Visit report deleted", zap.String("report_id", existing.ID), zap.String("schedule_id", scheduleID))
	return nil
}

// ListVisitReports lists the reports of a team, or all reports when teamID is empty
func ListVisitReports(ctx context.Context, client VisitReportClient, logger *zap.Logger, teamID string) ([]model.VisitReport, error) {
	reports, err := client.ListVisitReports(ctx, apiclient.VisitReportQuery{TeamID: teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to list visit reports: %w", err)
	}
	logger.Debug("Visit reports listed", zap.String("team_id", teamID), zap.Int("count", len(reports)))
	return reports, nil
}
