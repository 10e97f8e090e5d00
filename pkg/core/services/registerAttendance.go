package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/hierarchy"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/reconcile"
	"github.com/jakechorley/ministry-attendance/pkg/core/rules"
	"github.com/jakechorley/ministry-attendance/pkg/core/submission"
)

// RegisterAttendanceClient defines the API operations team registration needs
type RegisterAttendanceClient interface {
	hierarchy.Source
	reconcile.RecordSource
	submission.API
}

// MemberOverride changes one member's row before submission.
// A nil Comment keeps the comment loaded from existing records.
type MemberOverride struct {
	MemberID string
	Type     model.AttendanceType
	Comment  *string
}

// RegisterAttendanceArgs describes a team registration
type RegisterAttendanceArgs struct {
	TeamID     string
	ScheduleID string
	// Category defaults to the schedule's own category
	Category model.Category
	// AllType, when set, bulk-applies a type to every member before overrides
	AllType       model.AttendanceType
	Overrides     []MemberOverride
	ClearComments bool
}

// AttendanceForm is a loaded attendance screen: the team roster, its schedules
// and the reconciliation engine holding the edit buffer
type AttendanceForm struct {
	Schedules []model.Schedule
	Engine    *reconcile.Engine
}

// OpenAttendanceForm loads the roster and schedules of a team and selects a
// schedule, merging any attendance already registered for it. Callers must
// Close the returned engine.
func OpenAttendanceForm(
	ctx context.Context,
	client RegisterAttendanceClient,
	logger *zap.Logger,
	teamID, scheduleID string,
	category model.Category,
) (*AttendanceForm, error) {
	loader := hierarchy.NewLoader(client, logger)
	members, err := loader.LoadTeamMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	schedules, err := loader.LoadTeamSchedules(ctx, teamID, model.ScheduleSort{SortBy: "date", Desc: true})
	if err != nil {
		return nil, err
	}

	if category == "" {
		category = model.CategoryVisit
		for _, s := range schedules {
			if s.ID == scheduleID && s.Category.IsValid() {
				category = s.Category
				break
			}
		}
	}

	engine := reconcile.NewEngine(client, logger)
	engine.SelectTeam(teamID, members)
	if scheduleID != "" {
		if err := engine.SelectSchedule(ctx, scheduleID, category); err != nil {
			engine.Close()
			return nil, err
		}
	}

	return &AttendanceForm{Schedules: schedules, Engine: engine}, nil
}

// RegisterTeamAttendance registers attendance for a whole team. Every member
// defaults to present, existing records are merged in, then the bulk type and
// the per-member overrides are applied before the buffer is validated and upserted.
func RegisterTeamAttendance(
	ctx context.Context,
	client RegisterAttendanceClient,
	session model.Session,
	logger *zap.Logger,
	args RegisterAttendanceArgs,
) (*submission.Result, error) {
	if !model.ResolveCapabilities(session.Role).CanRegisterForTeam {
		return nil, ErrNotPermitted
	}

	logger.Debug("Starting registerTeamAttendance",
		zap.String("team_id", args.TeamID),
		zap.String("schedule_id", args.ScheduleID),
		zap.String("category", string(args.Category)))

	form, err := OpenAttendanceForm(ctx, client, logger, args.TeamID, args.ScheduleID, args.Category)
	if err != nil {
		return nil, err
	}
	defer form.Engine.Close()

	state := form.Engine.State()
	for _, o := range args.Overrides {
		if _, ok := state.Rows[o.MemberID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMember, o.MemberID)
		}
		if o.Type != "" && !o.Type.IsValid() {
			return nil, fmt.Errorf("invalid attendance type %q for member %s", o.Type, o.MemberID)
		}
	}

	if args.AllType != "" {
		if !args.AllType.IsValid() {
			return nil, fmt.Errorf("invalid attendance type %q", args.AllType)
		}
		form.Engine.BulkSetType(args.AllType)
	}
	if args.ClearComments {
		form.Engine.ClearAllComments()
	}
	for _, o := range args.Overrides {
		if o.Type != "" {
			form.Engine.SetMemberType(o.MemberID, o.Type)
		}
		if o.Comment != nil {
			form.Engine.SetMemberComment(o.MemberID, *o.Comment)
		}
	}

	coordinator := submission.NewCoordinator(client, form.Engine, logger)
	return coordinator.Submit(ctx, form.Schedules)
}

// OwnAttendanceClient defines the API operation for self registration
type OwnAttendanceClient interface {
	RegisterAttendance(ctx context.Context, scheduleID string, attendanceType model.AttendanceType, comment string, flags model.RequestFlags) (model.AttendanceRecord, error)
}

// RegisterOwnAttendance registers the signed-in member's attendance for a schedule
func RegisterOwnAttendance(
	ctx context.Context,
	client OwnAttendanceClient,
	session model.Session,
	logger *zap.Logger,
	scheduleID string,
	attendanceType model.AttendanceType,
	comment string,
) (model.AttendanceRecord, error) {
	if !model.ResolveCapabilities(session.Role).CanRegisterForSelf {
		return model.AttendanceRecord{}, ErrNotPermitted
	}
	if scheduleID == "" {
		return model.AttendanceRecord{}, submission.ErrNoScheduleSelected
	}
	if attendanceType == "" {
		attendanceType = model.AttendancePresent
	}
	if !attendanceType.IsValid() {
		return model.AttendanceRecord{}, fmt.Errorf("invalid attendance type %q", attendanceType)
	}
	if !rules.CommentWithinLimit(comment) {
		return model.AttendanceRecord{}, submission.ErrCommentTooLong
	}

	rec, err := client.RegisterAttendance(ctx, scheduleID, attendanceType, comment, model.RequestFlags{SkipGlobalErrorHandling: true})
	if err != nil {
		logger.Warn("Own attendance registration failed", zap.String("schedule_id", scheduleID), zap.Error(err))
		return model.AttendanceRecord{}, fmt.Errorf("failed to register attendance: %w", err)
	}

	logger.Info("Own attendance registered",
		zap.String("schedule_id", scheduleID),
		zap.String("type", string(rec.Type)))
	return rec, nil
}
