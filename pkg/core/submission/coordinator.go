package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/reconcile"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

const fallbackErrorMessage = "Could not save attendance. Please try again."

// API performs the team attendance upsert
type API interface {
	RegisterTeamAttendance(ctx context.Context, payload model.TeamAttendancePayload, flags model.RequestFlags) ([]model.AttendanceRecord, error)
}

// userMessenger is implemented by transport errors that carry a server message
type userMessenger interface {
	UserMessage() string
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// FormState is what the attendance form renders: a loading flag, an error
// alert or a success message
type FormState struct {
	Status   Status
	Error    string
	Feedback string
	// RowErrors maps member id to an inline error for that row
	RowErrors map[string]string
}

func (f FormState) Loading() bool {
	return f.Status == StatusLoading
}

// Result describes a successful submission
type Result struct {
	Count   int
	Created bool
	Message string
	Records []model.AttendanceRecord
}

// Coordinator validates and submits the buffer held by a reconciliation engine
type Coordinator struct {
	api    API
	engine *reconcile.Engine
	logger *zap.Logger

	mu   sync.Mutex
	form FormState
}

func NewCoordinator(api API, engine *reconcile.Engine, logger *zap.Logger) *Coordinator {
	return &Coordinator{api: api, engine: engine, logger: logger}
}

// FormState returns the current form state
func (c *Coordinator) FormState() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Dismiss clears the error or success message
func (c *Coordinator) Dismiss() {
	c.setForm(FormState{Status: StatusIdle})
}

func (c *Coordinator) setForm(f FormState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = f
}

// Submit validates the engine's buffer against the known schedules and upserts it.
// Validation failures return one of the package's sentinel errors (possibly
// wrapped) without any network call. The buffer is kept on every failure.
func (c *Coordinator) Submit(ctx context.Context, schedules []model.Schedule) (*Result, error) {
	state := c.engine.State()
	key := state.Selected
	rows := state.OrderedRows()

	err := Validate(Input{
		ScheduleID: key.ScheduleID,
		Schedules:  schedules,
		Members:    state.Members,
		Rows:       rows,
	})
	if err != nil {
		c.handleValidationError(ctx, key, err)
		return nil, err
	}

	if !state.Editable() {
		c.setForm(FormState{Status: StatusError, Error: ErrBusy.Error()})
		return nil, ErrBusy
	}

	hadExisting := state.HasExistingAttendance()
	c.setForm(FormState{Status: StatusLoading})
	if err := c.engine.Apply(ctx, reconcile.SubmitStarted{}); err != nil {
		return nil, err
	}

	payload := BuildPayload(state.TeamID, key, rows)
	c.logger.Debug("Submitting team attendance",
		zap.String("team_id", payload.TeamID),
		zap.String("key", key.String()),
		zap.Int("rows", len(payload.Attendances)))

	records, err := c.api.RegisterTeamAttendance(ctx, payload, model.RequestFlags{SkipGlobalErrorHandling: true})
	if err != nil {
		_ = c.engine.Apply(ctx, reconcile.SubmitFailed{Err: err})
		msg := fallbackErrorMessage
		var um userMessenger
		if errors.As(err, &um) && um.UserMessage() != "" {
			msg = um.UserMessage()
		}
		c.logger.Warn("Attendance submission failed", zap.String("key", key.String()), zap.Error(err))
		c.setForm(FormState{Status: StatusError, Error: msg})
		return nil, fmt.Errorf("failed to register attendance: %w", err)
	}

	// Re-fetch to refresh the already-submitted indicators. A failed refresh
	// does not undo a successful submission.
	if err := c.engine.Apply(ctx, reconcile.SubmitSucceeded{Records: records}); err != nil {
		c.logger.Warn("Attendance refresh after submission failed", zap.String("key", key.String()), zap.Error(err))
	}

	result := &Result{
		Count:   len(payload.Attendances),
		Created: !hadExisting,
		Records: records,
	}
	members := viewmodel.CountLabel(result.Count, "member", "members")
	if result.Created {
		result.Message = "Attendance registered for " + members
	} else {
		result.Message = "Attendance updated for " + members
	}

	c.logger.Info("Attendance submitted", zap.String("key", key.String()), zap.Int("count", result.Count), zap.Bool("created", result.Created))
	c.setForm(FormState{Status: StatusSuccess, Feedback: result.Message})
	return result, nil
}

func (c *Coordinator) handleValidationError(ctx context.Context, key reconcile.Key, err error) {
	c.logger.Debug("Attendance validation failed", zap.String("key", key.String()), zap.Error(err))

	form := FormState{Status: StatusError, Error: err.Error()}

	var tooLong *CommentTooLongError
	if errors.As(err, &tooLong) {
		form.Error = ErrCommentTooLong.Error()
		form.RowErrors = make(map[string]string, len(tooLong.MemberIDs))
		for _, id := range tooLong.MemberIDs {
			form.RowErrors[id] = ErrCommentTooLong.Error()
		}
	}

	var notFound *ScheduleNotFoundError
	if errors.As(err, &notFound) {
		form.Error = ErrScheduleNotFound.Error()
		if notFound.FallbackID != "" {
			if selErr := c.engine.SelectSchedule(ctx, notFound.FallbackID, key.Category); selErr != nil {
				c.logger.Warn("Fallback schedule selection failed", zap.String("schedule_id", notFound.FallbackID), zap.Error(selErr))
			}
		}
	}

	c.setForm(form)
}
