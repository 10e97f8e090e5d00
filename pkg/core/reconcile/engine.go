package reconcile

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// RecordSource loads the attendance records already stored for a schedule and category
type RecordSource interface {
	GetExistingAttendance(ctx context.Context, scheduleID string, category model.Category) ([]model.AttendanceRecord, error)
}

// Engine owns the edit buffer of one attendance screen. Events are applied
// under a lock; fetches run outside it, so a response may arrive after the
// selection moved on. Such responses are discarded by the reducer.
type Engine struct {
	mu     sync.Mutex
	state  State
	source RecordSource
	logger *zap.Logger

	lifetime context.Context
	close    context.CancelFunc
}

func NewEngine(source RecordSource, logger *zap.Logger) *Engine {
	lifetime, cancel := context.WithCancel(context.Background())
	return &Engine{
		source:   source,
		logger:   logger,
		lifetime: lifetime,
		close:    cancel,
	}
}

// State returns a snapshot of the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Apply reduces ev and runs any resulting effect before returning.
// The returned error is informational: failures are also recorded in the state.
func (e *Engine) Apply(ctx context.Context, ev Event) error {
	effect := e.dispatch(ev)
	return e.run(ctx, effect)
}

func (e *Engine) dispatch(ev Event) Effect {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.state.Phase
	next, effect := Reduce(e.state, ev)
	e.state = next

	if next.Phase != prev {
		e.logger.Debug("Attendance state changed",
			zap.String("from", prev.String()),
			zap.String("to", next.Phase.String()),
			zap.String("event", fmt.Sprintf("%T", ev)))
	}

	return effect
}

func (e *Engine) run(ctx context.Context, effect Effect) error {
	fetch, ok := effect.(FetchExisting)
	if !ok {
		return nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.lifetime, cancel)
	defer stop()

	e.logger.Debug("Fetching existing attendance", zap.String("key", fetch.Key.String()))

	records, err := e.source.GetExistingAttendance(fetchCtx, fetch.Key.ScheduleID, fetch.Key.Category)
	if err != nil {
		e.logger.Warn("Existing attendance fetch failed", zap.String("key", fetch.Key.String()), zap.Error(err))
		e.dispatch(FetchFailed{Key: fetch.Key, Err: err})
		return fmt.Errorf("failed to load existing attendance: %w", err)
	}

	e.dispatch(FetchSucceeded{Key: fetch.Key, Records: records})
	return nil
}

// SelectTeam switches the active team and its roster
func (e *Engine) SelectTeam(teamID string, members []model.Member) {
	e.dispatch(TeamSelected{TeamID: teamID, Members: members})
}

// SelectSchedule selects a schedule and category, fetching existing records
// unless the buffer is already loaded for the same key
func (e *Engine) SelectSchedule(ctx context.Context, scheduleID string, category model.Category) error {
	return e.Apply(ctx, ScheduleSelected{Key: Key{ScheduleID: scheduleID, Category: category}})
}

func (e *Engine) SetMemberType(memberID string, t model.AttendanceType) {
	e.dispatch(MemberTypeSet{MemberID: memberID, Type: t})
}

func (e *Engine) SetMemberComment(memberID, comment string) {
	e.dispatch(MemberCommentSet{MemberID: memberID, Comment: comment})
}

func (e *Engine) BulkSetType(t model.AttendanceType) {
	e.dispatch(BulkTypeSet{Type: t})
}

func (e *Engine) ClearAllComments() {
	e.dispatch(CommentsCleared{})
}

func (e *Engine) SyncMembers(members []model.Member) {
	e.dispatch(MembersSynced{Members: members})
}

// Close tears the screen down. In-flight fetches are cancelled and their
// results are never applied.
func (e *Engine) Close() {
	e.close()
	e.dispatch(Closed{})
}
