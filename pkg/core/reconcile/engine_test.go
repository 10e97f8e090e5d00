package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// mockRecordSource serves records per key. A key listed in block waits for
// its channel to be closed before answering.
type mockRecordSource struct {
	mu      sync.Mutex
	records map[string][]model.AttendanceRecord
	errs    map[string]error
	block   map[string]chan struct{}
	started chan string
	calls   map[string]int
}

func newMockRecordSource() *mockRecordSource {
	return &mockRecordSource{
		records: make(map[string][]model.AttendanceRecord),
		errs:    make(map[string]error),
		block:   make(map[string]chan struct{}),
		started: make(chan string, 10),
		calls:   make(map[string]int),
	}
}

func (m *mockRecordSource) GetExistingAttendance(ctx context.Context, scheduleID string, category model.Category) ([]model.AttendanceRecord, error) {
	key := Key{ScheduleID: scheduleID, Category: category}.String()

	m.mu.Lock()
	m.calls[key]++
	wait := m.block[key]
	m.mu.Unlock()

	m.started <- key
	if wait != nil {
		<-wait
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[key]; err != nil {
		return nil, err
	}
	return m.records[key], nil
}

func (m *mockRecordSource) callCount(key Key) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key.String()]
}

func TestEngine_SameSelectionFetchesOnce(t *testing.T) {
	src := newMockRecordSource()
	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana, bruno})

	ctx := context.Background()
	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit))
	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit))

	assert.Equal(t, 1, src.callCount(visitKey))
	assert.Equal(t, PhaseLoaded, engine.State().Phase)
}

func TestEngine_CategoryToggleRefetches(t *testing.T) {
	src := newMockRecordSource()
	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana})

	ctx := context.Background()
	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit))
	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryMeeting))
	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit))

	assert.Equal(t, 2, src.callCount(visitKey))
	assert.Equal(t, 1, src.callCount(meetingKey))
}

func TestEngine_StaleResponseDoesNotOverwriteNewSelection(t *testing.T) {
	src := newMockRecordSource()
	src.records[visitKey.String()] = []model.AttendanceRecord{
		{ScheduleID: "visit-5", MemberID: "ana", Category: model.CategoryVisit, Type: model.AttendanceAbsent, Comment: "stale"},
	}
	src.records[meetingKey.String()] = []model.AttendanceRecord{
		{ScheduleID: "visit-5", MemberID: "bruno", Category: model.CategoryMeeting, Type: model.AttendanceAbsent, Comment: "fresh"},
	}
	release := make(chan struct{})
	src.block[visitKey.String()] = release

	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana, bruno})

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		done <- engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit)
	}()
	require.Equal(t, visitKey.String(), <-src.started)

	// Selection moves on while the first fetch is still in flight
	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryMeeting))
	<-src.started

	close(release)
	require.NoError(t, <-done)

	state := engine.State()
	assert.Equal(t, meetingKey.String(), state.LoadedKey)
	assert.Equal(t, Row{Member: ana, Type: model.AttendancePresent}, state.Rows["ana"])
	assert.Equal(t, Row{Member: bruno, Type: model.AttendanceAbsent, Comment: "fresh"}, state.Rows["bruno"])
}

func TestEngine_FetchFailureThenRetry(t *testing.T) {
	src := newMockRecordSource()
	src.errs[visitKey.String()] = errors.New("gateway timeout")

	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana})

	ctx := context.Background()
	err := engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit)
	require.Error(t, err)

	state := engine.State()
	assert.Error(t, state.Err)
	assert.Equal(t, Row{Member: ana, Type: model.AttendancePresent}, state.Rows["ana"])

	src.mu.Lock()
	delete(src.errs, visitKey.String())
	src.mu.Unlock()

	require.NoError(t, engine.SelectSchedule(ctx, "visit-5", model.CategoryVisit))
	assert.Equal(t, 2, src.callCount(visitKey))
	assert.NoError(t, engine.State().Err)
}

func TestEngine_CloseDropsInFlightResult(t *testing.T) {
	src := newMockRecordSource()
	src.records[visitKey.String()] = []model.AttendanceRecord{{MemberID: "ana", Type: model.AttendanceAbsent}}
	release := make(chan struct{})
	src.block[visitKey.String()] = release

	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana})

	done := make(chan error, 1)
	go func() {
		done <- engine.SelectSchedule(context.Background(), "visit-5", model.CategoryVisit)
	}()
	<-src.started

	engine.Close()
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch did not return after close")
	}

	state := engine.State()
	assert.True(t, state.Closed)
	assert.Nil(t, state.Rows)
}

func TestEngine_EditsThroughEngine(t *testing.T) {
	src := newMockRecordSource()
	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana, bruno})
	require.NoError(t, engine.SelectSchedule(context.Background(), "visit-5", model.CategoryVisit))

	engine.SetMemberType("ana", model.AttendanceAbsent)
	engine.SetMemberComment("ana", "travelling")
	engine.BulkSetType(model.AttendanceAbsent)
	engine.SyncMembers([]model.Member{ana, bruno, carla})

	state := engine.State()
	assert.Equal(t, PhaseEditing, state.Phase)
	assert.Equal(t, Row{Member: ana, Type: model.AttendanceAbsent, Comment: "travelling"}, state.Rows["ana"])
	assert.Equal(t, Row{Member: bruno, Type: model.AttendanceAbsent}, state.Rows["bruno"])
	assert.Equal(t, Row{Member: carla, Type: model.AttendancePresent}, state.Rows["carla"])

	engine.ClearAllComments()
	assert.Empty(t, engine.State().Rows["ana"].Comment)
}

func TestEngine_StateSnapshotIsIndependent(t *testing.T) {
	src := newMockRecordSource()
	engine := NewEngine(src, zap.NewNop())
	engine.SelectTeam("team-3", []model.Member{ana})
	require.NoError(t, engine.SelectSchedule(context.Background(), "visit-5", model.CategoryVisit))

	snapshot := engine.State()
	snapshot.Rows["ana"] = Row{Member: ana, Type: model.AttendanceAbsent}

	assert.Equal(t, model.AttendancePresent, engine.State().Rows["ana"].Type)
}
