package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/submission"
)

func strPtr(s string) *string { return &s }

func recordFor(records []model.AttendanceRecord, memberID string) (model.AttendanceRecord, bool) {
	for _, r := range records {
		if r.MemberID == memberID {
			return r, true
		}
	}
	return model.AttendanceRecord{}, false
}

func TestRegisterTeamAttendance_ClearsPendingAndUpdatesOnResubmit(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t, leaderSession)
	logger := zap.NewNop()

	before, err := LoadPendings(ctx, client, leaderSession, testNow, 90, logger)
	require.NoError(t, err)
	require.Len(t, before.LeaderPendings, 1)
	require.Len(t, before.LeaderPendings[0].Schedules, 2)

	args := RegisterAttendanceArgs{
		TeamID:     "team-3",
		ScheduleID: "visit-5",
		Overrides:  []MemberOverride{{MemberID: "bruno", Type: model.AttendanceAbsent, Comment: strPtr("sick")}},
	}

	result, err := RegisterTeamAttendance(ctx, client, leaderSession, logger, args)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.True(t, result.Created)
	assert.Equal(t, "Attendance registered for 2 members", result.Message)

	records := srv.Records()
	require.Len(t, records, 2)
	ana, ok := recordFor(records, "ana")
	require.True(t, ok)
	assert.Equal(t, model.AttendancePresent, ana.Type)
	assert.Equal(t, model.CategoryVisit, ana.Category)
	bruno, ok := recordFor(records, "bruno")
	require.True(t, ok)
	assert.Equal(t, model.AttendanceAbsent, bruno.Type)
	assert.Equal(t, "sick", bruno.Comment)

	after, err := LoadPendings(ctx, client, leaderSession, testNow, 90, logger)
	require.NoError(t, err)
	require.Len(t, after.LeaderPendings, 1)
	require.Len(t, after.LeaderPendings[0].Schedules, 1)
	assert.Equal(t, "meeting-1", after.LeaderPendings[0].Schedules[0].Schedule.ID)
	require.Len(t, after.VisitReportPendings, 1, "registering attendance does not file the visit report")

	again, err := RegisterTeamAttendance(ctx, client, leaderSession, logger, RegisterAttendanceArgs{TeamID: "team-3", ScheduleID: "visit-5"})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, "Attendance updated for 2 members", again.Message)

	records = srv.Records()
	require.Len(t, records, 2)
	bruno, _ = recordFor(records, "bruno")
	assert.Equal(t, model.AttendanceAbsent, bruno.Type, "existing records are merged into the buffer")
	assert.Equal(t, "sick", bruno.Comment)
}

func TestRegisterTeamAttendance_BulkTypeAndClearComments(t *testing.T) {
	ctx := context.Background()
	srv, client := newFixture(t, adminSession)
	srv.SeedRecord(model.AttendanceRecord{ScheduleID: "meeting-1", MemberID: "ana", Category: model.CategoryMeeting, Type: model.AttendancePresent, Comment: "late"})

	result, err := RegisterTeamAttendance(ctx, client, adminSession, zap.NewNop(), RegisterAttendanceArgs{
		TeamID:        "team-3",
		ScheduleID:    "meeting-1",
		AllType:       model.AttendanceAbsent,
		ClearComments: true,
		Overrides:     []MemberOverride{{MemberID: "ana", Type: model.AttendancePresent}},
	})
	require.NoError(t, err)
	assert.False(t, result.Created)

	records := srv.Records()
	require.Len(t, records, 2)
	ana, _ := recordFor(records, "ana")
	assert.Equal(t, model.AttendancePresent, ana.Type)
	assert.Equal(t, model.CategoryMeeting, ana.Category)
	assert.Empty(t, ana.Comment)
	bruno, _ := recordFor(records, "bruno")
	assert.Equal(t, model.AttendanceAbsent, bruno.Type)
}

func TestRegisterTeamAttendance_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("member session", func(t *testing.T) {
		_, client := newFixture(t, memberSession)
		_, err := RegisterTeamAttendance(ctx, client, memberSession, zap.NewNop(), RegisterAttendanceArgs{TeamID: "team-3", ScheduleID: "visit-5"})
		assert.ErrorIs(t, err, ErrNotPermitted)
	})

	t.Run("unknown member", func(t *testing.T) {
		srv, client := newFixture(t, leaderSession)
		_, err := RegisterTeamAttendance(ctx, client, leaderSession, zap.NewNop(), RegisterAttendanceArgs{
			TeamID:     "team-3",
			ScheduleID: "visit-5",
			Overrides:  []MemberOverride{{MemberID: "carla", Type: model.AttendanceAbsent}},
		})
		assert.ErrorIs(t, err, ErrUnknownMember)
		assert.Empty(t, srv.Records())
	})

	t.Run("missing schedule", func(t *testing.T) {
		_, client := newFixture(t, leaderSession)
		_, err := RegisterTeamAttendance(ctx, client, leaderSession, zap.NewNop(), RegisterAttendanceArgs{TeamID: "team-3"})
		assert.ErrorIs(t, err, submission.ErrNoScheduleSelected)
	})

	t.Run("comment too long", func(t *testing.T) {
		srv, client := newFixture(t, leaderSession)
		_, err := RegisterTeamAttendance(ctx, client, leaderSession, zap.NewNop(), RegisterAttendanceArgs{
			TeamID:     "team-3",
			ScheduleID: "visit-5",
			Overrides:  []MemberOverride{{MemberID: "ana", Comment: strPtr(strings.Repeat("a", 501))}},
		})
		assert.ErrorIs(t, err, submission.ErrCommentTooLong)
		assert.Empty(t, srv.Records())
	})

	t.Run("team without members", func(t *testing.T) {
		_, client := newFixture(t, adminSession)
		_, err := RegisterTeamAttendance(ctx, client, adminSession, zap.NewNop(), RegisterAttendanceArgs{TeamID: "team-1", ScheduleID: "visit-1"})
		assert.ErrorIs(t, err, submission.ErrNoMembers)
	})
}

func TestOpenAttendanceForm_DefaultsCategoryFromSchedule(t *testing.T) {
	_, client := newFixture(t, leaderSession)

	form, err := OpenAttendanceForm(context.Background(), client, zap.NewNop(), "team-3", "meeting-1", "")
	require.NoError(t, err)
	defer form.Engine.Close()

	state := form.Engine.State()
	assert.Equal(t, model.CategoryMeeting, state.Selected.Category)
	assert.Len(t, state.Rows, 2)
	require.Len(t, form.Schedules, 3)
	assert.Equal(t, "visit-6", form.Schedules[0].ID, "schedules are sorted by date descending")
}

func TestRegisterOwnAttendance(t *testing.T) {
	ctx := context.Background()

	t.Run("registers for the signed-in member", func(t *testing.T) {
		srv, client := newFixture(t, memberSession)
		rec, err := RegisterOwnAttendance(ctx, client, memberSession, zap.NewNop(), "visit-5", "", "")
		require.NoError(t, err)
		assert.Equal(t, model.AttendancePresent, rec.Type)
		assert.Equal(t, "bruno", rec.MemberID)

		records := srv.Records()
		require.Len(t, records, 1)
		assert.Equal(t, model.CategoryVisit, records[0].Category)
	})

	t.Run("validates before calling the API", func(t *testing.T) {
		srv, client := newFixture(t, memberSession)

		_, err := RegisterOwnAttendance(ctx, client, memberSession, zap.NewNop(), "", model.AttendancePresent, "")
		assert.ErrorIs(t, err, submission.ErrNoScheduleSelected)

		_, err = RegisterOwnAttendance(ctx, client, memberSession, zap.NewNop(), "visit-5", "maybe", "")
		assert.Error(t, err)

		_, err = RegisterOwnAttendance(ctx, client, memberSession, zap.NewNop(), "visit-5", model.AttendanceAbsent, strings.Repeat("x", 501))
		assert.ErrorIs(t, err, submission.ErrCommentTooLong)

		assert.Equal(t, 0, srv.Hits("POST", "/attendance/register"))
	})

	t.Run("unknown schedule", func(t *testing.T) {
		_, client := newFixture(t, memberSession)
		_, err := RegisterOwnAttendance(ctx, client, memberSession, zap.NewNop(), "nope", model.AttendancePresent, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to register attendance")
	})
}
