package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

type sentEmail struct {
	to, subject, body string
}

type mockMailer struct {
	sent []sentEmail
	err  error
}

func (m *mockMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func TestShouldSendToday(t *testing.T) {
	monday := testNow
	tests := []struct {
		name string
		rule string
		now  time.Time
		want bool
	}{
		{name: "empty rule", rule: "", now: monday, want: true},
		{name: "weekly on monday", rule: "FREQ=WEEKLY;BYDAY=MO", now: monday, want: true},
		{name: "weekly on tuesday", rule: "FREQ=WEEKLY;BYDAY=TU", now: monday, want: false},
		{name: "monthly on the tenth", rule: "FREQ=MONTHLY;BYMONTHDAY=10", now: monday, want: true},
		{name: "daily", rule: "FREQ=DAILY", now: monday.Add(11 * time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShouldSendToday(tt.rule, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ShouldSendToday("FREQ=SOMETIMES", monday)
	assert.Error(t, err)
}

func TestSendPendingReminders(t *testing.T) {
	ctx := context.Background()

	t.Run("emails the team leader", func(t *testing.T) {
		_, client := newFixture(t, adminSession)
		mailer := &mockMailer{}

		result, err := SendPendingReminders(ctx, client, mailer, adminSession, zap.NewNop(), ReminderArgs{
			RRule:      "FREQ=WEEKLY;BYDAY=MO",
			Now:        testNow,
			WindowDays: 90,
		})
		require.NoError(t, err)
		assert.False(t, result.Skipped)
		require.Len(t, result.Sent, 1)
		assert.Empty(t, result.NoRecipient)

		require.Len(t, mailer.sent, 1)
		email := mailer.sent[0]
		assert.Equal(t, "ana@example.org", email.to)
		assert.Equal(t, "Pending attendance for Team #3 - Lar Feliz", email.subject)
		assert.Contains(t, email.body, "- Meeting #1 - 20/02/2025: Ana, Bruno")
		assert.Contains(t, email.body, "- Visit #5 - 02/03/2025: Ana, Bruno")
		assert.Contains(t, email.body, "Visit reports missing:\n- Visit #5 - 02/03/2025")
		assert.NotContains(t, email.body, "Visit #6")
	})

	t.Run("skips when the cadence does not match", func(t *testing.T) {
		srv, client := newFixture(t, adminSession)
		mailer := &mockMailer{}

		result, err := SendPendingReminders(ctx, client, mailer, adminSession, zap.NewNop(), ReminderArgs{
			RRule: "FREQ=WEEKLY;BYDAY=TU",
			Now:   testNow,
		})
		require.NoError(t, err)
		assert.True(t, result.Skipped)
		assert.Empty(t, mailer.sent)
		assert.Equal(t, 0, srv.Hits("GET", "/attendance/shelters-teams-members"))
	})

	t.Run("force ignores the cadence", func(t *testing.T) {
		_, client := newFixture(t, adminSession)
		mailer := &mockMailer{}

		result, err := SendPendingReminders(ctx, client, mailer, adminSession, zap.NewNop(), ReminderArgs{
			RRule:      "FREQ=WEEKLY;BYDAY=TU",
			Force:      true,
			Now:        testNow,
			WindowDays: 90,
		})
		require.NoError(t, err)
		assert.Len(t, result.Sent, 1)
	})

	t.Run("team without leader email", func(t *testing.T) {
		srv, client := newFixture(t, adminSession)
		srv.AddShelter(model.Shelter{
			ID:   "casa",
			Name: "Casa Nova",
			Teams: []model.Team{{
				ID:        "team-7",
				Number:    7,
				Members:   []model.Member{{ID: "dora", Name: "Dora", Role: model.RoleLeader}},
				Schedules: []model.Schedule{{ID: "visit-70", Category: model.CategoryMeeting, VisitNumber: 1, MeetingDate: day(2025, 3, 5)}},
			}},
		})

		result, err := SendPendingReminders(ctx, client, &mockMailer{}, adminSession, zap.NewNop(), ReminderArgs{Now: testNow, WindowDays: 90})
		require.NoError(t, err)
		assert.Equal(t, []string{"team-7"}, result.NoRecipient)
		assert.Len(t, result.Sent, 1)
	})

	t.Run("mailer failure is collected", func(t *testing.T) {
		_, client := newFixture(t, adminSession)
		result, err := SendPendingReminders(ctx, client, &mockMailer{err: errors.New("smtp down")}, adminSession, zap.NewNop(), ReminderArgs{Now: testNow, WindowDays: 90})
		require.NoError(t, err)
		assert.Empty(t, result.Sent)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, "team-3", result.Failed[0].TeamID)
	})

	t.Run("member session", func(t *testing.T) {
		_, client := newFixture(t, memberSession)
		_, err := SendPendingReminders(ctx, client, &mockMailer{}, memberSession, zap.NewNop(), ReminderArgs{Now: testNow})
		assert.ErrorIs(t, err, ErrNotPermitted)
	})
}
