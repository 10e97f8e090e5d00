package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/testutil/fakeapi"
)

// testNow is a Monday
var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

var (
	leaderSession = model.Session{IsAuthenticated: true, Role: model.RoleLeader, MemberID: "ana"}
	adminSession  = model.Session{IsAuthenticated: true, Role: model.RoleAdmin}
	memberSession = model.Session{IsAuthenticated: true, Role: model.RoleMember, MemberID: "bruno"}
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// newFixture serves Lar Feliz with team #3 (Ana and Bruno) and an empty team
// #1 at Abrigo Esperança
func newFixture(t *testing.T, session model.Session) (*fakeapi.Server, *apiclient.Client) {
	t.Helper()

	srv := fakeapi.New()
	t.Cleanup(srv.Close)
	srv.Now = func() time.Time { return testNow }
	srv.Session = session

	srv.AddShelter(model.Shelter{
		ID:   "lar-feliz",
		Name: "Lar Feliz",
		Teams: []model.Team{{
			ID:     "team-3",
			Number: 3,
			Members: []model.Member{
				{ID: "ana", Name: "Ana", Email: "ana@example.org", Role: model.RoleLeader},
				{ID: "bruno", Name: "Bruno", Email: "bruno@example.org"},
			},
			Schedules: []model.Schedule{
				{ID: "visit-5", Category: model.CategoryVisit, VisitNumber: 5, VisitDate: day(2025, 3, 2)},
				{ID: "visit-6", Category: model.CategoryVisit, VisitNumber: 6, VisitDate: day(2025, 3, 30)},
				{ID: "meeting-1", Category: model.CategoryMeeting, VisitNumber: 1, MeetingDate: day(2025, 2, 20)},
			},
		}},
	})
	srv.AddShelter(model.Shelter{
		ID:   "abrigo",
		Name: "Abrigo Esperança",
		Teams: []model.Team{{
			ID:        "team-1",
			Number:    1,
			Schedules: []model.Schedule{{ID: "visit-1", Category: model.CategoryVisit, VisitNumber: 1, VisitDate: day(2025, 2, 15)}},
		}},
	})

	client, err := apiclient.New(srv.URL, session, zap.NewNop())
	require.NoError(t, err)
	return srv, client
}
