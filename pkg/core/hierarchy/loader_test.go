package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

type mockSource struct {
	shelters     []model.Shelter
	members      []model.Member
	schedules    []model.Schedule
	err          error
	lastSort     model.ScheduleSort
	hierarchyHit int
}

func (m *mockSource) GetSheltersTeamsMembers(ctx context.Context) ([]model.Shelter, error) {
	m.hierarchyHit++
	if m.err != nil {
		return nil, m.err
	}
	return m.shelters, nil
}

func (m *mockSource) GetTeamMembers(ctx context.Context, teamID string) ([]model.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.members, nil
}

func (m *mockSource) GetTeamSchedules(ctx context.Context, teamID string, sort model.ScheduleSort) ([]model.Schedule, error) {
	m.lastSort = sort
	if m.err != nil {
		return nil, m.err
	}
	return m.schedules, nil
}

func sampleShelters() []model.Shelter {
	return []model.Shelter{
		{
			ID:   "s1",
			Name: "Lar Feliz",
			Teams: []model.Team{
				{ID: "t1", Number: 3, Description: "Sunday afternoon", Members: []model.Member{{ID: "m1", Name: "Ana"}, {ID: "m2", Name: "Bruno"}}},
			},
		},
		{
			ID:   "s2",
			Name: "Casa Esperança",
			Teams: []model.Team{
				{ID: "t2", Number: 1, Description: "Saturday", Members: []model.Member{{ID: "m3", Name: "Carla"}, {ID: "m4", Name: "Daniel"}}},
				{ID: "t3", Number: 2, Description: "Weekday", Members: []model.Member{{ID: "m5", Name: "Eduarda"}}},
			},
		},
	}
}

func TestLoader_LoadHierarchy(t *testing.T) {
	src := &mockSource{shelters: sampleShelters()}
	loader := NewLoader(src, zap.NewNop())

	shelters, err := loader.LoadHierarchy(context.Background())
	require.NoError(t, err)
	assert.Len(t, shelters, 2)
	assert.Equal(t, shelters, loader.Shelters)
	assert.NoError(t, loader.HierarchyErr)
}

func TestLoader_FailureResetsList(t *testing.T) {
	src := &mockSource{shelters: sampleShelters()}
	loader := NewLoader(src, zap.NewNop())

	_, err := loader.LoadHierarchy(context.Background())
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	shelters, err := loader.LoadHierarchy(context.Background())
	require.Error(t, err)
	assert.Empty(t, shelters)
	assert.Empty(t, loader.Shelters)
	assert.Error(t, loader.HierarchyErr)

	// Retry after the backend recovers
	src.err = nil
	_, err = loader.LoadHierarchy(context.Background())
	require.NoError(t, err)
	assert.Len(t, loader.Shelters, 2)
	assert.NoError(t, loader.HierarchyErr)
	assert.Equal(t, 3, src.hierarchyHit)
}

func TestLoader_MembersAndSchedules(t *testing.T) {
	src := &mockSource{
		members:   []model.Member{{ID: "m1"}},
		schedules: []model.Schedule{{ID: "sch-1"}},
	}
	loader := NewLoader(src, zap.NewNop())

	members, err := loader.LoadTeamMembers(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	sort := model.ScheduleSort{SortBy: "date", Desc: true}
	schedules, err := loader.LoadTeamSchedules(context.Background(), "t1", sort)
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, sort, src.lastSort)

	src.err = errors.New("boom")
	_, err = loader.LoadTeamSchedules(context.Background(), "t1", sort)
	assert.Error(t, err)
	assert.Empty(t, loader.Schedules)
	assert.Len(t, loader.Members, 1)

	loader.DismissErrors()
	assert.NoError(t, loader.SchedulesErr)
}

func TestCountTotals(t *testing.T) {
	shelters := sampleShelters()
	count := 7
	shelters = append(shelters, model.Shelter{ID: "s3", Teams: []model.Team{{ID: "t4", MemberCount: &count}}})

	totals := CountTotals(shelters)
	assert.Equal(t, Totals{Shelters: 3, Teams: 4, Members: 12}, totals)
}

func TestFilter_ShelterName(t *testing.T) {
	result := Filter(sampleShelters(), "lar")
	require.Len(t, result, 1)
	assert.Equal(t, "s1", result[0].ID)
	assert.Len(t, result[0].Teams[0].Members, 2)
}

func TestFilter_TeamDescription(t *testing.T) {
	result := Filter(sampleShelters(), "WEEKDAY")
	require.Len(t, result, 1)
	require.Len(t, result[0].Teams, 1)
	assert.Equal(t, "t3", result[0].Teams[0].ID)
}

func TestFilter_MemberName(t *testing.T) {
	result := Filter(sampleShelters(), "carl")
	require.Len(t, result, 1)
	require.Len(t, result[0].Teams, 1)
	assert.Equal(t, "t2", result[0].Teams[0].ID)
	require.Len(t, result[0].Teams[0].Members, 1)
	assert.Equal(t, "Carla", result[0].Teams[0].Members[0].Name)
}

func TestFilter_EmptyAndNoMatch(t *testing.T) {
	shelters := sampleShelters()
	assert.Equal(t, shelters, Filter(shelters, "  "))
	assert.Empty(t, Filter(shelters, "zzz"))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	shelters := sampleShelters()
	_ = Filter(shelters, "carl")
	assert.Len(t, shelters[1].Teams, 2)
	assert.Len(t, shelters[1].Teams[0].Members, 2)
}
