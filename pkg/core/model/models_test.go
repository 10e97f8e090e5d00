package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMember_EffectiveRole(t *testing.T) {
	assert.Equal(t, RoleMember, Member{ID: "m1"}.EffectiveRole())
	assert.Equal(t, RoleLeader, Member{ID: "m2", Role: RoleLeader}.EffectiveRole())
}

func TestSchedule_EffectiveDate(t *testing.T) {
	visit := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	meeting := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	s := Schedule{Category: CategoryVisit, VisitDate: &visit, MeetingDate: &meeting}
	d, ok := s.EffectiveDate()
	require.True(t, ok)
	assert.Equal(t, visit, d)

	s.Category = CategoryMeeting
	d, ok = s.EffectiveDate()
	require.True(t, ok)
	assert.Equal(t, meeting, d)

	// Falls back to the other date when the primary one is missing
	s = Schedule{Category: CategoryMeeting, VisitDate: &visit}
	d, ok = s.EffectiveDate()
	require.True(t, ok)
	assert.Equal(t, visit, d)

	assert.False(t, Schedule{Category: CategoryVisit}.HasValidDate())
}

func TestResolveCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		want Capabilities
	}{
		{RoleAdmin, Capabilities{CanRegisterForTeam: true, CanViewAllPendings: true}},
		{RoleLeader, Capabilities{CanRegisterForTeam: true}},
		{RoleMember, Capabilities{CanRegisterForSelf: true}},
		{"", Capabilities{CanRegisterForSelf: true}},
		{Role("guest"), Capabilities{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveCapabilities(tt.role))
		})
	}
}

func TestNormalizeComment(t *testing.T) {
	assert.Nil(t, NormalizeComment(""))
	assert.Nil(t, NormalizeComment("   \n"))

	c := NormalizeComment("  sick  ")
	require.NotNil(t, c)
	assert.Equal(t, "sick", *c)
}

func TestFindTeam(t *testing.T) {
	shelters := []Shelter{
		{ID: "s1", Teams: []Team{{ID: "t1"}}},
		{ID: "s2", Teams: []Team{{ID: "t2"}, {ID: "t3"}}},
	}

	shelter, team := FindTeam(shelters, "t3")
	require.NotNil(t, team)
	assert.Equal(t, "s2", shelter.ID)

	shelter, team = FindTeam(shelters, "missing")
	assert.Nil(t, shelter)
	assert.Nil(t, team)
}
