package commands

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/ministry-attendance/internal/config"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

func TestParseOverrides(t *testing.T) {
	overrides, err := parseOverrides(
		[]string{"ana"},
		[]string{"bruno=sick", "carla"},
		[]string{"ana=arrived late", "dora="},
	)
	require.NoError(t, err)
	require.Len(t, overrides, 4)

	assert.Equal(t, "ana", overrides[0].MemberID)
	assert.Equal(t, model.AttendancePresent, overrides[0].Type)
	require.NotNil(t, overrides[0].Comment)
	assert.Equal(t, "arrived late", *overrides[0].Comment)

	assert.Equal(t, "bruno", overrides[1].MemberID)
	assert.Equal(t, model.AttendanceAbsent, overrides[1].Type)
	require.NotNil(t, overrides[1].Comment)
	assert.Equal(t, "sick", *overrides[1].Comment)

	assert.Equal(t, "carla", overrides[2].MemberID)
	assert.Nil(t, overrides[2].Comment, "no comment keeps the existing one")

	assert.Equal(t, "dora", overrides[3].MemberID)
	assert.Empty(t, overrides[3].Type)
	require.NotNil(t, overrides[3].Comment)
	assert.Empty(t, *overrides[3].Comment)
}

func TestParseOverrides_Errors(t *testing.T) {
	_, err := parseOverrides([]string{"ana"}, []string{"ana"}, nil)
	assert.Error(t, err)

	_, err = parseOverrides(nil, nil, []string{"ana"})
	assert.Error(t, err)

	_, err = parseOverrides([]string{"=late"}, nil, nil)
	assert.Error(t, err)
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{`viewPendings --server`, []string{"viewPendings", "--server"}},
		{`registerAttendance --absent "bruno=was sick"`, []string{"registerAttendance", "--absent", "bruno=was sick"}},
		{`showHierarchy 'lar feliz'`, []string{"showHierarchy", "lar feliz"}},
		{`createVisitReport visit-5 --observation ""`, []string{"createVisitReport", "visit-5", "--observation", ""}},
		{`  spaced   out  `, []string{"spaced", "out"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseCommandLine(`registerOwnAttendance "visit-5`)
	assert.Error(t, err)
}

func TestDateRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	start, end, err := dateRange("", "", now, 90)
	require.NoError(t, err)
	assert.Equal(t, now, end)
	assert.Equal(t, now.AddDate(0, 0, -90), start)

	start, end, err = dateRange("2025-01-01", "2025-02-01", now, 90)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = dateRange("2025-03-01", "2025-02-01", now, 90)
	assert.Error(t, err)

	_, _, err = dateRange("01/02/2025", "", now, 90)
	assert.Error(t, err)
}

func TestRunInSession_ResetsFlagsBetweenRuns(t *testing.T) {
	var seen [][]string
	cmd := &cobra.Command{
		Use:  "registerAttendance",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			absent, _ := cmd.Flags().GetStringArray("absent")
			seen = append(seen, absent)
			return nil
		},
	}
	cmd.Flags().StringArray("absent", nil, "")
	cmd.Flags().String("team", "", "")

	require.NoError(t, runInSession(cmd, []string{"--absent", "bruno", "--team", "team-3"}))
	require.NoError(t, runInSession(cmd, []string{"--absent", "ana"}))
	require.NoError(t, runInSession(cmd, nil))

	assert.Equal(t, []string{"bruno"}, seen[0])
	assert.Equal(t, []string{"ana"}, seen[1])
	assert.Empty(t, seen[2])

	team, _ := cmd.Flags().GetString("team")
	assert.Empty(t, team)

	assert.Error(t, runInSession(cmd, []string{"extra"}))
}

func TestSessionFromConfig(t *testing.T) {
	cfg := &config.Config{AccessToken: "tok", Session: config.SessionConfig{Role: "leader", MemberID: "ana"}}
	session := SessionFromConfig(cfg)
	assert.True(t, session.IsAuthenticated)
	assert.Equal(t, model.RoleLeader, session.Role)
	assert.Equal(t, "ana", session.MemberID)
	assert.Equal(t, "tok", session.AccessToken)
	assert.True(t, model.ResolveCapabilities(session.Role).CanRegisterForTeam)
}
