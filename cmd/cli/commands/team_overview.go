package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// TeamOverviewCmd creates the teamOverview command
func TeamOverviewCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "teamOverview [team_id]",
		Short: "Show the overview of a team (defaults to every team you lead)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var teamID string
			if len(args) > 0 {
				teamID = args[0]
			}
			app.Logger.Debug("teamOverview command", zap.String("team_id", teamID))

			overviews, err := services.TeamOverviews(app.Ctx, app.API, app.Logger, teamID)
			if err != nil {
				return err
			}
			if len(overviews) == 0 {
				fmt.Println("\nYou do not lead any team")
				fmt.Println()
				return nil
			}

			for _, o := range overviews {
				fmt.Printf("\n%s - %s [%s]\n", viewmodel.FormatTeamLabel(model.Team{Number: o.TeamNumber}), o.ShelterName, o.TeamID)
				fmt.Printf("  Members:          %d\n", o.MemberCount)
				fmt.Printf("  Schedules:        %d\n", o.ScheduleCount)
				fmt.Printf("  Pending:          %d\n", o.PendingScheduleCount)
				if o.LastRegistered != nil {
					fmt.Printf("  Last registered:  %s\n", viewmodel.FormatScheduleLabel(*o.LastRegistered))
				} else {
					fmt.Printf("  Last registered:  never\n")
				}
			}
			fmt.Println()
			return nil
		},
	}
}
