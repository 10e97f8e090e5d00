package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// ViewSheetsCmd creates the viewSheets command
func ViewSheetsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewSheets",
		Short: "Show the attendance sheet of every shelter and team for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			startFlag, _ := cmd.Flags().GetString("start")
			endFlag, _ := cmd.Flags().GetString("end")
			details, _ := cmd.Flags().GetBool("details")

			start, end, err := dateRange(startFlag, endFlag, app.Now(), app.Cfg.PendingWindowDays)
			if err != nil {
				return err
			}
			app.Logger.Debug("viewSheets command", zap.Time("start", start), zap.Time("end", end))

			sheets, err := app.API.HierarchicalSheets(app.Ctx, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\nAttendance from %s to %s\n", viewmodel.FormatDate(start), viewmodel.FormatDate(end))
			for _, shelter := range sheets {
				fmt.Printf("\n🏠 %s\n", shelter.ShelterName)
				for _, team := range shelter.Teams {
					fmt.Printf("  %s\n", viewmodel.FormatTeamLabel(model.Team{Number: team.TeamNumber, Description: team.Description}))
					if len(team.Schedules) == 0 {
						fmt.Println("    no schedules")
					}
					for _, s := range team.Schedules {
						fmt.Printf("    %-28s ✓ %-3d ✗ %-3d ? %d\n", viewmodel.FormatScheduleLabel(s.Schedule), s.PresentCount, s.AbsentCount, s.PendingCount)
						if !details {
							continue
						}
						for _, r := range s.Records {
							line := fmt.Sprintf("      %-20s %s", r.MemberName, viewmodel.AttendanceTypeLabel(r.Type))
							if r.Comment != "" {
								line += "  " + r.Comment
							}
							fmt.Println(line)
						}
					}
				}
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("start", "", "First day (YYYY-MM-DD), defaults to the pending window before --end")
	cmd.Flags().String("end", "", "Last day (YYYY-MM-DD), defaults to today")
	cmd.Flags().Bool("details", false, "Show each member's record")

	return cmd
}
