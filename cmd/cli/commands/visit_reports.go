package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/rules"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().String("team", "", "Team ID")
	cmd.Flags().String("shelter", "", "Shelter ID")
	cmd.Flags().Int("present", 0, "Team members present")
	cmd.Flags().Int("sheltered-heard", 0, "Sheltered people who heard the message")
	cmd.Flags().Int("caretakers-heard", 0, "Caretakers who heard the message")
	cmd.Flags().Int("sheltered-decisions", 0, "Decisions among sheltered people")
	cmd.Flags().Int("caretakers-decisions", 0, "Decisions among caretakers")
	cmd.Flags().String("observation", "", "Free text observation")
}

func reportArgs(cmd *cobra.Command, scheduleID string) services.VisitReportArgs {
	teamID, _ := cmd.Flags().GetString("team")
	shelterID, _ := cmd.Flags().GetString("shelter")
	present, _ := cmd.Flags().GetInt("present")
	shelteredHeard, _ := cmd.Flags().GetInt("sheltered-heard")
	caretakersHeard, _ := cmd.Flags().GetInt("caretakers-heard")
	shelteredDecisions, _ := cmd.Flags().GetInt("sheltered-decisions")
	caretakersDecisions, _ := cmd.Flags().GetInt("caretakers-decisions")
	observation, _ := cmd.Flags().GetString("observation")

	return services.VisitReportArgs{
		ScheduleID: scheduleID,
		TeamID:     teamID,
		ShelterID:  shelterID,
		Stats: rules.VisitReportInput{
			TeamMembersPresent:     present,
			ShelteredHeardMessage:  shelteredHeard,
			CaretakersHeardMessage: caretakersHeard,
			ShelteredDecisions:     shelteredDecisions,
			CaretakersDecisions:    caretakersDecisions,
			Observation:            observation,
		},
	}
}

func printReport(r model.VisitReport) {
	fmt.Printf("Report ID:            %s\n", r.ID)
	fmt.Printf("Schedule:             %s\n", r.ScheduleID)
	fmt.Printf("Team members present: %d\n", r.TeamMembersPresent)
	fmt.Printf("Heard the message:    %d sheltered, %d caretakers\n", r.ShelteredHeardMessage, r.CaretakersHeardMessage)
	fmt.Printf("Decisions:            %d sheltered, %d caretakers\n", r.ShelteredDecisions, r.CaretakersDecisions)
	if r.Observation != "" {
		fmt.Printf("Observation:          %s\n", r.Observation)
	}
}

// CreateVisitReportCmd creates the createVisitReport command
func CreateVisitReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createVisitReport <schedule_id>",
		Short: "File the visit report of a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportInput := reportArgs(cmd, args[0])
			app.Logger.Debug("createVisitReport command", zap.String("schedule_id", args[0]), zap.String("team_id", reportInput.TeamID))

			report, err := services.CreateVisitReport(app.Ctx, app.API, app.Session, app.Logger, reportInput)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Visit report created\n\n")
			printReport(report)
			fmt.Println()
			return nil
		},
	}
	addReportFlags(cmd)
	return cmd
}

// UpdateVisitReportCmd creates the updateVisitReport command
func UpdateVisitReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "updateVisitReport <schedule_id>",
		Short: "Replace the statistics of a visit report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("updateVisitReport command", zap.String("schedule_id", args[0]))

			report, err := services.UpdateVisitReport(app.Ctx, app.API, app.Session, app.Logger, reportArgs(cmd, args[0]))
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Visit report updated\n\n")
			printReport(report)
			fmt.Println()
			return nil
		},
	}
	addReportFlags(cmd)
	return cmd
}

// DeleteVisitReportCmd creates the deleteVisitReport command
func DeleteVisitReportCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deleteVisitReport <schedule_id>",
		Short: "Delete the visit report of a visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("deleteVisitReport command", zap.String("schedule_id", args[0]))

			if err := services.DeleteVisitReport(app.Ctx, app.API, app.Session, app.Logger, args[0]); err != nil {
				return err
			}
			fmt.Printf("\n✓ Visit report deleted\n\n")
			return nil
		},
	}
}

// ListVisitReportsCmd creates the listVisitReports command
func ListVisitReportsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listVisitReports [team_id]",
		Short: "List visit reports, optionally of one team",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var teamID string
			if len(args) > 0 {
				teamID = args[0]
			}

			reports, err := services.ListVisitReports(app.Ctx, app.API, app.Logger, teamID)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println("\nNo visit reports found")
				fmt.Println()
				return nil
			}

			fmt.Println()
			for _, r := range reports {
				fmt.Printf("  %-16s team %-10s present %-3d decisions %d/%d  %s\n",
					r.ScheduleID, r.TeamID, r.TeamMembersPresent, r.ShelteredDecisions, r.CaretakersDecisions, viewmodel.FormatDateTime(r.UpdatedAt))
			}
			fmt.Printf("\n%s\n\n", viewmodel.CountLabel(len(reports), "report", "reports"))
			return nil
		},
	}
}
