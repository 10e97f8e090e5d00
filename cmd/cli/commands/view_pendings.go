package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/pending"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// ViewPendingsCmd creates the viewPendings command
func ViewPendingsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewPendings",
		Short: "List schedules still missing attendance or a visit report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, _ := cmd.Flags().GetBool("server")
			teamID, _ := cmd.Flags().GetString("team")

			app.Logger.Debug("viewPendings command", zap.Bool("server", server), zap.String("team_id", teamID))

			if server {
				pendings, err := services.LoadServerPendings(app.Ctx, app.API, app.Session, teamID, app.Logger)
				if err != nil {
					return err
				}
				printServerPendings(pendings)
				return nil
			}

			result, err := services.LoadPendings(app.Ctx, app.API, app.Session, app.Now(), app.Cfg.PendingWindowDays, app.Logger)
			if err != nil {
				return err
			}
			printPendings(filterTeam(*result, teamID))
			return nil
		},
	}

	cmd.Flags().Bool("server", false, "Show the pendings computed by the API instead of computing them locally")
	cmd.Flags().String("team", "", "Only show pendings of this team")

	return cmd
}

func filterTeam(result pending.Result, teamID string) pending.Result {
	if teamID == "" {
		return result
	}
	var out pending.Result
	for _, p := range result.MemberPendings {
		if p.Team.ID == teamID {
			out.MemberPendings = append(out.MemberPendings, p)
		}
	}
	for _, p := range result.LeaderPendings {
		if p.Team.ID == teamID {
			out.LeaderPendings = append(out.LeaderPendings, p)
		}
	}
	for _, p := range result.VisitReportPendings {
		if p.Team.ID == teamID {
			out.VisitReportPendings = append(out.VisitReportPendings, p)
		}
	}
	return out
}

func printPendings(result pending.Result) {
	if result.Total() == 0 {
		fmt.Println("\n✓ Nothing pending")
		fmt.Println()
		return
	}

	if len(result.MemberPendings) > 0 {
		fmt.Printf("\n📋 Your attendance (%d)\n\n", len(result.MemberPendings))
		for _, p := range result.MemberPendings {
			fmt.Printf("  %-28s %s - %s  [%s]\n",
				viewmodel.FormatScheduleLabel(p.Schedule), viewmodel.FormatTeamLabel(p.Team), p.ShelterName, p.Schedule.ID)
		}
	}

	if len(result.LeaderPendings) > 0 {
		fmt.Printf("\n📋 Team attendance\n")
		for _, t := range result.LeaderPendings {
			fmt.Printf("\n  %s - %s\n", viewmodel.FormatTeamLabel(t.Team), t.ShelterName)
			for _, s := range t.Schedules {
				fmt.Printf("    %-28s %s  [%s]\n", viewmodel.FormatScheduleLabel(s.Schedule), memberNames(s.PendingMembers), s.Schedule.ID)
			}
		}
	}

	if len(result.VisitReportPendings) > 0 {
		fmt.Printf("\n📝 Visit reports\n")
		for _, t := range result.VisitReportPendings {
			fmt.Printf("\n  %s - %s\n", viewmodel.FormatTeamLabel(t.Team), t.ShelterName)
			for _, s := range t.Schedules {
				fmt.Printf("    %-28s [%s]\n", viewmodel.FormatScheduleLabel(s), s.ID)
			}
		}
	}

	fmt.Printf("\n%s pending\n\n", viewmodel.CountLabel(result.Total(), "item", "items"))
}

func printServerPendings(pendings []model.ServerPending) {
	if len(pendings) == 0 {
		fmt.Println("\n✓ Nothing pending")
		fmt.Println()
		return
	}

	fmt.Println()
	for _, p := range pendings {
		team := model.Team{Number: p.TeamNumber}
		line := fmt.Sprintf("  %-28s %s - %s", viewmodel.FormatScheduleLabel(p.Schedule), viewmodel.FormatTeamLabel(team), p.ShelterName)
		if len(p.PendingMembers) > 0 {
			line += ": " + memberNames(p.PendingMembers)
		}
		if p.ReportPending {
			line += " (report pending)"
		}
		fmt.Println(line)
	}
	fmt.Printf("\n%s\n\n", viewmodel.CountLabel(len(pendings), "schedule", "schedules"))
}

func memberNames(members []model.Member) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}
