package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// ShowHierarchyCmd creates the showHierarchy command
func ShowHierarchyCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "showHierarchy [query]",
		Short: "Show shelters, teams and members, optionally filtered by a search query",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			app.Logger.Debug("showHierarchy command", zap.String("query", query))

			view, err := services.ShowHierarchy(app.Ctx, app.API, app.Logger, query)
			if err != nil {
				return err
			}

			if len(view.Shelters) == 0 {
				if query != "" {
					fmt.Printf("\nNothing matches %q\n\n", query)
				} else {
					fmt.Println("\nNo shelters found")
				}
				return nil
			}

			fmt.Println()
			for _, shelter := range view.Shelters {
				fmt.Printf("🏠 %s\n", shelter.Name)
				for _, team := range shelter.Teams {
					fmt.Printf("  %s\n", viewmodel.FormatTeamLabel(team))
					for _, m := range team.Members {
						fmt.Printf("    - %s%s\n", m.Name, roleSuffix(m))
					}
				}
			}

			fmt.Printf("\n%s, %s, %s\n\n",
				viewmodel.CountLabel(view.Totals.Shelters, "shelter", "shelters"),
				viewmodel.CountLabel(view.Totals.Teams, "team", "teams"),
				viewmodel.CountLabel(view.Totals.Members, "member", "members"))
			return nil
		},
	}
}

func roleSuffix(m model.Member) string {
	if role := m.EffectiveRole(); role != model.RoleMember {
		return fmt.Sprintf(" (%s)", role)
	}
	return ""
}
