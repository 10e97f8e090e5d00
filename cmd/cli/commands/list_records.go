package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// ListRecordsCmd creates the listRecords command
func ListRecordsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listRecords <schedule_id>",
		Short: "List the attendance records of a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			page, _ := cmd.Flags().GetInt("page")
			all, _ := cmd.Flags().GetBool("all")

			query := apiclient.RecordsQuery{
				ScheduleID: args[0],
				Category:   model.Category(category),
				Limit:      app.Cfg.RecordsPageLimit,
				Page:       page,
			}
			app.Logger.Debug("listRecords command", zap.String("schedule_id", query.ScheduleID), zap.Int("page", page), zap.Bool("all", all))

			var records []model.AttendanceRecord
			footer := ""
			if all {
				var err error
				records, err = app.API.AllAttendanceRecords(app.Ctx, query)
				if err != nil {
					return err
				}
			} else {
				result, err := app.API.AttendanceRecords(app.Ctx, query)
				if err != nil {
					return err
				}
				records = result.Records
				footer = fmt.Sprintf("Page %d of %d, %s in total", result.Page, result.TotalPages, viewmodel.CountLabel(result.Total, "record", "records"))
			}

			if len(records) == 0 {
				fmt.Println("\nNo attendance registered")
				fmt.Println()
				return nil
			}

			fmt.Println()
			for _, r := range records {
				line := fmt.Sprintf("  %-20s %-8s %-8s %s", r.MemberID, viewmodel.CategoryLabel(r.Category), viewmodel.AttendanceTypeLabel(r.Type), viewmodel.FormatDateTime(r.UpdatedAt))
				if r.Comment != "" {
					line += "  " + r.Comment
				}
				fmt.Println(line)
			}
			if footer != "" {
				fmt.Printf("\n%s\n", footer)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("category", "", "Only records of this category (visit or meeting)")
	cmd.Flags().Int("page", 1, "Page to show")
	cmd.Flags().Bool("all", false, "Fetch every page")

	return cmd
}
