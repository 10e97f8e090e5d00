package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/clients/sheetsclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/db"
	"github.com/jakechorley/ministry-attendance/pkg/postgres"
)

const (
	sinkSheets   = "sheets"
	sinkPostgres = "postgres"

	defaultSheetTab = "Attendance"
)

// openPostgres connects to the export database and applies migrations
func openPostgres(app *AppContext) (*postgres.DB, error) {
	if app.Cfg.Export.PostgresURL == "" {
		return nil, fmt.Errorf("export.postgresURL is not configured")
	}
	database, err := postgres.NewDB(app.Ctx, app.Cfg.Export.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(app.Ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// ExportSheetsCmd creates the exportSheets command
func ExportSheetsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportSheets",
		Short: "Export the attendance sheet to Google Sheets or PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sinkName, _ := cmd.Flags().GetString("sink")
			startFlag, _ := cmd.Flags().GetString("start")
			endFlag, _ := cmd.Flags().GetString("end")

			start, end, err := dateRange(startFlag, endFlag, app.Now(), app.Cfg.PendingWindowDays)
			if err != nil {
				return err
			}
			app.Logger.Debug("exportSheets command", zap.String("sink", sinkName), zap.Time("start", start), zap.Time("end", end))

			var sink db.AttendanceSink
			switch sinkName {
			case sinkSheets:
				if app.Cfg.Export.SheetID == "" {
					return fmt.Errorf("export.sheetID is not configured")
				}
				httpClient, err := app.GoogleHTTPClient()
				if err != nil {
					return err
				}
				client, err := sheetsclient.NewClient(app.Ctx, httpClient)
				if err != nil {
					return err
				}
				tab := app.Cfg.Export.SheetTab
				if tab == "" {
					tab = defaultSheetTab
				}
				sink = &sheetsclient.Sink{Client: client, SpreadsheetID: app.Cfg.Export.SheetID, Tab: tab}
			case sinkPostgres:
				database, err := openPostgres(app)
				if err != nil {
					return err
				}
				defer database.Close()
				sink = database
			default:
				return fmt.Errorf("unknown sink %q, expected %s or %s", sinkName, sinkSheets, sinkPostgres)
			}

			result, err := services.ExportAttendanceSheets(app.Ctx, app.API, sink, sinkName, app.Logger, start, end)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Exported %d rows to %s\n\n", result.Rows, sinkName)
			return nil
		},
	}

	cmd.Flags().String("sink", sinkSheets, "Export target: sheets or postgres")
	cmd.Flags().String("start", "", "First day (YYYY-MM-DD), defaults to the pending window before --end")
	cmd.Flags().String("end", "", "Last day (YYYY-MM-DD), defaults to today")

	return cmd
}

// ViewExportRunsCmd creates the viewExportRuns command
func ViewExportRunsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewExportRuns",
		Short: "List the most recent PostgreSQL exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			database, err := openPostgres(app)
			if err != nil {
				return err
			}
			defer database.Close()

			runs, err := database.GetExportRuns(app.Ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("\nNo exports yet")
				fmt.Println()
				return nil
			}

			fmt.Println()
			for _, run := range runs {
				fmt.Printf("  %s  %-9s %s to %s  %d rows\n",
					run.CompletedAt.Format("2006-01-02 15:04"),
					run.Sink,
					run.RangeStart.Format(flagDateLayout),
					run.RangeEnd.Format(flagDateLayout),
					run.RowCount)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Number of runs to show")

	return cmd
}
