package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/cmd/cli/commands"
	"github.com/jakechorley/ministry-attendance/internal/config"
	"github.com/jakechorley/ministry-attendance/pkg/clients/apiclient"
	"github.com/jakechorley/ministry-attendance/pkg/utils/logging"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Ministry attendance console",
		Long:  `A CLI tool for registering team attendance, tracking pendings and visit reports, and exporting attendance sheets.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects attendance_config.<env>.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")

	rootCmd.AddCommand(commands.ShowHierarchyCmd(app))
	rootCmd.AddCommand(commands.ViewPendingsCmd(app))
	rootCmd.AddCommand(commands.RegisterAttendanceCmd(app))
	rootCmd.AddCommand(commands.RegisterOwnAttendanceCmd(app))
	rootCmd.AddCommand(commands.ListRecordsCmd(app))
	rootCmd.AddCommand(commands.ListVisitReportsCmd(app))
	rootCmd.AddCommand(commands.CreateVisitReportCmd(app))
	rootCmd.AddCommand(commands.UpdateVisitReportCmd(app))
	rootCmd.AddCommand(commands.DeleteVisitReportCmd(app))
	rootCmd.AddCommand(commands.TeamOverviewCmd(app))
	rootCmd.AddCommand(commands.ViewSheetsCmd(app))
	rootCmd.AddCommand(commands.ExportSheetsCmd(app))
	rootCmd.AddCommand(commands.ViewExportRunsCmd(app))
	rootCmd.AddCommand(commands.SendPendingRemindersCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config and the API client
func initApp() error {
	var err error
	app.Env = env
	app.Ctx = context.Background()
	app.Now = time.Now

	var logPath string
	app.Logger, logPath, err = logging.InitLogger(env, logging.Options{Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Debug("Starting application", zap.String("log_file", logPath))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Session = commands.SessionFromConfig(app.Cfg)
	app.Logger.Debug("Configuration loaded",
		zap.String("api", app.Cfg.APIBaseURL),
		zap.String("role", string(app.Session.Role)))

	app.API, err = apiclient.New(app.Cfg.APIBaseURL, app.Session, app.Logger,
		apiclient.WithErrorHandler(reportAPIError))
	if err != nil {
		return fmt.Errorf("failed to create api client: %w", err)
	}

	return nil
}

// reportAPIError is the global handler for requests that did not opt out
func reportAPIError(err error) {
	fmt.Fprintf(os.Stderr, "⚠️  %s\n", apiErrorMessage(err))
}

// apiErrorMessage prefers the server's message and falls back to the error text
func apiErrorMessage(err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.UserMessage(); msg != "" {
			return msg
		}
		return apiErr.Error()
	}
	return err.Error()
}
