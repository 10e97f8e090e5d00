package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/clients/gmailclient"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
)

// SendPendingRemindersCmd creates the sendPendingReminders command
func SendPendingRemindersCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sendPendingReminders",
		Short: "Email team leaders the attendance and visit reports still pending",
		Long: `Email team leaders the attendance and visit reports still pending.

Runs only on days matching reminders.rrule in the config unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			rule := app.Cfg.Reminders.RRule
			now := app.Now()

			app.Logger.Debug("sendPendingReminders command", zap.Bool("force", force), zap.String("rrule", rule))

			due, err := services.ShouldSendToday(rule, now)
			if err != nil {
				return err
			}
			if !due && !force {
				fmt.Println("\nToday does not match the reminder schedule, nothing sent (use --force to send anyway)")
				fmt.Println()
				return nil
			}

			httpClient, err := app.GoogleHTTPClient()
			if err != nil {
				return err
			}
			mailer, err := gmailclient.NewClient(app.Ctx, httpClient, app.Cfg.Reminders.GmailUserID, app.Cfg.Reminders.GmailSender)
			if err != nil {
				return err
			}

			result, err := services.SendPendingReminders(app.Ctx, app.API, mailer, app.Session, app.Logger, services.ReminderArgs{
				RRule:      rule,
				Force:      force,
				Now:        now,
				WindowDays: app.Cfg.PendingWindowDays,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Reminders finished\n\n")
			if len(result.Sent) > 0 {
				fmt.Printf("Sent %d emails:\n", len(result.Sent))
				for _, e := range result.Sent {
					fmt.Printf("  ✓ %s (%s)\n", e.To, e.Subject)
				}
				fmt.Println()
			}
			if len(result.Failed) > 0 {
				fmt.Printf("⚠️  Failed to send %d emails:\n", len(result.Failed))
				for _, e := range result.Failed {
					fmt.Printf("  ✗ %s (%s)\n", e.To, e.Subject)
				}
				fmt.Println()
			}
			if len(result.NoRecipient) > 0 {
				fmt.Printf("⚠️  Teams with pendings but no leader email: %v\n\n", result.NoRecipient)
			}
			if len(result.Sent) == 0 && len(result.Failed) == 0 && len(result.NoRecipient) == 0 {
				fmt.Println("Nothing pending, no reminders needed.")
				fmt.Println()
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Send even when today does not match the reminder schedule")

	return cmd
}
