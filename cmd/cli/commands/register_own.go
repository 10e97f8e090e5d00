package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// RegisterOwnAttendanceCmd creates the registerOwnAttendance command
func RegisterOwnAttendanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registerOwnAttendance <schedule_id>",
		Short: "Register your own attendance for a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absent, _ := cmd.Flags().GetBool("absent")
			comment, _ := cmd.Flags().GetString("comment")

			attendanceType := model.AttendancePresent
			if absent {
				attendanceType = model.AttendanceAbsent
			}

			app.Logger.Debug("registerOwnAttendance command",
				zap.String("schedule_id", args[0]),
				zap.String("type", string(attendanceType)))

			rec, err := services.RegisterOwnAttendance(app.Ctx, app.API, app.Session, app.Logger, args[0], attendanceType, comment)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Registered as %s\n\n", viewmodel.AttendanceTypeLabel(rec.Type))
			return nil
		},
	}

	cmd.Flags().Bool("absent", false, "Register as absent")
	cmd.Flags().String("comment", "", "Optional comment")

	return cmd
}
