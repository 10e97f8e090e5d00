package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/services"
	"github.com/jakechorley/ministry-attendance/pkg/core/submission"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// RegisterAttendanceCmd creates the registerAttendance command
func RegisterAttendanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registerAttendance --team <team_id> [--schedule <schedule_id>]",
		Short: "Register a team's attendance for a schedule (lists schedules when none is given)",
		Long: `Register a team's attendance for a schedule.

Every member starts as present, or with the type already registered for the
schedule. --all sets every member at once; --present, --absent and --comment
then adjust single members:

  registerAttendance --team team-3 --schedule visit-5 --absent bruno=sick`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			teamID, _ := cmd.Flags().GetString("team")
			scheduleID, _ := cmd.Flags().GetString("schedule")
			category, _ := cmd.Flags().GetString("category")
			all, _ := cmd.Flags().GetString("all")
			present, _ := cmd.Flags().GetStringArray("present")
			absent, _ := cmd.Flags().GetStringArray("absent")
			comments, _ := cmd.Flags().GetStringArray("comment")
			clearComments, _ := cmd.Flags().GetBool("clear-comments")

			if teamID == "" {
				return fmt.Errorf("--team is required")
			}

			app.Logger.Debug("registerAttendance command",
				zap.String("team_id", teamID),
				zap.String("schedule_id", scheduleID),
				zap.String("category", category))

			if scheduleID == "" {
				return listTeamSchedules(app, teamID)
			}

			overrides, err := parseOverrides(present, absent, comments)
			if err != nil {
				return err
			}

			result, err := services.RegisterTeamAttendance(app.Ctx, app.API, app.Session, app.Logger, services.RegisterAttendanceArgs{
				TeamID:        teamID,
				ScheduleID:    scheduleID,
				Category:      model.Category(category),
				AllType:       model.AttendanceType(all),
				Overrides:     overrides,
				ClearComments: clearComments,
			})
			if err != nil {
				var tooLong *submission.CommentTooLongError
				if errors.As(err, &tooLong) {
					return fmt.Errorf("%w: %s", submission.ErrCommentTooLong, strings.Join(tooLong.MemberIDs, ", "))
				}
				return err
			}

			fmt.Printf("\n✓ %s\n\n", result.Message)
			for _, r := range result.Records {
				line := fmt.Sprintf("  %-20s %s", r.MemberID, viewmodel.AttendanceTypeLabel(r.Type))
				if r.Comment != "" {
					line += "  " + r.Comment
				}
				fmt.Println(line)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("team", "", "Team ID (required)")
	cmd.Flags().String("schedule", "", "Schedule ID")
	cmd.Flags().String("category", "", "visit or meeting (defaults to the schedule's category)")
	cmd.Flags().String("all", "", "Set every member to present or absent")
	cmd.Flags().StringArray("present", nil, "Mark a member present: <member_id>[=comment]")
	cmd.Flags().StringArray("absent", nil, "Mark a member absent: <member_id>[=comment]")
	cmd.Flags().StringArray("comment", nil, "Set a member's comment: <member_id>=<comment>")
	cmd.Flags().Bool("clear-comments", false, "Clear every comment before applying changes")

	return cmd
}

func listTeamSchedules(app *AppContext, teamID string) error {
	form, err := services.OpenAttendanceForm(app.Ctx, app.API, app.Logger, teamID, "", "")
	if err != nil {
		return err
	}
	defer form.Engine.Close()

	state := form.Engine.State()
	fmt.Printf("\n%s\n\n", viewmodel.CountLabel(len(state.Members), "member", "members"))
	if len(form.Schedules) == 0 {
		fmt.Println("No schedules found for this team")
		fmt.Println()
		return nil
	}
	fmt.Println("Schedules:")
	for _, s := range form.Schedules {
		marker := ""
		if !s.HasValidDate() {
			marker = "  (no date)"
		}
		fmt.Printf("  %-28s [%s]%s\n", viewmodel.FormatScheduleLabel(s), s.ID, marker)
	}
	fmt.Println()
	return nil
}

// parseOverrides turns the per-member flags into overrides, keeping the order
// in which members first appear
func parseOverrides(present, absent, comments []string) ([]services.MemberOverride, error) {
	var overrides []services.MemberOverride
	index := make(map[string]int)

	get := func(memberID string) *services.MemberOverride {
		if i, ok := index[memberID]; ok {
			return &overrides[i]
		}
		overrides = append(overrides, services.MemberOverride{MemberID: memberID})
		index[memberID] = len(overrides) - 1
		return &overrides[len(overrides)-1]
	}

	apply := func(values []string, t model.AttendanceType) error {
		for _, v := range values {
			memberID, comment, hasComment := strings.Cut(v, "=")
			memberID = strings.TrimSpace(memberID)
			if memberID == "" {
				return fmt.Errorf("invalid member %q", v)
			}
			o := get(memberID)
			if o.Type != "" && o.Type != t {
				return fmt.Errorf("member %s is marked both present and absent", memberID)
			}
			o.Type = t
			if hasComment {
				o.Comment = &comment
			}
		}
		return nil
	}

	if err := apply(present, model.AttendancePresent); err != nil {
		return nil, err
	}
	if err := apply(absent, model.AttendanceAbsent); err != nil {
		return nil, err
	}

	for _, v := range comments {
		memberID, comment, ok := strings.Cut(v, "=")
		memberID = strings.TrimSpace(memberID)
		if !ok || memberID == "" {
			return nil, fmt.Errorf("invalid comment %q, expected <member_id>=<comment>", v)
		}
		get(memberID).Comment = &comment
	}

	return overrides, nil
}
