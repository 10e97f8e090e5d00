package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/pending"
	"github.com/jakechorley/ministry-attendance/pkg/core/viewmodel"
)

// Mailer sends plain text emails
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ReminderArgs configures a reminder run
type ReminderArgs struct {
	RRule      string // Empty means every day
	Force      bool   // Send even when today does not match RRule
	Now        time.Time
	WindowDays int
}

// ReminderEmail is one email sent to a team leader
type ReminderEmail struct {
	To      string
	TeamID  string
	Subject string
	Body    string
}

// ReminderResult reports what a reminder run did
type ReminderResult struct {
	Skipped     bool // Today does not match the cadence
	Sent        []ReminderEmail
	Failed      []ReminderEmail
	NoRecipient []string // Team ids with pendings but no leader email
}

// ShouldSendToday reports whether the cadence has an occurrence on now's day (UTC).
// Rules without DTSTART are anchored at the start of that day.
func ShouldSendToday(rule string, now time.Time) (bool, error) {
	if rule == "" {
		return true, nil
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return false, fmt.Errorf("invalid reminder rrule: %w", err)
	}

	u := now.UTC()
	dayStart := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	if opt.Dtstart.IsZero() {
		opt.Dtstart = dayStart
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return false, fmt.Errorf("invalid reminder rrule: %w", err)
	}
	return len(r.Between(dayStart, dayEnd, true)) > 0, nil
}

// teamReminder collects the pendings of one team
type teamReminder struct {
	shelterName string
	team        model.Team
	attendance  []pending.SchedulePending
	reports     []model.Schedule
}

// SendPendingReminders emails every team leader the schedules of their team
// still missing attendance or a visit report
func SendPendingReminders(
	ctx context.Context,
	source PendingSource,
	mailer Mailer,
	session model.Session,
	logger *zap.Logger,
	args ReminderArgs,
) (*ReminderResult, error) {
	if !model.ResolveCapabilities(session.Role).CanRegisterForTeam {
		return nil, ErrNotPermitted
	}

	due, err := ShouldSendToday(args.RRule, args.Now)
	if err != nil {
		return nil, err
	}
	if !due && !args.Force {
		logger.Info("Reminder cadence does not match today, skipping", zap.String("rrule", args.RRule))
		return &ReminderResult{Skipped: true}, nil
	}

	input, err := LoadPendingSnapshot(ctx, source, session, args.Now, args.WindowDays, logger)
	if err != nil {
		return nil, err
	}
	result := pending.Compute(*input)

	reminders := groupByTeam(result)
	out := &ReminderResult{}
	for _, rem := range reminders {
		_, team := model.FindTeam(input.Hierarchy, rem.team.ID)
		recipients := leaderEmails(team)
		if len(recipients) == 0 {
			logger.Warn("Team has pendings but no leader email", zap.String("team_id", rem.team.ID))
			out.NoRecipient = append(out.NoRecipient, rem.team.ID)
			continue
		}

		subject, body := renderReminder(rem)
		for _, to := range recipients {
			email := ReminderEmail{To: to, TeamID: rem.team.ID, Subject: subject, Body: body}
			if err := mailer.SendEmail(ctx, to, subject, body); err != nil {
				logger.Warn("Failed to send reminder", zap.String("to", to), zap.Error(err))
				out.Failed = append(out.Failed, email)
				continue
			}
			logger.Debug("Reminder sent", zap.String("to", to), zap.String("team_id", rem.team.ID))
			out.Sent = append(out.Sent, email)
		}
	}

	logger.Info("Pending reminders finished",
		zap.Int("sent", len(out.Sent)),
		zap.Int("failed", len(out.Failed)),
		zap.Int("no_recipient", len(out.NoRecipient)))
	return out, nil
}

// groupByTeam merges attendance and report pendings, keeping the team order of the result
func groupByTeam(result pending.Result) []*teamReminder {
	var order []*teamReminder
	byTeam := make(map[string]*teamReminder)
	get := func(shelterName string, team model.Team) *teamReminder {
		if rem, ok := byTeam[team.ID]; ok {
			return rem
		}
		rem := &teamReminder{shelterName: shelterName, team: team}
		byTeam[team.ID] = rem
		order = append(order, rem)
		return rem
	}

	for _, tp := range result.LeaderPendings {
		get(tp.ShelterName, tp.Team).attendance = tp.Schedules
	}
	for _, tr := range result.VisitReportPendings {
		get(tr.ShelterName, tr.Team).reports = tr.Schedules
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].shelterName != order[j].shelterName {
			return order[i].shelterName < order[j].shelterName
		}
		return order[i].team.Number < order[j].team.Number
	})
	return order
}

func leaderEmails(team *model.Team) []string {
	if team == nil {
		return nil
	}
	var emails []string
	for _, m := range team.Members {
		if m.Email != "" && (m.Role == model.RoleLeader || m.Role == model.RoleAdmin) {
			emails = append(emails, m.Email)
		}
	}
	return emails
}

func renderReminder(rem *teamReminder) (string, string) {
	subject := fmt.Sprintf("Pending attendance for %s - %s", viewmodel.FormatTeamLabel(rem.team), rem.shelterName)

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %s has pending items.\n", viewmodel.FormatTeamLabel(rem.team), rem.shelterName)

	if len(rem.attendance) > 0 {
		b.WriteString("\nAttendance not registered:\n")
		for _, sp := range rem.attendance {
			names := make([]string, 0, len(sp.PendingMembers))
			for _, m := range sp.PendingMembers {
				names = append(names, m.Name)
			}
			fmt.Fprintf(&b, "- %s: %s\n", viewmodel.FormatScheduleLabel(sp.Schedule), strings.Join(names, ", "))
		}
	}

	if len(rem.reports) > 0 {
		b.WriteString("\nVisit reports missing:\n")
		for _, s := range rem.reports {
			fmt.Fprintf(&b, "- %s\n", viewmodel.FormatScheduleLabel(s))
		}
	}

	return subject, b.String()
}
