package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
	"github.com/jakechorley/ministry-attendance/pkg/core/reconcile"
	"github.com/jakechorley/ministry-attendance/pkg/core/rules"
)

var (
	ErrNoScheduleSelected   = errors.New("select a schedule before registering attendance")
	ErrScheduleNotFound     = errors.New("the selected schedule no longer exists")
	ErrInvalidScheduleDates = errors.New("the selected schedule has no visit or meeting date")
	ErrNoMembers            = errors.New("the team has no members")
	ErrCommentTooLong       = fmt.Errorf("comments must be at most %d characters", rules.MaxCommentLength)
	ErrBusy                 = errors.New("attendance is still loading or being saved")
)

// ScheduleNotFoundError names the schedule to fall back to, if any
type ScheduleNotFoundError struct {
	ScheduleID string
	FallbackID string
}

func (e *ScheduleNotFoundError) Error() string {
	return fmt.Sprintf("%s (schedule %s)", ErrScheduleNotFound.Error(), e.ScheduleID)
}

func (e *ScheduleNotFoundError) Unwrap() error {
	return ErrScheduleNotFound
}

// CommentTooLongError lists the members whose comment is over the limit
type CommentTooLongError struct {
	MemberIDs []string
}

func (e *CommentTooLongError) Error() string {
	return fmt.Sprintf("%s (members: %s)", ErrCommentTooLong.Error(), strings.Join(e.MemberIDs, ", "))
}

func (e *CommentTooLongError) Unwrap() error {
	return ErrCommentTooLong
}

// Input is everything validation looks at
type Input struct {
	ScheduleID string
	Schedules  []model.Schedule
	Members    []model.Member
	Rows       []reconcile.Row
}

// Validate runs the pre-submission checks in order and returns the first failure
func Validate(in Input) error {
	if in.ScheduleID == "" {
		return ErrNoScheduleSelected
	}

	var schedule *model.Schedule
	for i := range in.Schedules {
		if in.Schedules[i].ID == in.ScheduleID {
			schedule = &in.Schedules[i]
			break
		}
	}
	if schedule == nil {
		notFound := &ScheduleNotFoundError{ScheduleID: in.ScheduleID}
		if len(in.Schedules) > 0 {
			notFound.FallbackID = in.Schedules[0].ID
		}
		return notFound
	}

	if !schedule.HasValidDate() {
		return ErrInvalidScheduleDates
	}

	if len(in.Members) == 0 {
		return ErrNoMembers
	}

	var tooLong []string
	for _, row := range in.Rows {
		if !rules.CommentWithinLimit(row.Comment) {
			tooLong = append(tooLong, row.Member.ID)
		}
	}
	if len(tooLong) > 0 {
		return &CommentTooLongError{MemberIDs: tooLong}
	}

	return nil
}

// BuildPayload turns the whole buffer into an upsert payload. Every row is sent,
// changed or not, with comments trimmed and empty comments omitted.
func BuildPayload(teamID string, key reconcile.Key, rows []reconcile.Row) model.TeamAttendancePayload {
	payload := model.TeamAttendancePayload{
		TeamID:      teamID,
		ScheduleID:  key.ScheduleID,
		Category:    key.Category,
		Attendances: make([]model.MemberAttendance, 0, len(rows)),
	}
	for _, row := range rows {
		payload.Attendances = append(payload.Attendances, model.MemberAttendance{
			MemberID: row.Member.ID,
			Type:     row.Type,
			Comment:  model.NormalizeComment(row.Comment),
		})
	}
	return payload
}
