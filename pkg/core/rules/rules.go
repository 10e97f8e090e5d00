// Package rules holds the input limits shared by attendance registration and
// visit reports.
package rules

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	MaxCommentLength     = 500
	MaxObservationLength = 1000
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

type commentInput struct {
	Comment string `validate:"max=500"`
}

// CommentWithinLimit reports whether a comment fits the attendance comment limit.
// Length is counted in characters, not bytes.
func CommentWithinLimit(comment string) bool {
	return validate.Struct(commentInput{Comment: comment}) == nil
}

// VisitReportInput is the user-editable part of a visit report
type VisitReportInput struct {
	TeamMembersPresent     int    `validate:"min=0"`
	ShelteredHeardMessage  int    `validate:"min=0"`
	CaretakersHeardMessage int    `validate:"min=0"`
	ShelteredDecisions     int    `validate:"min=0"`
	CaretakersDecisions    int    `validate:"min=0"`
	Observation            string `validate:"max=1000"`
}

// ValidateVisitReport checks report statistics. teamSize is ignored when zero.
func ValidateVisitReport(in VisitReportInput, teamSize int) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid visit report: field %s failed %s", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid visit report: %w", err)
	}

	if teamSize > 0 && in.TeamMembersPresent > teamSize {
		return fmt.Errorf("invalid visit report: %d members present exceeds team size %d", in.TeamMembersPresent, teamSize)
	}

	return nil
}
