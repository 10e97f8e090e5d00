package viewmodel

import (
	"fmt"
	"time"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

const dateLayout = "02/01/2006"

// FormatDate renders a date as DD/MM/YYYY, or an empty string for the zero time
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// FormatDateTime renders a timestamp as DD/MM/YYYY HH:MM
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout + " 15:04")
}

// CategoryLabel returns the display name of a schedule category
func CategoryLabel(c model.Category) string {
	switch c {
	case model.CategoryVisit:
		return "Visit"
	case model.CategoryMeeting:
		return "Meeting"
	default:
		return "Schedule"
	}
}

// AttendanceTypeLabel returns the display name of an attendance type
func AttendanceTypeLabel(t model.AttendanceType) string {
	switch t {
	case model.AttendancePresent:
		return "Present"
	case model.AttendanceAbsent:
		return "Absent"
	default:
		return "Unknown"
	}
}

// FormatScheduleLabel renders "Visit #5 - 02/03/2025", dropping the date when missing
func FormatScheduleLabel(s model.Schedule) string {
	label := fmt.Sprintf("%s #%d", CategoryLabel(s.Category), s.VisitNumber)
	if d, ok := s.EffectiveDate(); ok {
		label += " - " + FormatDate(d)
	}
	return label
}

// FormatTeamLabel renders "Team #3 (description)"
func FormatTeamLabel(t model.Team) string {
	if t.Description == "" {
		return fmt.Sprintf("Team #%d", t.Number)
	}
	return fmt.Sprintf("Team #%d (%s)", t.Number, t.Description)
}

// CountLabel renders a count with a singular or plural noun
func CountLabel(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
