package commands

import (
	"fmt"
	"time"
)

const flagDateLayout = "2006-01-02"

// dateRange resolves --start/--end flags. end defaults to today and start to
// windowDays before end.
func dateRange(start, end string, now time.Time, windowDays int) (time.Time, time.Time, error) {
	endDate := now
	if end != "" {
		d, err := time.Parse(flagDateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end date %q, expected YYYY-MM-DD", end)
		}
		endDate = d
	}

	startDate := endDate.AddDate(0, 0, -windowDays)
	if start != "" {
		d, err := time.Parse(flagDateLayout, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start date %q, expected YYYY-MM-DD", start)
		}
		startDate = d
	}

	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s", startDate.Format(flagDateLayout), endDate.Format(flagDateLayout))
	}
	return startDate, endDate, nil
}
