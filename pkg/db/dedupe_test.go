package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeAttendanceRows_NoDuplicates(t *testing.T) {
	rows := []AttendanceRow{
		{ScheduleID: "visit-5", MemberID: "ana", Category: "visit", Status: StatusPresent},
		{ScheduleID: "visit-5", MemberID: "bruno", Category: "visit", Status: StatusAbsent},
		{ScheduleID: "meeting-1", MemberID: "ana", Category: "meeting", Status: StatusPresent},
	}

	assert.Equal(t, rows, DedupeAttendanceRows(rows))
}

func TestDedupeAttendanceRows_KeepsLast(t *testing.T) {
	rows := []AttendanceRow{
		{ScheduleID: "visit-5", MemberID: "ana", Category: "visit", Status: StatusPresent},
		{ScheduleID: "visit-5", MemberID: "bruno", Category: "visit", Status: StatusPresent},
		{ScheduleID: "visit-5", MemberID: "ana", Category: "visit", Status: StatusAbsent, Comment: "travelling"},
	}

	got := DedupeAttendanceRows(rows)

	require.Len(t, got, 2)
	assert.Equal(t, "ana", got[0].MemberID)
	assert.Equal(t, StatusAbsent, got[0].Status)
	assert.Equal(t, "travelling", got[0].Comment)
	assert.Equal(t, "bruno", got[1].MemberID)
}

func TestDedupeAttendanceRows_CategoryIsPartOfKey(t *testing.T) {
	rows := []AttendanceRow{
		{ScheduleID: "s1", MemberID: "ana", Category: "visit"},
		{ScheduleID: "s1", MemberID: "ana", Category: "meeting"},
	}

	assert.Len(t, DedupeAttendanceRows(rows), 2)
}
