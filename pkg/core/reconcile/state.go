// Package reconcile keeps the per-member attendance edit buffer of one
// (team, schedule, category) selection consistent with the records the server
// already holds.
//
// The state machine is a pure reducer: Reduce(state, event) returns the next
// state and, at most, one effect for the caller to run. Engine wraps the
// reducer with the fetching and locking a caller needs.
package reconcile

import (
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseEditing
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseEditing:
		return "editing"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Key identifies the records a buffer was loaded from
type Key struct {
	ScheduleID string
	Category   model.Category
}

func (k Key) String() string {
	return k.ScheduleID + ":" + string(k.Category)
}

// Row is the in-progress attendance of one member
type Row struct {
	Member  model.Member
	Type    model.AttendanceType
	Comment string
}

func defaultRow(m model.Member) Row {
	return Row{Member: m, Type: model.AttendancePresent}
}

// State is the full reconciliation state. Treat it as immutable; Reduce never
// modifies the maps of the state it is given.
type State struct {
	Phase    Phase
	TeamID   string
	Members  []model.Member
	Selected Key

	// LoadedKey is the key the current buffer was successfully loaded for.
	// InFlightKey is the key of the fetch whose result will be accepted.
	LoadedKey   string
	InFlightKey string

	Rows     map[string]Row
	Existing map[string]model.AttendanceRecord
	Err      error
	Closed   bool

	refreshing bool
}

// Fetching reports whether a fetch result is awaited. Schedule selection and
// edits should be disabled while it is true.
func (s State) Fetching() bool {
	return s.InFlightKey != ""
}

// HasExistingAttendance reports whether the server held records for the loaded key
func (s State) HasExistingAttendance() bool {
	return len(s.Existing) > 0
}

// Editable reports whether user edits are accepted in the current state
func (s State) Editable() bool {
	return !s.Closed && !s.Fetching() && (s.Phase == PhaseLoaded || s.Phase == PhaseEditing)
}

// OrderedRows returns buffer rows in roster order
func (s State) OrderedRows() []Row {
	rows := make([]Row, 0, len(s.Rows))
	for _, m := range s.Members {
		if r, ok := s.Rows[m.ID]; ok {
			rows = append(rows, r)
		}
	}
	return rows
}

// Clone returns a copy whose maps can be modified independently
func (s State) Clone() State {
	c := s
	c.Members = append([]model.Member(nil), s.Members...)
	if s.Rows != nil {
		c.Rows = make(map[string]Row, len(s.Rows))
		for k, v := range s.Rows {
			c.Rows[k] = v
		}
	}
	if s.Existing != nil {
		c.Existing = make(map[string]model.AttendanceRecord, len(s.Existing))
		for k, v := range s.Existing {
			c.Existing[k] = v
		}
	}
	return c
}

func defaultRows(members []model.Member) map[string]Row {
	rows := make(map[string]Row, len(members))
	for _, m := range members {
		rows[m.ID] = defaultRow(m)
	}
	return rows
}

// mergeRecords builds a fresh buffer from server records. Members without a
// record default to present with no comment; records with an unknown type are
// treated as present.
func mergeRecords(members []model.Member, key Key, records []model.AttendanceRecord) (map[string]Row, map[string]model.AttendanceRecord) {
	existing := make(map[string]model.AttendanceRecord)
	for _, r := range records {
		if r.MemberID == "" {
			continue
		}
		if r.ScheduleID != "" && r.ScheduleID != key.ScheduleID {
			continue
		}
		if r.Category != "" && r.Category != key.Category {
			continue
		}
		existing[r.MemberID] = r
	}

	rows := make(map[string]Row, len(members))
	for _, m := range members {
		rec, ok := existing[m.ID]
		if !ok {
			rows[m.ID] = defaultRow(m)
			continue
		}
		t := rec.Type
		if !t.IsValid() {
			t = model.AttendancePresent
		}
		rows[m.ID] = Row{Member: m, Type: t, Comment: rec.Comment}
	}

	return rows, existing
}
