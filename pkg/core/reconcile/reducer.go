package reconcile

import (
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// Event is a user intent or a completed network response
type Event interface {
	isEvent()
}

// TeamSelected switches the active team. A different team destroys the buffer.
type TeamSelected struct {
	TeamID  string
	Members []model.Member
}

// ScheduleSelected selects a schedule and category. An empty schedule id clears the selection.
type ScheduleSelected struct {
	Key Key
}

type FetchSucceeded struct {
	Key     Key
	Records []model.AttendanceRecord
}

type FetchFailed struct {
	Key Key
	Err error
}

type MemberTypeSet struct {
	MemberID string
	Type     model.AttendanceType
}

type MemberCommentSet struct {
	MemberID string
	Comment  string
}

// BulkTypeSet rewrites every row's type. Setting everyone present also clears comments.
type BulkTypeSet struct {
	Type model.AttendanceType
}

type CommentsCleared struct{}

// MembersSynced reconciles the buffer with a changed roster
type MembersSynced struct {
	Members []model.Member
}

type SubmitStarted struct{}

// SubmitSucceeded carries the records returned by the upsert
type SubmitSucceeded struct {
	Records []model.AttendanceRecord
}

type SubmitFailed struct {
	Err error
}

// Closed tears the context down; every later event is ignored
type Closed struct{}

func (TeamSelected) isEvent()     {}
func (ScheduleSelected) isEvent() {}
func (FetchSucceeded) isEvent()   {}
func (FetchFailed) isEvent()      {}
func (MemberTypeSet) isEvent()    {}
func (MemberCommentSet) isEvent() {}
func (BulkTypeSet) isEvent()      {}
func (CommentsCleared) isEvent()  {}
func (MembersSynced) isEvent()    {}
func (SubmitStarted) isEvent()    {}
func (SubmitSucceeded) isEvent()  {}
func (SubmitFailed) isEvent()     {}
func (Closed) isEvent()           {}

// Effect is work the reducer asks the caller to perform
type Effect interface {
	isEffect()
}

// FetchExisting asks for the existing records of a key. The result must be
// fed back as FetchSucceeded or FetchFailed carrying the same key.
type FetchExisting struct {
	Key Key
}

func (FetchExisting) isEffect() {}

// Reduce applies ev to s. It returns the next state and an optional effect.
func Reduce(s State, ev Event) (State, Effect) {
	if s.Closed {
		return s, nil
	}

	switch ev := ev.(type) {
	case TeamSelected:
		if ev.TeamID == s.TeamID && s.TeamID != "" {
			return reduceMembersSynced(s, ev.Members), nil
		}
		return State{TeamID: ev.TeamID, Members: append([]model.Member(nil), ev.Members...)}, nil

	case ScheduleSelected:
		return reduceScheduleSelected(s, ev.Key)

	case FetchSucceeded:
		if ev.Key.String() != s.InFlightKey {
			return s, nil
		}
		next := s.Clone()
		next.Rows, next.Existing = mergeRecords(s.Members, ev.Key, ev.Records)
		next.LoadedKey = ev.Key.String()
		next.InFlightKey = ""
		next.Phase = PhaseLoaded
		next.Err = nil
		next.refreshing = false
		return next, nil

	case FetchFailed:
		if ev.Key.String() != s.InFlightKey {
			return s, nil
		}
		next := s.Clone()
		if !s.refreshing {
			next.Rows = defaultRows(s.Members)
			next.Existing = nil
		}
		next.LoadedKey = ""
		next.InFlightKey = ""
		next.Phase = PhaseLoaded
		next.Err = ev.Err
		next.refreshing = false
		return next, nil

	case MemberTypeSet:
		if !s.Editable() || !ev.Type.IsValid() {
			return s, nil
		}
		row, ok := s.Rows[ev.MemberID]
		if !ok {
			return s, nil
		}
		next := s.Clone()
		row.Type = ev.Type
		next.Rows[ev.MemberID] = row
		next.Phase = PhaseEditing
		return next, nil

	case MemberCommentSet:
		if !s.Editable() {
			return s, nil
		}
		row, ok := s.Rows[ev.MemberID]
		if !ok {
			return s, nil
		}
		next := s.Clone()
		row.Comment = ev.Comment
		next.Rows[ev.MemberID] = row
		next.Phase = PhaseEditing
		return next, nil

	case BulkTypeSet:
		if !s.Editable() || !ev.Type.IsValid() || len(s.Rows) == 0 {
			return s, nil
		}
		next := s.Clone()
		for id, row := range next.Rows {
			row.Type = ev.Type
			if ev.Type == model.AttendancePresent {
				row.Comment = ""
			}
			next.Rows[id] = row
		}
		next.Phase = PhaseEditing
		return next, nil

	case CommentsCleared:
		if !s.Editable() || len(s.Rows) == 0 {
			return s, nil
		}
		next := s.Clone()
		for id, row := range next.Rows {
			row.Comment = ""
			next.Rows[id] = row
		}
		next.Phase = PhaseEditing
		return next, nil

	case MembersSynced:
		return reduceMembersSynced(s, ev.Members), nil

	case SubmitStarted:
		if !s.Editable() {
			return s, nil
		}
		next := s.Clone()
		next.Phase = PhaseSubmitting
		next.Err = nil
		return next, nil

	case SubmitSucceeded:
		if s.Phase != PhaseSubmitting {
			return s, nil
		}
		next := s.Clone()
		next.Phase = PhaseLoaded
		if len(ev.Records) > 0 {
			next.Existing = make(map[string]model.AttendanceRecord, len(ev.Records))
			for _, r := range ev.Records {
				next.Existing[r.MemberID] = r
			}
		}
		next.InFlightKey = s.Selected.String()
		next.refreshing = true
		return next, FetchExisting{Key: s.Selected}

	case SubmitFailed:
		if s.Phase != PhaseSubmitting {
			return s, nil
		}
		next := s.Clone()
		next.Phase = PhaseEditing
		next.Err = ev.Err
		return next, nil

	case Closed:
		return State{Closed: true}, nil
	}

	return s, nil
}

func reduceScheduleSelected(s State, key Key) (State, Effect) {
	if s.Phase == PhaseSubmitting {
		return s, nil
	}

	if key.ScheduleID == "" {
		next := s.Clone()
		next.Phase = PhaseEmpty
		next.Selected = Key{}
		next.LoadedKey = ""
		next.InFlightKey = ""
		next.Rows = nil
		next.Existing = nil
		next.Err = nil
		next.refreshing = false
		return next, nil
	}

	k := key.String()
	if k == s.InFlightKey {
		return s, nil
	}
	if k == s.LoadedKey && !s.Fetching() {
		return s, nil
	}

	next := s.Clone()
	next.Phase = PhaseLoading
	next.Selected = key
	next.LoadedKey = ""
	next.InFlightKey = k
	next.Rows = defaultRows(s.Members)
	next.Existing = nil
	next.Err = nil
	next.refreshing = false
	return next, FetchExisting{Key: key}
}

// reduceMembersSynced adds default rows for new members and drops rows of
// departed ones. Rows of members present in both rosters are untouched apart
// from refreshed member details.
func reduceMembersSynced(s State, members []model.Member) State {
	next := s.Clone()
	next.Members = append([]model.Member(nil), members...)
	if s.Rows == nil {
		return next
	}

	rows := make(map[string]Row, len(members))
	for _, m := range members {
		if row, ok := s.Rows[m.ID]; ok {
			row.Member = m
			rows[m.ID] = row
			continue
		}
		rows[m.ID] = defaultRow(m)
	}
	next.Rows = rows

	if s.Existing != nil {
		existing := make(map[string]model.AttendanceRecord)
		for _, m := range members {
			if r, ok := s.Existing[m.ID]; ok {
				existing[m.ID] = r
			}
		}
		next.Existing = existing
	}

	return next
}
