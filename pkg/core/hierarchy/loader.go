package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// Source is the REST data access the loader depends on
type Source interface {
	GetSheltersTeamsMembers(ctx context.Context) ([]model.Shelter, error)
	GetTeamMembers(ctx context.Context, teamID string) ([]model.Member, error)
	GetTeamSchedules(ctx context.Context, teamID string, sort model.ScheduleSort) ([]model.Schedule, error)
}

// Totals are the derived counts shown above the hierarchy
type Totals struct {
	Shelters int
	Teams    int
	Members  int
}

// Loader holds the last loaded lists together with their retryable error state.
// A failed load resets the corresponding list to empty.
type Loader struct {
	source Source
	logger *zap.Logger

	Shelters  []model.Shelter
	Members   []model.Member
	Schedules []model.Schedule

	HierarchyErr error
	MembersErr   error
	SchedulesErr error
}

func NewLoader(source Source, logger *zap.Logger) *Loader {
	return &Loader{source: source, logger: logger}
}

// LoadHierarchy fetches shelters with their teams and members
func (l *Loader) LoadHierarchy(ctx context.Context) ([]model.Shelter, error) {
	shelters, err := l.source.GetSheltersTeamsMembers(ctx)
	if err != nil {
		l.Shelters = []model.Shelter{}
		l.HierarchyErr = fmt.Errorf("failed to load shelters: %w", err)
		l.logger.Warn("Hierarchy load failed", zap.Error(err))
		return l.Shelters, l.HierarchyErr
	}

	l.Shelters = shelters
	l.HierarchyErr = nil
	l.logger.Debug("Hierarchy loaded", zap.Int("shelters", len(shelters)))
	return shelters, nil
}

// LoadTeamMembers fetches the roster of a team
func (l *Loader) LoadTeamMembers(ctx context.Context, teamID string) ([]model.Member, error) {
	members, err := l.source.GetTeamMembers(ctx, teamID)
	if err != nil {
		l.Members = []model.Member{}
		l.MembersErr = fmt.Errorf("failed to load members of team %s: %w", teamID, err)
		l.logger.Warn("Team members load failed", zap.String("team_id", teamID), zap.Error(err))
		return l.Members, l.MembersErr
	}

	l.Members = members
	l.MembersErr = nil
	return members, nil
}

// LoadTeamSchedules fetches the schedules of a team in the requested order
func (l *Loader) LoadTeamSchedules(ctx context.Context, teamID string, sort model.ScheduleSort) ([]model.Schedule, error) {
	schedules, err := l.source.GetTeamSchedules(ctx, teamID, sort)
	if err != nil {
		l.Schedules = []model.Schedule{}
		l.SchedulesErr = fmt.Errorf("failed to load schedules of team %s: %w", teamID, err)
		l.logger.Warn("Team schedules load failed", zap.String("team_id", teamID), zap.Error(err))
		return l.Schedules, l.SchedulesErr
	}

	l.Schedules = schedules
	l.SchedulesErr = nil
	return schedules, nil
}

// DismissErrors clears every error banner without touching the loaded lists
func (l *Loader) DismissErrors() {
	l.HierarchyErr = nil
	l.MembersErr = nil
	l.SchedulesErr = nil
}

// CountTotals returns the number of shelters, teams and members in the hierarchy.
// A team's MemberCount is used when its member list was not loaded.
func CountTotals(shelters []model.Shelter) Totals {
	totals := Totals{Shelters: len(shelters)}
	for _, s := range shelters {
		totals.Teams += len(s.Teams)
		for _, t := range s.Teams {
			if len(t.Members) == 0 && t.MemberCount != nil {
				totals.Members += *t.MemberCount
				continue
			}
			totals.Members += len(t.Members)
		}
	}
	return totals
}

// Filter returns the part of the hierarchy matching query. Matching is a
// case-insensitive substring test:
//   - a shelter whose name matches is kept whole
//   - otherwise a team whose description matches is kept whole
//   - otherwise a team is kept with only its matching members
//
// An empty query returns the input unchanged.
func Filter(shelters []model.Shelter, query string) []model.Shelter {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return shelters
	}

	var result []model.Shelter
	for _, s := range shelters {
		if contains(s.Name, q) {
			result = append(result, s)
			continue
		}

		var teams []model.Team
		for _, t := range s.Teams {
			if contains(t.Description, q) {
				teams = append(teams, t)
				continue
			}

			var members []model.Member
			for _, m := range t.Members {
				if contains(m.Name, q) {
					members = append(members, m)
				}
			}
			if len(members) > 0 {
				matched := t
				matched.Members = members
				teams = append(teams, matched)
			}
		}

		if len(teams) > 0 {
			filtered := s
			filtered.Teams = teams
			result = append(result, filtered)
		}
	}

	return result
}

func contains(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
