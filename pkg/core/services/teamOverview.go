package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// TeamOverviewSource defines the API operations for team overviews
type TeamOverviewSource interface {
	LeaderTeams(ctx context.Context) ([]model.Team, error)
	TeamOverview(ctx context.Context, teamID string) (model.TeamOverview, error)
}

const maxConcurrentOverviewRequests = 5

// TeamOverviews returns the overview of one team, or of every team the caller
// leads when teamID is empty. Results keep the order of the leader teams.
func TeamOverviews(ctx context.Context, source TeamOverviewSource, logger *zap.Logger, teamID string) ([]model.TeamOverview, error) {
	if teamID != "" {
		overview, err := source.TeamOverview(ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("failed to load overview of team %s: %w", teamID, err)
		}
		return []model.TeamOverview{overview}, nil
	}

	teams, err := source.LeaderTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leader teams: %w", err)
	}
	logger.Debug("Loading team overviews", zap.Int("teams", len(teams)))

	overviews := make([]model.TeamOverview, len(teams))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOverviewRequests)
	for i, team := range teams {
		g.Go(func() error {
			overview, err := source.TeamOverview(gctx, team.ID)
			if err != nil {
				return fmt.Errorf("failed to load overview of team %s: %w", team.ID, err)
			}
			if overview.ShelterName == "" {
				overview.ShelterName = team.ShelterName
			}
			overviews[i] = overview
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return overviews, nil
}
