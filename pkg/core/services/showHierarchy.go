package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/ministry-attendance/pkg/core/hierarchy"
	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// HierarchyView is the filtered hierarchy with its totals
type HierarchyView struct {
	Shelters []model.Shelter
	Totals   hierarchy.Totals
}

// ShowHierarchy loads the shelter hierarchy and applies the search query locally
func ShowHierarchy(ctx context.Context, source hierarchy.Source, logger *zap.Logger, query string) (*HierarchyView, error) {
	loader := hierarchy.NewLoader(source, logger)
	shelters, err := loader.LoadHierarchy(ctx)
	if err != nil {
		return nil, err
	}

	filtered := hierarchy.Filter(shelters, query)
	return &HierarchyView{
		Shelters: filtered,
		Totals:   hierarchy.CountTotals(filtered),
	}, nil
}
