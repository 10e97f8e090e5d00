package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jakechorley/ministry-attendance/pkg/core/model"
)

// VisitReportQuery filters GET /visit-reports
type VisitReportQuery struct {
	TeamID     string
	ScheduleID string
}

// ListVisitReports lists visit reports, optionally filtered by team or schedule
func (c *Client) ListVisitReports(ctx context.Context, query VisitReportQuery) ([]model.VisitReport, error) {
	v := url.Values{}
	if query.TeamID != "" {
		v.Set("teamId", query.TeamID)
	}
	if query.ScheduleID != "" {
		v.Set("scheduleId", query.ScheduleID)
	}
	var out []VisitReportDto
	if err := c.do(ctx, http.MethodGet, "/visit-reports", v, nil, &out, model.RequestFlags{}); err != nil {
		return nil, err
	}
	reports := make([]model.VisitReport, 0, len(out))
	for _, r := range out {
		reports = append(reports, r.toModel())
	}
	return reports, nil
}

func (c *Client) GetVisitReport(ctx context.Context, id string) (model.VisitReport, error) {
	var out VisitReportDto
	if err := c.do(ctx, http.MethodGet, "/visit-reports/"+url.PathEscape(id), nil, nil, &out, model.RequestFlags{}); err != nil {
		return model.VisitReport{}, err
	}
	return out.toModel(), nil
}

func (c *Client) CreateVisitReport(ctx context.Context, report model.VisitReport, flags model.RequestFlags) (model.VisitReport, error) {
	body := VisitReportToDto(report)
	body.ID = ""
	var out VisitReportDto
	if err := c.do(ctx, http.MethodPost, "/visit-reports", nil, body, &out, flags); err != nil {
		return model.VisitReport{}, err
	}
	return out.toModel(), nil
}

func (c *Client) UpdateVisitReport(ctx context.Context, report model.VisitReport, flags model.RequestFlags) (model.VisitReport, error) {
	var out VisitReportDto
	if err := c.do(ctx, http.MethodPut, "/visit-reports/"+url.PathEscape(report.ID), nil, VisitReportToDto(report), &out, flags); err != nil {
		return model.VisitReport{}, err
	}
	return out.toModel(), nil
}

func (c *Client) DeleteVisitReport(ctx context.Context, id string, flags model.RequestFlags) error {
	return c.do(ctx, http.MethodDelete, "/visit-reports/"+url.PathEscape(id), nil, nil, nil, flags)
}
