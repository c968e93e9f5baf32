package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

func (c *Client) SystemStats(ctx context.Context) (*domain.SystemStats, error) {
	var out domain.SystemStats
	if err := c.Do(ctx, http.MethodGet, "/analytics/system", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RedirectStats(ctx context.Context, period string) ([]domain.RedirectStat, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	out := []domain.RedirectStat{}
	if err := c.Do(ctx, http.MethodGet, "/api/admin/stats/redirects", nil, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PeakUsage fetches the hourly breakdown for date (YYYY-MM-DD, "" for today)
func (c *Client) PeakUsage(ctx context.Context, date string) (*domain.PeakUsage, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	var out domain.PeakUsage
	if err := c.Do(ctx, http.MethodGet, "/api/admin/stats/peak-usage", nil, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
