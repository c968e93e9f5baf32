package services

import (
	"context"
	"sync"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
	"github.com/wadjakorntonsri/golinks-console/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// StatsService serves the read-only dashboard metrics. Each result is kept
// for the dedupe interval; there is no other revalidation.
type StatsService struct {
	api      ports.StatsAPI
	interval time.Duration
	now      func() time.Time

	group   singleflight.Group
	mu      sync.RWMutex
	entries map[string]statsEntry
}

type statsEntry struct {
	value     any
	fetchedAt time.Time
}

func NewStatsService(api ports.StatsAPI, interval time.Duration) *StatsService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsService{
		api:      api,
		interval: interval,
		now:      time.Now,
		entries:  make(map[string]statsEntry),
	}
}

func (s *StatsService) System(ctx context.Context) (*domain.SystemStats, error) {
	return cached(ctx, s, "system", func(ctx context.Context) (*domain.SystemStats, error) {
		return s.api.SystemStats(ctx)
	})
}

// Redirects returns the redirect series for period; "" means day
func (s *StatsService) Redirects(ctx context.Context, period string) ([]domain.RedirectStat, error) {
	if period == "" {
		period = domain.PeriodDay
	}
	switch period {
	case domain.PeriodDay, domain.PeriodWeek, domain.PeriodMonth:
	default:
		return nil, &domain.ValidationError{Field: "period", Message: "Period must be day, week or month"}
	}
	return cached(ctx, s, "redirects:"+period, func(ctx context.Context) ([]domain.RedirectStat, error) {
		return s.api.RedirectStats(ctx, period)
	})
}

// PeakUsage returns the hourly breakdown for date (YYYY-MM-DD, "" for today)
func (s *StatsService) PeakUsage(ctx context.Context, date string) (*domain.PeakUsage, error) {
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, &domain.ValidationError{Field: "date", Message: "Date must be YYYY-MM-DD"}
		}
	}
	return cached(ctx, s, "peak:"+date, func(ctx context.Context) (*domain.PeakUsage, error) {
		return s.api.PeakUsage(ctx, date)
	})
}

// Invalidate drops every cached metric
func (s *StatsService) Invalidate() {
	s.mu.Lock()
	s.entries = make(map[string]statsEntry)
	s.mu.Unlock()
}

func cached[V any](ctx context.Context, s *StatsService, key string, fetch func(context.Context) (V, error)) (V, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && s.now().Sub(e.fetchedAt) < s.interval {
		return e.value.(V), nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.entries[key] = statsEntry{value: v, fetchedAt: s.now()}
		s.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
