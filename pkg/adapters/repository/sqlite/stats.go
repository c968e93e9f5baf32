package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

// RecordRedirect logs one hit on a link. Only successful redirects count
// towards the link's clicks.
func (r *SQLiteRepository) RecordRedirect(ctx context.Context, linkID int64, status int, visitor string, at time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO redirects (link_id, status, visitor, created_at) VALUES (?, ?, ?, ?)`,
		linkID, status, visitor, formatTime(at))
	if err != nil {
		return err
	}

	if status >= 300 && status < 400 {
		if _, err := tx.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = ?`, linkID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetSystemStats(ctx context.Context, now time.Time) (*domain.SystemStats, error) {
	stats := &domain.SystemStats{LastUpdated: now.UTC()}
	nowStr := formatTime(now)

	err := r.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN last_login_at >= ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN last_login_at >= ? THEN 1 ELSE 0 END), 0)
		FROM users`, formatTime(now.Add(-24*time.Hour)), formatTime(now.AddDate(0, 0, -30))).
		Scan(&stats.DailyActiveUsers, &stats.MonthlyActiveUsers)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN is_active = 1 AND (expires_at IS NULL OR expires_at > ?) THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN expires_at IS NOT NULL AND expires_at <= ? THEN 1 ELSE 0 END), 0)
		FROM links WHERE deleted_at IS NULL`, nowStr, nowStr).
		Scan(&stats.TotalLinks, &stats.ActiveLinks, &stats.ExpiredLinks)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status BETWEEN 200 AND 299 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status BETWEEN 300 AND 399 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status BETWEEN 400 AND 499 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN status >= 500 THEN 1 ELSE 0 END), 0)
		FROM redirects`).
		Scan(&stats.TotalRedirects, &stats.Status2xx, &stats.Status3xx, &stats.Status4xx, &stats.Status5xx)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// GetRedirectsOverTime buckets redirects hourly for a day and daily for a
// week or month.
func (r *SQLiteRepository) GetRedirectsOverTime(ctx context.Context, period string, now time.Time) ([]domain.RedirectStat, error) {
	var (
		since  time.Time
		bucket string
	)
	switch period {
	case domain.PeriodDay, "":
		since, bucket = now.Add(-24*time.Hour), "%Y-%m-%dT%H:00:00Z"
	case domain.PeriodWeek:
		since, bucket = now.AddDate(0, 0, -7), "%Y-%m-%dT00:00:00Z"
	case domain.PeriodMonth:
		since, bucket = now.AddDate(0, 0, -30), "%Y-%m-%dT00:00:00Z"
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT strftime(?, created_at) AS bucket, COUNT(*)
		FROM redirects WHERE created_at >= ? GROUP BY bucket ORDER BY bucket`, bucket, formatTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.RedirectStat{}
	for rows.Next() {
		var s domain.RedirectStat
		if err := rows.Scan(&s.Timestamp, &s.Value); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetPeakUsage returns all 24 hours of date, zero-filled
func (r *SQLiteRepository) GetPeakUsage(ctx context.Context, date time.Time) (*domain.PeakUsage, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	usage := &domain.PeakUsage{
		Date:        day.Format(time.DateOnly),
		HourlyStats: make([]domain.HourlyStat, 24),
	}
	for h := range usage.HourlyStats {
		usage.HourlyStats[h].Hour = h
	}

	rows, err := r.db.QueryContext(ctx, `SELECT CAST(strftime('%H', created_at) AS INTEGER) AS hour,
		COUNT(*), COUNT(DISTINCT visitor)
		FROM redirects WHERE created_at >= ? AND created_at < ?
		GROUP BY hour`, formatTime(day), formatTime(day.AddDate(0, 0, 1)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			hour             int
			count, uniqueCnt int64
		)
		if err := rows.Scan(&hour, &count, &uniqueCnt); err != nil {
			return nil, err
		}
		if hour < 0 || hour > 23 {
			continue
		}
		usage.HourlyStats[hour].Redirects = count
		usage.HourlyStats[hour].UniqueUsers = uniqueCnt
		if count > usage.PeakRedirects {
			usage.PeakRedirects = count
			usage.PeakHour = hour
		}
	}
	return usage, rows.Err()
}
