package domain

import "time"

// SystemStats is the dashboard summary served by /analytics/system
type SystemStats struct {
	DailyActiveUsers   int64     `json:"dailyActiveUsers"`
	MonthlyActiveUsers int64     `json:"monthlyActiveUsers"`
	TotalLinks         int64     `json:"totalLinks"`
	ActiveLinks        int64     `json:"activeLinks"`
	ExpiredLinks       int64     `json:"expiredLinks"`
	TotalRedirects     int64     `json:"totalRedirects"`
	Status2xx          int64     `json:"status2xx"`
	Status3xx          int64     `json:"status3xx"`
	Status4xx          int64     `json:"status4xx"`
	Status5xx          int64     `json:"status5xx"`
	LastUpdated        time.Time `json:"lastUpdated"`
}

// RedirectStat is one point of the redirects-over-time series
type RedirectStat struct {
	Timestamp string `json:"timestamp"`
	Value     int64  `json:"value"`
}

type HourlyStat struct {
	Hour        int   `json:"hour"`
	Redirects   int64 `json:"redirects"`
	UniqueUsers int64 `json:"uniqueUsers"`
}

// PeakUsage is the per-hour redirect breakdown for a single day
type PeakUsage struct {
	HourlyStats   []HourlyStat `json:"hourlyStats"`
	PeakHour      int          `json:"peakHour"`
	PeakRedirects int64        `json:"peakRedirects"`
	Date          string       `json:"date"`
}

// Period values accepted by the redirects endpoint
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)
