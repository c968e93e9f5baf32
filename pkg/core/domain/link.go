package domain

import (
	"encoding/json"
	"time"
)

// Link represents a shortened URL as exposed by the links API
type Link struct {
	ID             int64      `json:"id"`
	Alias          string     `json:"alias"`
	DestinationURL string     `json:"destinationUrl"`
	CreatedBy      int64      `json:"createdBy,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	IsActive       bool       `json:"isActive"`
	Clicks         int64      `json:"clicks,omitempty"`
	Stats          *LinkStats `json:"stats,omitempty"`
}

// LinkStats holds the per-link redirect counters
type LinkStats struct {
	DailyCount     int64      `json:"dailyCount"`
	WeeklyCount    int64      `json:"weeklyCount"`
	TotalCount     int64      `json:"totalCount"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
}

// UnmarshalJSON accepts the legacy shortLink/targetUrl field names still
// emitted by older API builds.
func (l *Link) UnmarshalJSON(data []byte) error {
	type plain Link
	aux := struct {
		*plain
		ShortLink string `json:"shortLink"`
		TargetURL string `json:"targetUrl"`
	}{plain: (*plain)(l)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if l.Alias == "" {
		l.Alias = aux.ShortLink
	}
	if l.DestinationURL == "" {
		l.DestinationURL = aux.TargetURL
	}
	return nil
}

// IsExpired reports whether the link has an expiry in the past
func (l Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// CreateLinkInput is the payload for POST /api/links
type CreateLinkInput struct {
	Alias          string     `json:"alias"`
	DestinationURL string     `json:"destinationUrl"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
}

// LinkPatch is a partial update for PUT /api/links/{id}. Nil fields are left untouched.
type LinkPatch struct {
	Alias          *string    `json:"alias,omitempty"`
	DestinationURL *string    `json:"destinationUrl,omitempty"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	IsActive       *bool      `json:"isActive,omitempty"`
}

// Apply returns a copy of link with the patch applied
func (p LinkPatch) Apply(link Link) Link {
	if p.Alias != nil {
		link.Alias = *p.Alias
	}
	if p.DestinationURL != nil {
		link.DestinationURL = *p.DestinationURL
	}
	if p.ExpiresAt != nil {
		link.ExpiresAt = p.ExpiresAt
	}
	if p.IsActive != nil {
		link.IsActive = *p.IsActive
	}
	return link
}
