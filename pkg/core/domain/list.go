package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ListResponse is one page of a remote collection
type ListResponse[T any] struct {
	Items      []T  `json:"items"`
	TotalCount int  `json:"totalCount"`
	HasMore    bool `json:"hasMore"`
}

// Clone returns a copy whose Items slice can be modified without touching the original
func (r ListResponse[T]) Clone() ListResponse[T] {
	items := make([]T, len(r.Items))
	copy(items, r.Items)
	r.Items = items
	return r
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ViewState parameterizes which page of a collection a view wants
type ViewState struct {
	Page          int
	PageSize      int
	SortBy        string
	SortDirection SortDirection
	Search        string
	Filters       map[string]string
}

// Key renders the state canonically so that structurally equal states
// produce the same string regardless of filter map ordering.
func (v ViewState) Key() string {
	var b strings.Builder
	b.WriteString("page=")
	b.WriteString(strconv.Itoa(v.Page))
	b.WriteString("&pageSize=")
	b.WriteString(strconv.Itoa(v.PageSize))
	b.WriteString("&sortBy=")
	b.WriteString(url.QueryEscape(v.SortBy))
	b.WriteString("&sortDirection=")
	b.WriteString(string(v.SortDirection))
	b.WriteString("&search=")
	b.WriteString(url.QueryEscape(v.Search))

	fields := make([]string, 0, len(v.Filters))
	for k, val := range v.Filters {
		if val == "" {
			continue
		}
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		b.WriteString("&f.")
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v.Filters[k]))
	}
	return b.String()
}

// Query converts the state into list endpoint query parameters
func (v ViewState) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(v.Page))
	if v.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(v.PageSize))
	}
	if v.Search != "" {
		q.Set("search", v.Search)
	}
	if v.SortBy != "" {
		q.Set("sortBy", v.SortBy)
	}
	if v.SortDirection != "" {
		q.Set("sortDirection", string(v.SortDirection))
	}
	for k, val := range v.Filters {
		if val != "" {
			q.Set(k, val)
		}
	}
	return q
}

// Clone deep-copies the filters map
func (v ViewState) Clone() ViewState {
	if v.Filters != nil {
		filters := make(map[string]string, len(v.Filters))
		for k, val := range v.Filters {
			filters[k] = val
		}
		v.Filters = filters
	}
	return v
}
