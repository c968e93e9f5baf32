package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewStateKeyIsStructural(t *testing.T) {
	a := ViewState{Page: 1, PageSize: 25, SortBy: "createdAt", SortDirection: SortDesc, Search: "go",
		Filters: map[string]string{"status": "active", "role": "admin"}}
	b := ViewState{Page: 1, PageSize: 25, SortBy: "createdAt", SortDirection: SortDesc, Search: "go",
		Filters: map[string]string{"role": "admin", "status": "active"}}

	assert.Equal(t, a.Key(), b.Key())

	b.Page = 2
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestViewStateKeyIgnoresEmptyFilters(t *testing.T) {
	a := ViewState{PageSize: 10}
	b := ViewState{PageSize: 10, Filters: map[string]string{"status": ""}}
	assert.Equal(t, a.Key(), b.Key())
}

func TestViewStateQuery(t *testing.T) {
	q := ViewState{Page: 0, PageSize: 10, Search: "docs", Filters: map[string]string{"status": "expired"}}.Query()
	assert.Equal(t, "0", q.Get("page"))
	assert.Equal(t, "10", q.Get("pageSize"))
	assert.Equal(t, "docs", q.Get("search"))
	assert.Equal(t, "expired", q.Get("status"))
	assert.Empty(t, q.Get("sortBy"))
}

func TestLinkDecodesLegacyFieldNames(t *testing.T) {
	var l Link
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"shortLink":"docs","targetUrl":"https://go.dev","isActive":true}`), &l))
	assert.Equal(t, "docs", l.Alias)
	assert.Equal(t, "https://go.dev", l.DestinationURL)
	assert.True(t, l.IsActive)
}

func TestUserDecodeNormalizesRole(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"email":"a@example.com","isAdmin":true}`), &u))
	assert.Equal(t, RoleAdmin, u.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"email":"b@example.com","role":"admin","isAdmin":false}`), &u))
	assert.True(t, u.IsAdmin)

	var plain User
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"email":"c@example.com"}`), &plain))
	assert.Equal(t, RoleUser, plain.Role)
	assert.False(t, plain.IsAdmin)
}

func TestBulkErrorNamesFailures(t *testing.T) {
	err := &BulkError{
		Op:        "bulk update status",
		Failed:    map[int64]error{2: &HTTPError{Status: 500, Message: "boom"}},
		Succeeded: []int64{1, 3},
		First:     &HTTPError{Status: 500, Message: "boom"},
	}
	assert.Contains(t, err.Error(), "id 2")
	assert.Contains(t, err.Error(), "1 of 3 failed")
	assert.Equal(t, []int64{2}, err.FailedIDs())
}
