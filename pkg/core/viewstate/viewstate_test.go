package viewstate

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/cache"
	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

func TestNewNormalizesInitialView(t *testing.T) {
	c := New(domain.ViewState{Page: -3, PageSize: 7})
	assert.Equal(t, 0, c.View().Page)
	assert.Equal(t, DefaultPageSize, c.View().PageSize)
}

func TestChangesResetPage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		change func(c *Controller) error
	}{
		{"page size", func(c *Controller) error { return c.SetPageSize(ctx, 50, nil) }},
		{"sort", func(c *Controller) error { return c.SetSort(ctx, "clicks", domain.SortDesc, nil) }},
		{"search", func(c *Controller) error { return c.SetSearch(ctx, "docs", nil) }},
		{"filter", func(c *Controller) error { return c.SetFilter(ctx, "status", "active", nil) }},
		{"clear filters", func(c *Controller) error { return c.ClearFilters(ctx, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(domain.ViewState{Page: 4, PageSize: 10})
			require.NoError(t, tt.change(c))
			assert.Equal(t, 0, c.View().Page)
		})
	}
}

func TestPageNavigationKeepsView(t *testing.T) {
	ctx := context.Background()
	c := New(domain.ViewState{PageSize: 25, Search: "docs", Filters: map[string]string{"status": "active"}})

	require.NoError(t, c.SetPage(ctx, 3, nil))
	require.NoError(t, c.NextPage(ctx, nil))
	v := c.View()
	assert.Equal(t, 4, v.Page)
	assert.Equal(t, 25, v.PageSize)
	assert.Equal(t, "docs", v.Search)
	assert.Equal(t, "active", v.Filters["status"])

	require.NoError(t, c.SetPage(ctx, 0, nil))
	require.NoError(t, c.PrevPage(ctx, nil))
	assert.Equal(t, 0, c.View().Page)
}

func TestInvalidChangesAreRejected(t *testing.T) {
	ctx := context.Background()
	c := New(domain.ViewState{Page: 2, PageSize: 10})

	var verr *domain.ValidationError
	assert.ErrorAs(t, c.SetPage(ctx, -1, nil), &verr)
	assert.ErrorAs(t, c.SetPageSize(ctx, 20, nil), &verr)
	assert.ErrorAs(t, c.SetSort(ctx, "alias", "sideways", nil), &verr)

	assert.Equal(t, domain.ViewState{Page: 2, PageSize: 10}, c.View())
}

func TestSetFilterEmptyValueRemovesIt(t *testing.T) {
	ctx := context.Background()
	c := New(domain.ViewState{PageSize: 10})

	require.NoError(t, c.SetFilter(ctx, "role", "admin", nil))
	require.NoError(t, c.SetFilter(ctx, "role", "", nil))
	assert.Empty(t, c.View().Filters)
}

func TestCallbackErrorIsCapturedAndCleared(t *testing.T) {
	ctx := context.Background()
	c := New(domain.ViewState{PageSize: 10})

	failing := func(ctx context.Context, v domain.ViewState) error {
		return errors.New("Failed to load links")
	}
	err := c.SetPage(ctx, 1, failing)
	assert.EqualError(t, err, "Failed to load links")
	assert.Equal(t, "Failed to load links", c.Error())
	// the change itself stays applied
	assert.Equal(t, 1, c.View().Page)

	require.NoError(t, c.SetPage(ctx, 2, func(ctx context.Context, v domain.ViewState) error { return nil }))
	assert.Empty(t, c.Error())

	_ = c.SetSearch(ctx, "x", failing)
	require.NotEmpty(t, c.Error())
	c.ClearError()
	assert.Empty(t, c.Error())
}

func TestCallbackSeesNewView(t *testing.T) {
	c := New(domain.ViewState{Page: 3, PageSize: 10})

	var seen domain.ViewState
	require.NoError(t, c.SetPageSize(context.Background(), 25, func(ctx context.Context, v domain.ViewState) error {
		seen = v
		return nil
	}))
	assert.Equal(t, 0, seen.Page)
	assert.Equal(t, 25, seen.PageSize)
}

func TestOnChangeListeners(t *testing.T) {
	c := New(domain.ViewState{PageSize: 10})
	var got []string
	c.OnChange(func(v domain.ViewState) { got = append(got, v.Search) })

	require.NoError(t, c.SetSearch(context.Background(), "a", nil))
	require.NoError(t, c.SetSearch(context.Background(), "ab", nil))
	assert.Equal(t, []string{"a", "ab"}, got)
}

func TestPageSizeChangeIssuesOneFetchForNewKey(t *testing.T) {
	var mu sync.Mutex
	fetches := map[string]int{}
	store := cache.NewStore(cache.Config{Logger: log.New(io.Discard, "", 0)})
	defer store.Close()

	links := cache.NewCollection(store, "links", func(ctx context.Context, v domain.ViewState) (*domain.ListResponse[domain.Link], error) {
		mu.Lock()
		fetches[v.Key()]++
		mu.Unlock()
		return &domain.ListResponse[domain.Link]{Items: []domain.Link{}, TotalCount: 0}, nil
	})
	load := func(ctx context.Context, v domain.ViewState) error {
		_, err := links.Load(ctx, v)
		return err
	}

	ctx := context.Background()
	c := New(domain.ViewState{Page: 2, PageSize: 10})
	require.NoError(t, c.Refresh(ctx, load))
	require.NoError(t, c.SetPageSize(ctx, 25, load))

	want := domain.ViewState{Page: 0, PageSize: 25}
	assert.Equal(t, want, c.View())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, fetches[want.Key()])
	assert.Len(t, fetches, 2)
}
