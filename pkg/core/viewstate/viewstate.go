// Package viewstate keeps the page, sort, search and filter state of one
// list view and reports failures of the refetch each change triggers.
package viewstate

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

// PageSizes are the page sizes a list view may use
var PageSizes = []int{10, 25, 50}

const DefaultPageSize = 10

// Callback runs after a change has been applied, usually to refetch the
// list for the new view.
type Callback func(ctx context.Context, view domain.ViewState) error

type Controller struct {
	mu        sync.Mutex
	view      domain.ViewState
	lastError string
	listeners []func(domain.ViewState)
}

func New(initial domain.ViewState) *Controller {
	view := initial.Clone()
	if !validPageSize(view.PageSize) {
		view.PageSize = DefaultPageSize
	}
	if view.Page < 0 {
		view.Page = 0
	}
	return &Controller{view: view}
}

func validPageSize(size int) bool {
	for _, s := range PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

func (c *Controller) View() domain.ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Clone()
}

// Error is the message of the last failed callback, empty when none
func (c *Controller) Error() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastError = ""
	c.mu.Unlock()
}

// OnChange registers fn to be called with the new view after every change
func (c *Controller) OnChange(fn func(domain.ViewState)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// SetPage is the only change that keeps the rest of the view as is
func (c *Controller) SetPage(ctx context.Context, page int, cb Callback) error {
	if page < 0 {
		return &domain.ValidationError{Field: "page", Message: "Page must not be negative"}
	}
	return c.apply(ctx, cb, func(v *domain.ViewState) {
		v.Page = page
	})
}

func (c *Controller) NextPage(ctx context.Context, cb Callback) error {
	return c.SetPage(ctx, c.View().Page+1, cb)
}

func (c *Controller) PrevPage(ctx context.Context, cb Callback) error {
	page := c.View().Page - 1
	if page < 0 {
		page = 0
	}
	return c.SetPage(ctx, page, cb)
}

func (c *Controller) SetPageSize(ctx context.Context, size int, cb Callback) error {
	if !validPageSize(size) {
		return &domain.ValidationError{
			Field:   "pageSize",
			Message: fmt.Sprintf("Page size must be one of %v", PageSizes),
		}
	}
	return c.apply(ctx, cb, func(v *domain.ViewState) {
		v.PageSize = size
		v.Page = 0
	})
}

func (c *Controller) SetSort(ctx context.Context, sortBy string, dir domain.SortDirection, cb Callback) error {
	if dir != "" && dir != domain.SortAsc && dir != domain.SortDesc {
		return &domain.ValidationError{Field: "sortDirection", Message: "Sort direction must be asc or desc"}
	}
	return c.apply(ctx, cb, func(v *domain.ViewState) {
		v.SortBy = sortBy
		v.SortDirection = dir
		v.Page = 0
	})
}

func (c *Controller) SetSearch(ctx context.Context, query string, cb Callback) error {
	return c.apply(ctx, cb, func(v *domain.ViewState) {
		v.Search = query
		v.Page = 0
	})
}

// SetFilter sets one filter; an empty value removes it
func (c *Controller) SetFilter(ctx context.Context, field, value string, cb Callback) error {
	return c.apply(ctx, cb, func(v *domain.ViewState) {
		if value == "" {
			delete(v.Filters, field)
		} else {
			if v.Filters == nil {
				v.Filters = make(map[string]string)
			}
			v.Filters[field] = value
		}
		v.Page = 0
	})
}

func (c *Controller) ClearFilters(ctx context.Context, cb Callback) error {
	return c.apply(ctx, cb, func(v *domain.ViewState) {
		v.Filters = nil
		v.Search = ""
		v.Page = 0
	})
}

// Refresh runs cb against the current view without changing it
func (c *Controller) Refresh(ctx context.Context, cb Callback) error {
	return c.apply(ctx, cb, func(*domain.ViewState) {})
}

func (c *Controller) apply(ctx context.Context, cb Callback, change func(*domain.ViewState)) error {
	c.mu.Lock()
	next := c.view.Clone()
	change(&next)
	c.view = next
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(next.Clone())
	}

	var err error
	if cb != nil {
		err = cb(ctx, next.Clone())
	}

	c.mu.Lock()
	if err != nil {
		c.lastError = err.Error()
	} else {
		c.lastError = ""
	}
	c.mu.Unlock()
	return err
}
