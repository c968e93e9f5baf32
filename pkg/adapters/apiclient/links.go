package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

func (c *Client) ListLinks(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.Link], error) {
	out := domain.ListResponse[domain.Link]{}
	if err := c.Do(ctx, http.MethodGet, "/api/links", nil, view.Query(), &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []domain.Link{}
	}
	return &out, nil
}

func (c *Client) CreateLink(ctx context.Context, input domain.CreateLinkInput) (*domain.Link, error) {
	var out domain.Link
	if err := c.Do(ctx, http.MethodPost, "/api/links", input, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateLink(ctx context.Context, id int64, patch domain.LinkPatch) (*domain.Link, error) {
	var out domain.Link
	if err := c.Do(ctx, http.MethodPut, "/api/links/"+strconv.FormatInt(id, 10), patch, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLink(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, "/api/links/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

type bulkRequest struct {
	IDs      []int64 `json:"ids"`
	IsActive *bool   `json:"isActive,omitempty"`
}

func (c *Client) BulkDeleteLinks(ctx context.Context, ids []int64) error {
	return c.Do(ctx, http.MethodPost, "/api/admin/links/bulk-delete", bulkRequest{IDs: ids}, nil, nil)
}

func (c *Client) BulkSetLinkStatus(ctx context.Context, ids []int64, isActive bool) error {
	return c.Do(ctx, http.MethodPost, "/api/admin/links/bulk-status", bulkRequest{IDs: ids, IsActive: &isActive}, nil, nil)
}
