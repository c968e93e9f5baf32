package apiclient

import (
	"context"
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

func (c *Client) ListUsers(ctx context.Context, view domain.ViewState) (*domain.ListResponse[domain.User], error) {
	out := domain.ListResponse[domain.User]{}
	if err := c.Do(ctx, http.MethodGet, "/api/admin/users", nil, view.Query(), &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []domain.User{}
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, input domain.CreateUserInput) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodPost, "/api/users", input, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodPut, "/api/users/"+strconv.FormatInt(id, 10), patch, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, "/api/users/"+strconv.FormatInt(id, 10), nil, nil, nil)
}
