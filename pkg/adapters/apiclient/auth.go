package apiclient

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/golinks-console/pkg/core/domain"
)

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/login", creds, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.Do(ctx, http.MethodPost, "/api/auth/register", creds, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
