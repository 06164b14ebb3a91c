package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (c *Client) Authenticate(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var res models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, req, &res); err != nil {
		return nil, err
	}
	if res.Token == "" || res.ID == "" {
		return nil, fmt.Errorf("login response without token or id: %w", ErrUnauthorized)
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodPost, "/users/register", nil, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) FetchProfile(ctx context.Context, token, id string) (*models.User, error) {
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, nil, &u, withBearer(token)); err != nil {
		return nil, err
	}
	return &u, nil
}
