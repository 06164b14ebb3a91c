package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (c *Client) ListProducts(ctx context.Context, page, perPage int) (*models.Page[models.Product], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))

	var res models.Page[models.Product]
	if err := c.do(ctx, http.MethodGet, "/products", q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) BestSellers(ctx context.Context) ([]models.Product, error) {
	var res []models.Product
	if err := c.do(ctx, http.MethodGet, "/products/best-seller", nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) SaleProducts(ctx context.Context) ([]models.Product, error) {
	var res []models.Product
	if err := c.do(ctx, http.MethodGet, "/products/sale", nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) SearchProducts(ctx context.Context, keyword string, page, perPage int) (*models.Page[models.Product], error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))

	var res models.Page[models.Product]
	if err := c.do(ctx, http.MethodGet, "/products/search", q, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var res []models.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}
