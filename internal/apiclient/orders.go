package apiclient

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (c *Client) CreateOrder(ctx context.Context, token string, draft models.OrderDraft) (*models.OrderConfirmation, error) {
	var res models.OrderConfirmation
	err := c.do(ctx, http.MethodPost, "/orders", nil, draft, &res,
		withBearer(token),
		withHeader("Idempotency-Key", draft.IdempotencyKey),
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ListOrders(ctx context.Context, token string) ([]models.OrderSummary, error) {
	var res []models.OrderSummary
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &res, withBearer(token)); err != nil {
		return nil, err
	}
	return res, nil
}
