package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

type CartHTTP struct {
	Catalog *catalog.Service
	Events  events.Publisher
}

type cartView struct {
	Items      []models.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
}

func cartViewOf(items []models.CartItem) cartView {
	if items == nil {
		items = []models.CartItem{}
	}
	return cartView{
		Items:      items,
		TotalItems: cart.TotalItems(items),
		TotalPrice: cart.TotalPrice(items),
	}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, cartViewOf(workspaceOf(c).Cart.Items()))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")
	ws := workspaceOf(c)

	var req struct {
		ProductID string `json:"productId"`
		Quantity  *int   `json:"quantity"`
		Classify  string `json:"classify"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.ProductID == "" {
		l.Warn("add_to_cart_error", "status", 400, "reason", "missing product id")
		return echo.NewHTTPError(http.StatusBadRequest, "productId required")
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	p, err := h.Catalog.Product(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			l.Warn("add_to_cart_error", "status", 404, "product_id", req.ProductID)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	var opts []cart.AddOption
	if req.Classify != "" {
		opts = append(opts, cart.WithClassify(req.Classify))
	}
	item, err := ws.Cart.AddToCart(ctx, *p, qty, opts...)
	if err != nil {
		if errors.Is(err, cart.ErrValidation) {
			l.Warn("add_to_cart_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		l.Error("add_to_cart_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	h.publish(c, ws.ID, map[string]any{"type": "cart_item_added", "productID": item.ProductID, "quantity": qty})
	l.Info("item added successfully to cart", "product_id", item.ProductID)
	return c.JSON(http.StatusCreated, echo.Map{
		"item": item,
		"cart": cartViewOf(ws.Cart.Items()),
	})
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")
	ws := workspaceOf(c)

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		l.Warn("update_cart_error", "status", 400, "error", errStr(err))
		return echo.NewHTTPError(http.StatusBadRequest, "quantity required")
	}

	id := c.Param("productId")
	ws.Cart.UpdateQuantity(ctx, id, *req.Quantity)

	h.publish(c, ws.ID, map[string]any{"type": "cart_item_updated", "productID": id, "quantity": *req.Quantity})
	return c.JSON(http.StatusOK, cartViewOf(ws.Cart.Items()))
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	ws := workspaceOf(c)

	id := c.Param("productId")
	ws.Cart.RemoveFromCart(ctx, id)

	h.publish(c, ws.ID, map[string]any{"type": "cart_item_removed", "productID": id})
	return c.JSON(http.StatusOK, cartViewOf(ws.Cart.Items()))
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	ws := workspaceOf(c)

	ws.Cart.ClearCart(ctx)

	h.publish(c, ws.ID, map[string]any{"type": "cart_cleared"})
	logging.FromContext(ctx).Info("cart successfully cleared")
	return c.JSON(http.StatusOK, cartViewOf(nil))
}

func (h *CartHTTP) publish(c echo.Context, key string, event map[string]any) {
	publish(c, h.Events, events.TopicCart, key, event)
}
