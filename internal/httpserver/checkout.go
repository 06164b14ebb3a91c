package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

type CheckoutHTTP struct {
	Svc    *checkout.Service
	Events events.Publisher
}

// Form returns the prefilled shipping details with the cart being checked out.
func (h *CheckoutHTTP) Form(c echo.Context) error {
	ws := workspaceOf(c)
	return c.JSON(http.StatusOK, echo.Map{
		"shipping": checkout.DefaultShipping(ws.Session.User()),
		"cart":     cartViewOf(ws.Cart.Items()),
	})
}

func (h *CheckoutHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.place_order")
	ws := workspaceOf(c)

	var req models.ShippingInfo
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	conf, err := h.Svc.Checkout(ctx, ws.Session, ws.Cart, req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrValidation), errors.Is(err, checkout.ErrEmptyCart):
			l.Warn("create_order_error", "status", 400, "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, checkout.ErrNotAuthenticated):
			l.Warn("create_order_error", "status", 401, "error", err)
			c.Response().Header().Set(echo.HeaderLocation, "/login")
			return c.JSON(http.StatusUnauthorized, echo.Map{"redirect": "/login"})
		case errors.Is(err, checkout.ErrRejected):
			l.Warn("create_order_error", "status", 422, "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "order rejected")
		default:
			l.Error("create_order_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	var userID string
	if u := ws.Session.User(); u != nil {
		userID = u.ID
	}
	publish(c, h.Events, events.TopicOrder, conf.ID, map[string]any{
		"type":    "order_created",
		"orderID": conf.ID,
		"userID":  userID,
		"total":   conf.Total.String(),
		"mock":    conf.Mock,
	})

	l.Info("create_order_success", "order_id", conf.ID, "mock", conf.Mock)
	return c.JSON(http.StatusCreated, conf)
}
