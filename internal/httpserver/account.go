package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
)

type AccountHTTP struct {
	Catalog *catalog.Service
}

func (h *AccountHTTP) Profile(c echo.Context) error {
	u := workspaceOf(c).Session.User()
	if u == nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not loaded")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AccountHTTP) Orders(c echo.Context) error {
	ws := workspaceOf(c)
	orders, fallback := h.Catalog.Orders(c.Request().Context(), ws.Session.Token())
	return c.JSON(http.StatusOK, echo.Map{"orders": orders, "fallback": fallback})
}

func (h *AccountHTTP) Promotions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Promotions())
}

func (h *AccountHTTP) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Catalog.Dashboard())
}
