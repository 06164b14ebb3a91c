package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/catalog"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc *catalog.Service
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 0)
	perPage := util.ParseIntDefault(c.QueryParam("perPage"), util.DefaultPerPage)
	return util.Normalize(page, perPage)
}

func (h *CatalogHTTP) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Home(c.Request().Context()))
}

func (h *CatalogHTTP) Products(c echo.Context) error {
	page, perPage := pageParams(c)
	return c.JSON(http.StatusOK, h.Svc.Listing(c.Request().Context(), page, perPage))
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Categories(c.Request().Context()))
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_search")

	keyword := strings.TrimSpace(c.QueryParam("keyword"))
	if keyword == "" {
		keyword = strings.TrimSpace(c.QueryParam("q"))
	}
	if keyword == "" {
		l.Warn("search_error", "status", 400, "reason", "empty keyword")
		return echo.NewHTTPError(http.StatusBadRequest, "keyword required")
	}

	page, perPage := pageParams(c)
	return c.JSON(http.StatusOK, h.Svc.Search(ctx, keyword, page, perPage))
}

func (h *CatalogHTTP) Product(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog_product")

	id := c.Param("id")
	p, err := h.Svc.Product(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			l.Warn("get_product_not_found", "status", 404, "product_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_error", "status", 500, "product_id", id, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"product":  p,
		"price":    p.EffectivePrice(),
		"imageUrl": p.ImageURL(),
	})
}
