package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore_checkout/internal/catalog"
	"github.com/Skotchmaster/bookstore_checkout/pkg/logging"
)

type CatalogHTTP struct {
	Registry *catalog.Registry
}

func (h *CatalogHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"data": h.Registry.List()})
}

func (h *CatalogHTTP) CategoryProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.category_products")

	var number, size int
	if err := echo.QueryParamsBinder(c).Int("page", &number).Int("size", &size).BindError(); err != nil {
		l.Warn("category_products_error", "status", 400, "reason", "invalid paging", "error", err)
		return fail(c, http.StatusBadRequest, "page and size must be integers")
	}
	page := catalog.NewPage(number, size)

	d, items, err := h.Registry.Products(ctx, c.Param("code"), page)
	if err != nil {
		return writeError(c, l, "category_products_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"category": d,
		"page":     page,
		"data":     items,
	})
}
