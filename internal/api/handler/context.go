package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/MikeLinPlan/account-system/internal/api/middleware"
)

// ctxPrincipal extracts the identity injected by the Auth middleware and
// fast-fails when it is absent, which would mean the route was wired without
// the middleware.
func ctxPrincipal(c echo.Context) (*middleware.Principal, error) {
	p := middleware.GetPrincipal(c)
	if p == nil || p.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	return p, nil
}

// pageParams reads ?page and ?page_size with the conventional defaults.
func pageParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 10
	}
	return page, pageSize
}
