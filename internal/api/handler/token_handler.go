package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MikeLinPlan/account-system/internal/api/metrics"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

// TokenHandler covers API token management. All operations are scoped to the
// authenticated owner.
type TokenHandler struct {
	tokens ports.TokenService
}

func NewTokenHandler(tokens ports.TokenService) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

type createTokenRequest struct {
	Name           string `json:"name" validate:"required,max=50"`
	RemainQuota    int64  `json:"remain_quota" validate:"gte=0"`
	UnlimitedQuota bool   `json:"unlimited_quota"`
}

// updateTokenRequest leaves the quota pair as pointers: absent fields mean
// "keep the current quota", so toggling status never rewrites it.
type updateTokenRequest struct {
	ID             string `json:"id" validate:"required"`
	Name           string `json:"name" validate:"omitempty,max=50"`
	Status         int    `json:"status"`
	RemainQuota    *int64 `json:"remain_quota" validate:"omitempty,gte=0"`
	UnlimitedQuota *bool  `json:"unlimited_quota"`
}

// ListTokens returns a page of the caller's tokens.
//
// @Summary      List API tokens
// @Tags         token
// @Produce      json
// @Param        page       query  int  false  "Page number"
// @Param        page_size  query  int  false  "Page size"
// @Success      200  {object}  envelope{data=[]domain.APIToken}
// @Router       /api/token [get]
func (h *TokenHandler) ListTokens(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	page, pageSize := pageParams(c)
	result, err := h.tokens.List(c.Request().Context(), p.ID, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okPage("", result.Items, result.Total))
}

// SearchTokens returns a page of the caller's tokens matching ?keyword.
//
// @Summary      Search API tokens
// @Tags         token
// @Produce      json
// @Param        keyword  query  string  false  "Search keyword"
// @Success      200  {object}  envelope{data=[]domain.APIToken}
// @Router       /api/token/search [get]
func (h *TokenHandler) SearchTokens(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	page, pageSize := pageParams(c)
	result, err := h.tokens.Search(c.Request().Context(), p.ID, c.QueryParam("keyword"), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okPage("", result.Items, result.Total))
}

// GetToken returns one of the caller's tokens by id.
//
// @Summary      Get API token
// @Tags         token
// @Produce      json
// @Param        id  path  string  true  "Token id"
// @Success      200  {object}  envelope{data=domain.APIToken}
// @Router       /api/token/{id} [get]
func (h *TokenHandler) GetToken(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	token, err := h.tokens.Get(c.Request().Context(), p.ID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("", token))
}

// CreateToken creates a new API token owned by the caller. The response is
// the only place the full key is guaranteed to be shown.
//
// @Summary      Create API token
// @Tags         token
// @Accept       json
// @Produce      json
// @Param        body  body      createTokenRequest  true  "Token configuration"
// @Success      200   {object}  envelope{data=domain.APIToken}
// @Router       /api/token [post]
func (h *TokenHandler) CreateToken(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.tokens.Create(c.Request().Context(), p.ID, ports.CreateTokenInput{
		Name:           req.Name,
		RemainQuota:    req.RemainQuota,
		UnlimitedQuota: req.UnlimitedQuota,
	})
	if err != nil {
		return err
	}
	metrics.APITokenOpsTotal.WithLabelValues("create").Inc()
	return c.JSON(http.StatusOK, ok("token created", token))
}

// UpdateToken updates one of the caller's tokens (name, status, quota).
//
// @Summary      Update API token
// @Tags         token
// @Accept       json
// @Produce      json
// @Param        body  body      updateTokenRequest  true  "Updated token"
// @Success      200   {object}  envelope{data=domain.APIToken}
// @Router       /api/token [put]
func (h *TokenHandler) UpdateToken(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.tokens.Update(c.Request().Context(), p.ID, ports.UpdateTokenInput{
		ID:             req.ID,
		Name:           req.Name,
		Status:         req.Status,
		RemainQuota:    req.RemainQuota,
		UnlimitedQuota: req.UnlimitedQuota,
	})
	if err != nil {
		return err
	}
	metrics.APITokenOpsTotal.WithLabelValues("update").Inc()
	return c.JSON(http.StatusOK, ok("update successful", token))
}

// DeleteToken removes one of the caller's tokens.
//
// @Summary      Delete API token
// @Tags         token
// @Produce      json
// @Param        id  path  string  true  "Token id"
// @Success      200  {object}  envelope
// @Router       /api/token/{id} [delete]
func (h *TokenHandler) DeleteToken(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.tokens.Delete(c.Request().Context(), p.ID, c.Param("id")); err != nil {
		return err
	}
	metrics.APITokenOpsTotal.WithLabelValues("delete").Inc()
	return c.JSON(http.StatusOK, ok("token deleted", nil))
}
