package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MikeLinPlan/account-system/internal/api/metrics"
	"github.com/MikeLinPlan/account-system/internal/api/middleware"
	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

// UserHandler covers self-service profile operations and the administrative
// user console.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateSelfRequest struct {
	Username    string `json:"username" validate:"omitempty,max=30"`
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"omitempty,email,max=50"`
	Password    string `json:"password" validate:"omitempty,min=8,max=72"`
}

type createUserRequest struct {
	Username    string `json:"username" validate:"required,max=30"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"omitempty,email,max=50"`
	Role        int    `json:"role"`
	Status      int    `json:"status"`
}

type updateUserRequest struct {
	ID          string `json:"id" validate:"required"`
	Username    string `json:"username" validate:"omitempty,max=30"`
	DisplayName string `json:"display_name" validate:"omitempty,max=50"`
	Email       string `json:"email" validate:"omitempty,email,max=50"`
	Password    string `json:"password" validate:"omitempty,min=8,max=72"`
	Role        int    `json:"role"`
	Status      int    `json:"status"`
}

// GetSelf returns the authenticated user's own record, access token included.
//
// @Summary      Current user
// @Tags         user
// @Produce      json
// @Success      200  {object}  envelope{data=domain.User}
// @Failure      401  {object}  envelope
// @Router       /api/user/self [get]
func (h *UserHandler) GetSelf(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetSelf(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("", user))
}

// UpdateSelf applies a partial profile update to the authenticated user.
//
// @Summary      Update current user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      updateSelfRequest  true  "Fields to update"
// @Success      200   {object}  envelope
// @Router       /api/user/self [put]
func (h *UserHandler) UpdateSelf(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateSelfRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.UpdateSelf(c.Request().Context(), p.ID, domain.UserUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("update successful", user))
}

// DeleteSelf removes the authenticated user's own account and ends the session.
//
// @Summary      Delete current user
// @Tags         user
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/user/self [delete]
func (h *UserHandler) DeleteSelf(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.users.DeleteSelf(c.Request().Context(), p.ID); err != nil {
		return err
	}
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, ok("account deleted", nil))
}

// GenerateAccessToken mints a fresh personal access token, replacing any
// prior one.
//
// @Summary      Generate personal access token
// @Tags         user
// @Produce      json
// @Success      200  {object}  envelope{data=string}
// @Router       /api/user/token [get]
func (h *UserHandler) GenerateAccessToken(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	token, err := h.users.GenerateAccessToken(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	metrics.AccessTokensGeneratedTotal.Inc()
	return c.JSON(http.StatusOK, ok("token generated", token))
}

// ListUsers returns a page of users. Admin only.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Param        page       query  int  false  "Page number"
// @Param        page_size  query  int  false  "Page size"
// @Success      200  {object}  envelope{data=[]domain.User}
// @Router       /api/user [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	page, pageSize := pageParams(c)
	result, err := h.users.ListUsers(c.Request().Context(), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okPage("", result.Items, result.Total))
}

// SearchUsers returns a page of users matching ?keyword. Admin only.
//
// @Summary      Search users
// @Tags         admin
// @Produce      json
// @Param        keyword  query  string  false  "Search keyword"
// @Success      200  {object}  envelope{data=[]domain.User}
// @Router       /api/user/search [get]
func (h *UserHandler) SearchUsers(c echo.Context) error {
	page, pageSize := pageParams(c)
	result, err := h.users.SearchUsers(c.Request().Context(), c.QueryParam("keyword"), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okPage("", result.Items, result.Total))
}

// GetUser returns a single user by id. Admin only.
//
// @Summary      Get user
// @Tags         admin
// @Produce      json
// @Param        id  path  string  true  "User id"
// @Success      200  {object}  envelope{data=domain.User}
// @Router       /api/user/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("", user))
}

// CreateUser creates an account on behalf of an administrator. The granted
// role is bounded by the caller's own.
//
// @Summary      Create user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      200   {object}  envelope
// @Router       /api/user [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Role == 0 {
		req.Role = domain.RoleCommon
	}

	user, err := h.users.CreateUser(c.Request().Context(), p.Role, ports.CreateUserInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Role:        req.Role,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("user created", user))
}

// UpdateUser applies an administrative update to another user.
//
// @Summary      Update user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Updated user"
// @Success      200   {object}  envelope
// @Router       /api/user [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.users.UpdateUser(c.Request().Context(), p.Role, ports.AdminUpdateInput{
		ID:          req.ID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}

	user, err := h.users.GetUser(c.Request().Context(), req.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("update successful", user))
}

// DeleteUser removes another user. Admin only, bounded by role hierarchy.
//
// @Summary      Delete user
// @Tags         admin
// @Produce      json
// @Param        id  path  string  true  "User id"
// @Success      200  {object}  envelope
// @Router       /api/user/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.users.DeleteUser(c.Request().Context(), p.Role, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("user deleted", nil))
}
