package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/MikeLinPlan/account-system/internal/api/metrics"
	"github.com/MikeLinPlan/account-system/internal/api/middleware"
	"github.com/MikeLinPlan/account-system/internal/core/domain"
	"github.com/MikeLinPlan/account-system/internal/core/ports"
)

// AuthHandler covers registration, login and logout.
type AuthHandler struct {
	users         ports.UserService
	sessionSecret string
}

func NewAuthHandler(users ports.UserService, sessionSecret string) *AuthHandler {
	return &AuthHandler{users: users, sessionSecret: sessionSecret}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Email    string `json:"email" validate:"omitempty,email,max=50"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      200   {object}  envelope
// @Router       /api/user/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	_, err := h.users.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, ok("registration successful", nil))
}

// Login authenticates a user and establishes a session cookie.
//
// @Summary      Login
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  envelope{data=domain.User}
// @Failure      401   {object}  envelope
// @Router       /api/user/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		switch err {
		case domain.ErrInvalidCredentials:
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		case domain.ErrUserDisabled:
			metrics.LoginsTotal.WithLabelValues("disabled").Inc()
		}
		return err
	}

	err = middleware.IssueSessionCookie(c, h.sessionSecret, &middleware.Principal{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Status:   user.Status,
	})
	if err != nil {
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	// The login response is the one place the caller learns its own access
	// token, so the identity is returned unsanitized minus the password hash.
	return c.JSON(http.StatusOK, ok("login successful", user))
}

// Logout clears the session cookie. Always succeeds.
//
// @Summary      Logout
// @Tags         user
// @Produce      json
// @Success      200  {object}  envelope
// @Router       /api/user/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	middleware.ClearSessionCookie(c)
	return c.JSON(http.StatusOK, ok("logout successful", nil))
}
