package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/prospermbuma/acquisitions/internal/core/domain"
	"github.com/prospermbuma/acquisitions/internal/core/ports"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

type userListResponse struct {
	Users   []domain.PublicUser `json:"users"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"perPage"`
}

// List pages through all accounts. Admin only.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        page     query     int  false  "Page number, starting at 1"
// @Param        perPage  query     int  false  "Page size (max 100)"
// @Success      200      {object}  userListResponse
// @Failure      401      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Router       /api/v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	perPage := defaultPerPage
	if v, err := strconv.Atoi(c.QueryParam("perPage")); err == nil && v > 0 && v <= maxPerPage {
		perPage = v
	}
	page := 1
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 1 {
		page = v
	}

	users, err := h.authService.ListUsers(c.Request().Context(), perPage, (page-1)*perPage)
	if err != nil {
		return err
	}

	items := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		items = append(items, users[i].Public())
	}
	return c.JSON(http.StatusOK, userListResponse{Users: items, Page: page, PerPage: perPage})
}
