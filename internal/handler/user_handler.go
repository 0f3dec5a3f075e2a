package handler

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/users のHTTP（メールからID解決だけ）
type UserHandler struct {
	uc *usecase.UserUsecase
}

// DI
func NewUserHandler(uc *usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

// セッション必須で登録
func (h *UserHandler) RegisterRoutes(g *echo.Group, sessionSecret string) {
	u := g.Group("/users")
	u.Use(middleware.RequireSession(sessionSecret))

	u.GET("/email/:email", h.findByEmail)
}

func (h *UserHandler) findByEmail(c echo.Context) error {
	sessionEmail, ok := middleware.SessionEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	// 自分のemail以外は引けない
	email := c.Param("email")
	if usecase.NormalizeEmail(email) != usecase.NormalizeEmail(sessionEmail) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
	}

	out, err := h.uc.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
