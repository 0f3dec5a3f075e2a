package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/wishlist のHTTP
type WishlistHandler struct {
	uc *usecase.WishlistUsecase
}

// DI
func NewWishlistHandler(uc *usecase.WishlistUsecase) *WishlistHandler {
	return &WishlistHandler{uc: uc}
}

// 型チェックはusecaseでやるのでanyで受ける
type CreateWishlistRequest struct {
	UserID    any `json:"userId"`
	ProductID any `json:"productId"`
}

// /api/wishlist 以下を登録
func (h *WishlistHandler) RegisterRoutes(g *echo.Group) {
	w := g.Group("/wishlist")

	w.GET("", h.listAll)
	w.POST("", h.create)
	w.GET("/:userId", h.listByUser)
	w.GET("/:userId/:productId", h.getOne)
	w.DELETE("/:userId/:productId", h.delete)
}

func (h *WishlistHandler) listAll(c echo.Context) error {
	out, err := h.uc.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) listByUser(c echo.Context) error {
	out, err := h.uc.ListByUser(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) getOne(c echo.Context) error {
	row, found, err := h.uc.GetOne(c.Request().Context(), c.Param("userId"), c.Param("productId"))
	if err != nil {
		return writeError(c, err)
	}
	// 無いのは正常系
	if !found {
		return c.JSON(http.StatusNotFound, MessageResponse{Message: usecase.MsgAbsentOnLookup})
	}
	return c.JSON(http.StatusOK, row)
}

func (h *WishlistHandler) create(c echo.Context) error {
	var req CreateWishlistRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateWishlistInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
	})
	if err != nil {
		return writeError(c, err)
	}

	// 新規201、既存200
	if out.Created {
		return c.JSON(http.StatusCreated, out)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) delete(c echo.Context) error {
	if err := h.uc.Delete(c.Request().Context(), c.Param("userId"), c.Param("productId")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: usecase.MsgRemoved})
}
