package handlers

import (
	"errors"
	"net/http"

	"bambite_gateway/internal/cart"
	"bambite_gateway/internal/domain"
	"bambite_gateway/internal/middleware"
	"bambite_gateway/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	carts   *cart.Registry
	catalog usecase.CatalogUseCase
	log     *logrus.Logger
}

func NewCartHandler(carts *cart.Registry, catalog usecase.CatalogUseCase, logger *logrus.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, log: logger}
}

// AddItemRequest adds one product. A quantity above one follows the product
// card's bulk add, which leaves the drawer closed.
type AddItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"omitempty,gte=1,lte=99"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *CartHandler) store(c *gin.Context) *cart.Store {
	return h.carts.For(middleware.GetSessionID(c))
}

func (h *CartHandler) Get(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "", h.carts.Snapshot(middleware.GetSessionID(c)))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	handlerLogger := h.log.WithField("handler", "AddCartItem")
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, handlerLogger, err)
		return
	}

	product, err := h.catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		writeAPIError(c, handlerLogger, err)
		return
	}
	if product == nil {
		writeNotFound(c, "Product not found", menuBackLink, 0)
		return
	}

	store := h.store(c)
	if req.Quantity > 1 {
		batch := make([]domain.Product, req.Quantity)
		for i := range batch {
			batch[i] = *product
		}
		store.AddItems(batch...)
	} else {
		store.AddItem(*product)
	}
	handlerLogger.Infof("Added product %s (x%d) to cart", product.ID, max(req.Quantity, 1))
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) SetQuantity(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "SetCartQuantity", "product_id": c.Param("id")})
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadRequest(c, handlerLogger, err)
		return
	}

	store := h.store(c)
	if err := store.SetQuantity(c.Param("id"), req.Quantity); err != nil {
		h.writeCartError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	handlerLogger := h.log.WithFields(logrus.Fields{"handler": "RemoveCartItem", "product_id": c.Param("id")})
	store := h.store(c)
	if err := store.RemoveItem(c.Param("id")); err != nil {
		h.writeCartError(c, handlerLogger, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) Clear(c *gin.Context) {
	store := h.store(c)
	store.Clear()
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) Open(c *gin.Context) {
	store := h.store(c)
	store.OpenCart()
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) Close(c *gin.Context) {
	store := h.store(c)
	store.CloseCart()
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) Toggle(c *gin.Context) {
	store := h.store(c)
	store.ToggleCart()
	SuccessResponse(c, http.StatusOK, "", store.Snapshot())
}

func (h *CartHandler) writeCartError(c *gin.Context, logger logrus.FieldLogger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity):
		status = http.StatusBadRequest
	}
	logger.Warnf("Cart operation failed with HTTP Status %d: %v", status, err)
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
