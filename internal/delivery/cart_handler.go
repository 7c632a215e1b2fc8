package delivery

import (
	"net/http"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	store domain.CartStore
	log   *logrus.Logger
}

func NewCartHandler(store domain.CartStore, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		store: store,
		log:   logger,
	}
}

func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("/items", h.AddItem)
		cart.PATCH("/items/:id", h.UpdateItem)
		cart.DELETE("/items/:id", h.RemoveItem)
	}
}

// cartView is what the cart page and the navbar badge render.
type cartView struct {
	Items        []domain.CartLine `json:"items"`
	Count        int               `json:"count"`
	Total        float64           `json:"total"`
	Error        string            `json:"error,omitempty"`
	Unauthorized bool              `json:"unauthorized,omitempty"`
}

func (h *CartHandler) view() cartView {
	v := cartView{
		Items: h.store.Cart(),
		Count: h.store.Count(),
		Total: h.store.Total(),
	}
	if err := h.store.LoadError(); err != nil {
		v.Error = err.Error()
		v.Unauthorized = domain.IsUnauthorized(err)
	}
	return v
}

// GetCart reloads the cart. A failed fetch still answers 200 with the empty
// fallback cart and the failure in the error field.
func (h *CartHandler) GetCart(c *gin.Context) {
	if err := h.store.Load(c.Request.Context()); err != nil {
		h.log.WithField("handler", "GetCart").Warnf("Cart load failed: %v", err)
		SuccessResponse(c, http.StatusOK, "Cart could not be loaded", h.view())
		return
	}
	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", h.view())
}

type addItemRequest struct {
	ID       string  `json:"id" binding:"required"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price" binding:"gte=0"`
	Stock    int     `json:"stock" binding:"gte=0"`
	Quantity int     `json:"quantity" binding:"gte=0"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for add to cart: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	line := domain.CartLine{
		ID:       req.ID,
		Name:     req.Name,
		Image:    req.Image,
		Price:    req.Price,
		Quantity: req.Quantity,
		Stock:    req.Stock,
	}
	if err := h.store.AddItem(c.Request.Context(), line); err != nil {
		h.log.Errorf("Failed to add item %s to cart: %v", req.ID, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to add to cart: "+err.Error())
		return
	}

	h.log.Infof("Item %s added to cart", req.ID)
	SuccessResponse(c, http.StatusOK, "Added to cart", h.view())
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	id := c.Param("id")
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for cart update of %s: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.store.UpdateItem(c.Request.Context(), id, req.Quantity); err != nil {
		h.log.Warnf("Failed to update cart item %s: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to update cart: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart updated", h.view())
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.RemoveItem(c.Request.Context(), id); err != nil {
		h.log.Warnf("Failed to remove cart item %s: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to remove item: "+err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "Item removed", h.view())
}
