package delivery

import (
	"net/http"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CatalogHandler struct {
	useCase domain.CatalogUseCase
	log     *logrus.Logger
}

func NewCatalogHandler(uc domain.CatalogUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *CatalogHandler) RegisterRoutes(router gin.IRouter) {
	items := router.Group("/items")
	{
		items.GET("", h.ListItems)
		items.GET("/categories", h.ListCategories)
		items.GET("/:id", h.GetItem)
	}
}

func (h *CatalogHandler) ListItems(c *gin.Context) {
	var query domain.ItemQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.log.Warnf("Invalid item query parameters: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid query parameters: "+err.Error())
		return
	}

	page, err := h.useCase.ListItems(c.Request.Context(), query)
	if err != nil {
		ErrorResponse(c, mapErrorToStatus(err), "Failed to list items: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Items retrieved successfully", page)
}

func (h *CatalogHandler) GetItem(c *gin.Context) {
	item, err := h.useCase.GetItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve item: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Item retrieved successfully", item)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.useCase.ListCategories(c.Request.Context())
	if err != nil {
		ErrorResponse(c, mapErrorToStatus(err), "Failed to list categories: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}
