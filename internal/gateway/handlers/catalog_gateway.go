package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"savora-system/internal/services/catalog"
)

type CatalogHTTPHandler struct {
	catalog *catalog.Service
}

func NewCatalogHTTPHandler(cat *catalog.Service) *CatalogHTTPHandler {
	return &CatalogHTTPHandler{catalog: cat}
}

type CreateMenuItemRequest struct {
	RestaurantID int64   `json:"restaurant_id" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Price        string  `json:"price" binding:"required"`
	PrepMinutes  *int32  `json:"prep_minutes,omitempty"`
	IsAvailable  *bool   `json:"is_available,omitempty"`
}

type UpdateMenuItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *string `json:"price,omitempty"`
	PrepMinutes *int32  `json:"prep_minutes,omitempty"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

type ListMenuItemsQuery struct {
	RestaurantID  int64   `form:"restaurant_id" binding:"required"`
	Category      *string `form:"category,omitempty"`
	AvailableOnly bool    `form:"available_only,omitempty"`
	Search        string  `form:"search,omitempty"`
	Page          int     `form:"page,default=1"`
	PageSize      int     `form:"page_size,default=50"`
}

func (h *CatalogHTTPHandler) Create(c *gin.Context) {
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid price"))
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.catalog.CreateMenuItem(c.Request.Context(), catalog.MenuItemInput{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        price,
		PrepMinutes:  req.PrepMinutes,
		IsAvailable:  available,
	})
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Menu item created successfully", item))
}

func (h *CatalogHTTPHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid menu item ID"))
		return
	}

	var req UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	update := catalog.MenuItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PrepMinutes: req.PrepMinutes,
		IsAvailable: req.IsAvailable,
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid price"))
			return
		}
		update.Price = &price
	}

	item, err := h.catalog.UpdateMenuItem(c.Request.Context(), id, update)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Menu item updated successfully", item))
}

func (h *CatalogHTTPHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid menu item ID"))
		return
	}

	item, err := h.catalog.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Menu item retrieved successfully", item))
}

func (h *CatalogHTTPHandler) List(c *gin.Context) {
	var query ListMenuItemsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	items, total, err := h.catalog.ListMenuItems(c.Request.Context(), catalog.ListFilter{
		RestaurantID:  query.RestaurantID,
		Category:      query.Category,
		AvailableOnly: query.AvailableOnly,
		Search:        query.Search,
		Page:          query.Page,
		PageSize:      query.PageSize,
	})
	if err != nil {
		h.writeCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Menu items retrieved successfully",
		items, paginationMeta(query.Page, query.PageSize, total)))
}

func (h *CatalogHTTPHandler) writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrMenuItemNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrNameRequired):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}
