package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"savora-system/internal/database/models"
	"savora-system/internal/services/inventory"
)

type InventoryHTTPHandler struct {
	inventory *inventory.Service
}

func NewInventoryHTTPHandler(inv *inventory.Service) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{inventory: inv}
}

type StockTransactionRequest struct {
	MaterialID    int64   `json:"material_id" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	Quantity      string  `json:"quantity" binding:"required"`
	UnitCost      *string `json:"unit_cost,omitempty"`
	ReferenceType string  `json:"reference_type" binding:"required"`
	ReferenceID   *int64  `json:"reference_id,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type CreateMaterialRequest struct {
	RestaurantID int64  `json:"restaurant_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Unit         string `json:"unit" binding:"required"`
	MinimumStock string `json:"minimum_stock,omitempty"`
	MaximumStock string `json:"maximum_stock,omitempty"`
	ReorderLevel string `json:"reorder_level,omitempty"`
}

type UpdateMaterialRequest struct {
	Name         *string `json:"name,omitempty"`
	Unit         *string `json:"unit,omitempty"`
	MinimumStock *string `json:"minimum_stock,omitempty"`
	MaximumStock *string `json:"maximum_stock,omitempty"`
	ReorderLevel *string `json:"reorder_level,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type ListMaterialsQuery struct {
	RestaurantID int64 `form:"restaurant_id" binding:"required"`
	LowStockOnly bool  `form:"low_stock_only,omitempty"`
	Page         int   `form:"page,default=1"`
	PageSize     int   `form:"page_size,default=50"`
}

type ListTransactionsQuery struct {
	MaterialID *int64  `form:"material_id,omitempty"`
	Type       *string `form:"type,omitempty"`
	StartDate  string  `form:"start_date,omitempty"`
	EndDate    string  `form:"end_date,omitempty"`
	Page       int     `form:"page,default=1"`
	PageSize   int     `form:"page_size,default=50"`
}

type ListAlertsQuery struct {
	MaterialID     *int64 `form:"material_id,omitempty"`
	UnresolvedOnly bool   `form:"unresolved_only,omitempty"`
}

func (h *InventoryHTTPHandler) RecordTransaction(c *gin.Context) {
	var req StockTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid quantity"))
		return
	}

	var unitCost *decimal.Decimal
	if req.UnitCost != nil {
		cost, err := decimal.NewFromString(*req.UnitCost)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid unit cost"))
			return
		}
		unitCost = &cost
	}

	entry, err := h.inventory.RecordTransaction(c.Request.Context(), inventory.TransactionInput{
		MaterialID:    req.MaterialID,
		Type:          models.StockTransactionType(req.Type),
		Quantity:      quantity,
		UnitCost:      unitCost,
		ReferenceType: models.StockReferenceType(req.ReferenceType),
		ReferenceID:   req.ReferenceID,
		Notes:         req.Notes,
		CreatedBy:     callerID(c),
	})
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Stock transaction recorded successfully", entry))
}

func (h *InventoryHTTPHandler) ListTransactions(c *gin.Context) {
	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	filter := inventory.TransactionFilter{
		MaterialID: query.MaterialID,
		StartDate:  query.StartDate,
		EndDate:    query.EndDate,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	if query.Type != nil {
		txType := models.StockTransactionType(*query.Type)
		filter.Type = &txType
	}

	transactions, total, err := h.inventory.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Stock transactions retrieved successfully",
		transactions, paginationMeta(query.Page, query.PageSize, total)))
}

func (h *InventoryHTTPHandler) CreateMaterial(c *gin.Context) {
	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	minStock, err := parseOptionalAmount(req.MinimumStock)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid minimum stock"))
		return
	}
	maxStock, err := parseOptionalAmount(req.MaximumStock)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid maximum stock"))
		return
	}
	reorderLevel, err := parseOptionalAmount(req.ReorderLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid reorder level"))
		return
	}

	material, err := h.inventory.CreateMaterial(c.Request.Context(), inventory.MaterialInput{
		RestaurantID: req.RestaurantID,
		Name:         req.Name,
		Unit:         req.Unit,
		MinimumStock: minStock,
		MaximumStock: maxStock,
		ReorderLevel: reorderLevel,
	})
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Material created successfully", material))
}

func (h *InventoryHTTPHandler) UpdateMaterial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid material ID"))
		return
	}

	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	update := inventory.MaterialUpdate{
		Name:     req.Name,
		Unit:     req.Unit,
		IsActive: req.IsActive,
	}
	if req.MinimumStock != nil {
		v, err := decimal.NewFromString(*req.MinimumStock)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid minimum stock"))
			return
		}
		update.MinimumStock = &v
	}
	if req.MaximumStock != nil {
		v, err := decimal.NewFromString(*req.MaximumStock)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid maximum stock"))
			return
		}
		update.MaximumStock = &v
	}
	if req.ReorderLevel != nil {
		v, err := decimal.NewFromString(*req.ReorderLevel)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid reorder level"))
			return
		}
		update.ReorderLevel = &v
	}

	material, err := h.inventory.UpdateMaterial(c.Request.Context(), id, update)
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Material updated successfully", material))
}

func (h *InventoryHTTPHandler) GetMaterial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid material ID"))
		return
	}

	material, err := h.inventory.GetMaterial(c.Request.Context(), id)
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Material retrieved successfully", material))
}

func (h *InventoryHTTPHandler) ListMaterials(c *gin.Context) {
	var query ListMaterialsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	materials, total, err := h.inventory.ListMaterials(c.Request.Context(), inventory.MaterialFilter{
		RestaurantID: query.RestaurantID,
		LowStockOnly: query.LowStockOnly,
		Page:         query.Page,
		PageSize:     query.PageSize,
	})
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Materials retrieved successfully",
		materials, paginationMeta(query.Page, query.PageSize, total)))
}

func (h *InventoryHTTPHandler) ListAlerts(c *gin.Context) {
	var query ListAlertsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	alerts, err := h.inventory.ListAlerts(c.Request.Context(), inventory.AlertFilter{
		MaterialID:     query.MaterialID,
		UnresolvedOnly: query.UnresolvedOnly,
	})
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Alerts retrieved successfully", alerts))
}

func (h *InventoryHTTPHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid alert ID"))
		return
	}

	alert, err := h.inventory.ResolveAlert(c.Request.Context(), id, callerID(c))
	if err != nil {
		h.writeInventoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Alert resolved successfully", alert))
}

func (h *InventoryHTTPHandler) writeInventoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrMaterialNotFound),
		errors.Is(err, inventory.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrAlertResolved),
		errors.Is(err, inventory.ErrDuplicateMaterial):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidType),
		errors.Is(err, inventory.ErrUnitCostRequired):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}
