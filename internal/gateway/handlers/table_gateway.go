package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"savora-system/internal/database/models"
	"savora-system/internal/services/table"
)

type TableHTTPHandler struct {
	tables *table.Service
}

func NewTableHTTPHandler(tables *table.Service) *TableHTTPHandler {
	return &TableHTTPHandler{tables: tables}
}

type CreateTableRequest struct {
	RestaurantID int64   `json:"restaurant_id" binding:"required"`
	TableNumber  int32   `json:"table_number" binding:"required"`
	Capacity     int32   `json:"capacity" binding:"required"`
	Location     *string `json:"location,omitempty"`
}

type UpdateTableStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListTablesQuery struct {
	RestaurantID int64   `form:"restaurant_id" binding:"required"`
	Status       *string `form:"status,omitempty"`
}

func (h *TableHTTPHandler) Create(c *gin.Context) {
	var req CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	created, err := h.tables.Create(c.Request.Context(), table.CreateInput{
		RestaurantID: req.RestaurantID,
		TableNumber:  req.TableNumber,
		Capacity:     req.Capacity,
		Location:     req.Location,
	})
	if err != nil {
		h.writeTableError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Table created successfully", created))
}

func (h *TableHTTPHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid table ID"))
		return
	}

	var req UpdateTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	updated, err := h.tables.UpdateStatus(c.Request.Context(), id, models.TableStatus(req.Status))
	if err != nil {
		h.writeTableError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Table status updated successfully", updated))
}

func (h *TableHTTPHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid table ID"))
		return
	}

	found, err := h.tables.Get(c.Request.Context(), id)
	if err != nil {
		h.writeTableError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Table retrieved successfully", found))
}

func (h *TableHTTPHandler) List(c *gin.Context) {
	var query ListTablesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	filter := table.ListFilter{RestaurantID: query.RestaurantID}
	if query.Status != nil {
		status := models.TableStatus(*query.Status)
		filter.Status = &status
	}

	tables, err := h.tables.List(c.Request.Context(), filter)
	if err != nil {
		h.writeTableError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Tables retrieved successfully", tables))
}

func (h *TableHTTPHandler) writeTableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, table.ErrTableNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, table.ErrDuplicateTableNumber):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, table.ErrInvalidTableStatus),
		errors.Is(err, table.ErrInvalidCapacity):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}
