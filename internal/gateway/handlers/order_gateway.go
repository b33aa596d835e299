package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"savora-system/internal/database/models"
	"savora-system/internal/services/order"
)

type OrderHTTPHandler struct {
	orders *order.Service
}

func NewOrderHTTPHandler(orders *order.Service) *OrderHTTPHandler {
	return &OrderHTTPHandler{orders: orders}
}

type OrderLineRequest struct {
	MenuItemID          int64   `json:"menu_item_id" binding:"required"`
	Quantity            int32   `json:"quantity" binding:"required"`
	SpecialInstructions *string `json:"special_instructions,omitempty"`
}

type CreateOrderRequest struct {
	RestaurantID        int64              `json:"restaurant_id" binding:"required"`
	CustomerID          *int64             `json:"customer_id,omitempty"`
	TableID             *int64             `json:"table_id,omitempty"`
	WaiterID            *int64             `json:"waiter_id,omitempty"`
	OrderType           string             `json:"order_type" binding:"required"`
	Items               []OrderLineRequest `json:"items" binding:"required"`
	Discount            string             `json:"discount,omitempty"`
	DeliveryFee         string             `json:"delivery_fee,omitempty"`
	SpecialInstructions *string            `json:"special_instructions,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ProcessPaymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
	PaidAmount    string `json:"paid_amount" binding:"required"`
}

type ListOrdersQuery struct {
	RestaurantID int64   `form:"restaurant_id" binding:"required"`
	Status       *string `form:"status,omitempty"`
	OrderType    *string `form:"order_type,omitempty"`
	TableID      *int64  `form:"table_id,omitempty"`
	StartDate    string  `form:"start_date,omitempty"`
	EndDate      string  `form:"end_date,omitempty"`
	Page         int     `form:"page,default=1"`
	PageSize     int     `form:"page_size,default=20"`
}

func (h *OrderHTTPHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	discount, err := parseOptionalAmount(req.Discount)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid discount amount"))
		return
	}
	deliveryFee, err := parseOptionalAmount(req.DeliveryFee)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid delivery fee amount"))
		return
	}

	items := make([]order.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.LineInput{
			MenuItemID:          item.MenuItemID,
			Quantity:            item.Quantity,
			SpecialInstructions: item.SpecialInstructions,
		})
	}

	created, err := h.orders.Create(c.Request.Context(), order.CreateInput{
		RestaurantID:        req.RestaurantID,
		CustomerID:          req.CustomerID,
		TableID:             req.TableID,
		WaiterID:            req.WaiterID,
		OrderType:           models.OrderType(req.OrderType),
		Items:               items,
		Discount:            discount,
		DeliveryFee:         deliveryFee,
		SpecialInstructions: req.SpecialInstructions,
		CreatedBy:           callerID(c),
	})
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse("Order created successfully", created))
}

func (h *OrderHTTPHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	found, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order retrieved successfully", found))
}

func (h *OrderHTTPHandler) List(c *gin.Context) {
	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	filter := order.ListFilter{
		RestaurantID: query.RestaurantID,
		TableID:      query.TableID,
		StartDate:    query.StartDate,
		EndDate:      query.EndDate,
		Page:         query.Page,
		PageSize:     query.PageSize,
	}
	if query.Status != nil {
		status := models.OrderStatus(*query.Status)
		filter.Status = &status
	}
	if query.OrderType != nil {
		orderType := models.OrderType(*query.OrderType)
		filter.OrderType = &orderType
	}

	orders, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Orders retrieved successfully",
		orders, paginationMeta(query.Page, query.PageSize, total)))
}

func (h *OrderHTTPHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	updated, err := h.orders.UpdateStatus(c.Request.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Order status updated successfully", updated))
}

func (h *OrderHTTPHandler) ProcessPayment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid order ID"))
		return
	}

	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	paidAmount, err := decimal.NewFromString(req.PaidAmount)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid paid amount"))
		return
	}

	paid, change, err := h.orders.ProcessPayment(c.Request.Context(), id, req.PaymentMethod, paidAmount)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse("Payment processed successfully", gin.H{
		"order":  paid,
		"change": change,
	}))
}

func (h *OrderHTTPHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, order.ErrMenuItemNotFound),
		errors.Is(err, order.ErrTableNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, order.ErrTableUnavailable),
		errors.Is(err, order.ErrOrderClosed),
		errors.Is(err, order.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidOrderType),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrNegativeAmount),
		errors.Is(err, order.ErrPaymentMethod),
		errors.Is(err, order.ErrInsufficientPayment):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, errorResponse("Internal server error"))
	}
}

func parseOptionalAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
