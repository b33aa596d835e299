package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"savora-system/config"
	"savora-system/internal/database"
	"savora-system/internal/database/models"
	"savora-system/internal/events"
)

var (
	ErrEmptyItems          = errors.New("order must have at least one item")
	ErrInvalidQuantity     = errors.New("quantity must be greater than 0")
	ErrInvalidOrderType    = errors.New("unrecognized order type")
	ErrNegativeAmount      = errors.New("monetary amounts must be non-negative")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrTableUnavailable    = errors.New("table is not available")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidStatus       = errors.New("unrecognized order status")
	ErrOrderClosed         = errors.New("order is already completed or cancelled")
	ErrAlreadyPaid         = errors.New("order is already paid")
	ErrPaymentMethod       = errors.New("payment method required")
	ErrInsufficientPayment = errors.New("paid amount is less than order total")
)

type Service struct {
	db        *gorm.DB
	publisher events.Publisher
	cfg       config.OrderConfig
}

func NewService(db *gorm.DB, publisher events.Publisher, cfg config.OrderConfig) *Service {
	return &Service{
		db:        db,
		publisher: publisher,
		cfg:       cfg,
	}
}

type LineInput struct {
	MenuItemID          int64
	Quantity            int32
	SpecialInstructions *string
}

type CreateInput struct {
	RestaurantID        int64
	CustomerID          *int64
	TableID             *int64
	WaiterID            *int64
	OrderType           models.OrderType
	Items               []LineInput
	Discount            decimal.Decimal
	DeliveryFee         decimal.Decimal
	SpecialInstructions *string
	CreatedBy           int64
}

// Create persists an order with its lines and kitchen ticket, and flips the
// table to occupied for dine-in orders. Everything happens in one database
// transaction: a failure at any step leaves no order, line, ticket or table
// change behind.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	var order models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.fetchMenuItems(tx, input.RestaurantID, input.Items)
		if err != nil {
			return err
		}

		now := time.Now()
		subtotal := decimal.Zero
		for _, line := range input.Items {
			item := items[line.MenuItemID]
			subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt32(line.Quantity)))
		}

		tax := subtotal.Mul(s.cfg.TaxRate).Round(2)
		total := subtotal.Add(tax).Sub(input.Discount).Add(input.DeliveryFee)
		if total.IsNegative() {
			return fmt.Errorf("%w: discount exceeds order value", ErrNegativeAmount)
		}

		orderNumber, err := s.nextOrderNumber(tx, input.RestaurantID, now)
		if err != nil {
			return err
		}

		order = models.Order{
			OrderNumber:         orderNumber,
			RestaurantID:        input.RestaurantID,
			CustomerID:          input.CustomerID,
			TableID:             input.TableID,
			WaiterID:            input.WaiterID,
			OrderType:           input.OrderType,
			Status:              models.OrderStatusPending,
			Subtotal:            subtotal,
			Tax:                 tax,
			Discount:            input.Discount,
			DeliveryFee:         input.DeliveryFee,
			Total:               total,
			PaymentStatus:       models.PaymentStatusUnpaid,
			SpecialInstructions: input.SpecialInstructions,
			CreatedBy:           input.CreatedBy,
		}

		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		estimatedMinutes := int32(0)
		for _, line := range input.Items {
			item := items[line.MenuItemID]
			orderLine := models.OrderLine{
				OrderID:             order.ID,
				MenuItemID:          item.ID,
				ItemName:            item.Name,
				UnitPrice:           item.Price,
				Quantity:            line.Quantity,
				LineTotal:           item.Price.Mul(decimal.NewFromInt32(line.Quantity)),
				Status:              models.OrderStatusPending,
				SpecialInstructions: line.SpecialInstructions,
			}
			if err := tx.Create(&orderLine).Error; err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}

			prepMinutes := int32(s.cfg.DefaultPrepMinutes)
			if item.PrepMinutes != nil {
				prepMinutes = *item.PrepMinutes
			}
			estimatedMinutes += prepMinutes * line.Quantity
		}

		ticketNumber, err := s.nextTicketNumber(tx, input.RestaurantID, now)
		if err != nil {
			return err
		}

		ticket := models.KitchenTicket{
			OrderID:          order.ID,
			RestaurantID:     input.RestaurantID,
			TicketNumber:     ticketNumber,
			Status:           models.TicketStatusPending,
			EstimatedMinutes: estimatedMinutes,
		}
		if err := tx.Create(&ticket).Error; err != nil {
			return fmt.Errorf("failed to create kitchen ticket: %w", err)
		}

		if input.OrderType == models.OrderTypeDineIn && input.TableID != nil {
			if err := s.occupyTable(tx, input.RestaurantID, *input.TableID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).
		Preload("Lines").
		Preload("Ticket").
		First(&order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	event := events.OrderEvent{
		EventType:    events.EventOrderCreated,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Total:        order.Total,
		Timestamp:    time.Now(),
	}
	s.publisher.Publish(ctx, events.RestaurantFeed(order.RestaurantID), event)
	s.publisher.Publish(ctx, events.KitchenFeed(order.RestaurantID), event)

	return &order, nil
}

// UpdateStatus moves an order to the target status. Transitions are
// deliberately permissive: any recognized status is accepted from any
// non-terminal state, including forward skips like pending to served.
// Completion and cancellation release the order's table; cancellation also
// cancels the kitchen ticket.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, target models.OrderStatus) (*models.Order, error) {
	if !validOrderStatus(target) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	var order models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.Status.Terminal() {
			return fmt.Errorf("%w: status is %q", ErrOrderClosed, order.Status)
		}

		order.Status = target
		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		if target == models.OrderStatusCompleted || target == models.OrderStatusCancelled {
			if order.TableID != nil {
				if err := tx.Model(&models.DiningTable{}).
					Where("id = ?", *order.TableID).
					Update("status", models.TableStatusAvailable).Error; err != nil {
					return fmt.Errorf("failed to release table: %w", err)
				}
			}
		}

		if target == models.OrderStatusCancelled {
			if err := tx.Model(&models.KitchenTicket{}).
				Where("order_id = ?", order.ID).
				Update("status", models.TicketStatusCancelled).Error; err != nil {
				return fmt.Errorf("failed to cancel kitchen ticket: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	event := events.OrderEvent{
		EventType:    events.EventOrderStatusChanged,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Total:        order.Total,
		Timestamp:    time.Now(),
	}
	if order.CustomerID != nil {
		s.publisher.Publish(ctx, events.CustomerChannel(*order.CustomerID), event)
	}
	if order.WaiterID != nil {
		s.publisher.Publish(ctx, events.WaiterChannel(*order.WaiterID), event)
	}

	return &order, nil
}

// ProcessPayment marks an order paid and returns the change due.
func (s *Service) ProcessPayment(ctx context.Context, orderID int64, method string, paidAmount decimal.Decimal) (*models.Order, decimal.Decimal, error) {
	if method == "" {
		return nil, decimal.Zero, ErrPaymentMethod
	}

	var order models.Order
	change := decimal.Zero

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		if order.PaymentStatus == models.PaymentStatusPaid {
			return ErrAlreadyPaid
		}
		if paidAmount.LessThan(order.Total) {
			return fmt.Errorf("%w: total %s, paid %s", ErrInsufficientPayment, order.Total, paidAmount)
		}

		change = paidAmount.Sub(order.Total)
		order.PaymentStatus = models.PaymentStatusPaid
		order.PaymentMethod = &method

		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	s.publisher.Publish(ctx, events.RestaurantFeed(order.RestaurantID), events.OrderEvent{
		EventType:    events.EventOrderPaid,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		RestaurantID: order.RestaurantID,
		Status:       order.Status,
		Total:        order.Total,
		Timestamp:    time.Now(),
	})

	return &order, change, nil
}

func (s *Service) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).
		Preload("Lines").
		Preload("Ticket").
		First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

type ListFilter struct {
	RestaurantID int64
	Status       *models.OrderStatus
	OrderType    *models.OrderType
	TableID      *int64
	StartDate    string
	EndDate      string
	Page         int
	PageSize     int
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("restaurant_id = ?", filter.RestaurantID).
		Preload("Lines").
		Preload("Ticket")

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.OrderType != nil {
		query = query.Where("order_type = ?", *filter.OrderType)
	}
	if filter.TableID != nil {
		query = query.Where("table_id = ?", *filter.TableID)
	}
	if filter.StartDate != "" {
		if startDate, err := time.Parse("2006-01-02", filter.StartDate); err == nil {
			query = query.Where("created_at >= ?", startDate)
		}
	}
	if filter.EndDate != "" {
		if endDate, err := time.Parse("2006-01-02", filter.EndDate); err == nil {
			query = query.Where("created_at < ?", endDate.AddDate(0, 0, 1))
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func validateCreateInput(input CreateInput) error {
	if len(input.Items) == 0 {
		return ErrEmptyItems
	}
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: menu item %d", ErrInvalidQuantity, line.MenuItemID)
		}
	}
	switch input.OrderType {
	case models.OrderTypeDineIn, models.OrderTypeTakeaway, models.OrderTypeDelivery:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrderType, input.OrderType)
	}
	if input.Discount.IsNegative() || input.DeliveryFee.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// fetchMenuItems resolves all referenced menu items in one batch. A single
// missing or unavailable id fails the whole order.
func (s *Service) fetchMenuItems(tx *gorm.DB, restaurantID int64, lines []LineInput) (map[int64]models.MenuItem, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.MenuItemID)
	}

	var items []models.MenuItem
	if err := tx.Where("restaurant_id = ? AND id IN ? AND is_available = ?", restaurantID, ids, true).
		Find(&items).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := byID[id]; ok {
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: ids %v", ErrMenuItemNotFound, missing)
	}

	return byID, nil
}

func (s *Service) occupyTable(tx *gorm.DB, restaurantID, tableID int64) error {
	var table models.DiningTable
	if err := database.ForUpdate(tx).
		Where("id = ? AND restaurant_id = ?", tableID, restaurantID).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		return err
	}

	if table.Status != models.TableStatusAvailable {
		return fmt.Errorf("%w: status is %q", ErrTableUnavailable, table.Status)
	}

	table.Status = models.TableStatusOccupied
	if err := tx.Save(&table).Error; err != nil {
		return fmt.Errorf("failed to occupy table: %w", err)
	}
	return nil
}

// nextOrderNumber yields a human-readable code scoped per restaurant per
// calendar day. The sequence scan runs inside the caller's transaction, and
// the unique index on order_number backstops concurrent writers.
func (s *Service) nextOrderNumber(tx *gorm.DB, restaurantID int64, now time.Time) (string, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var seq int64
	if err := tx.Model(&models.Order{}).
		Where("restaurant_id = ? AND created_at >= ?", restaurantID, dayStart).
		Count(&seq).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("ORD-%d-%s-%04d", restaurantID, now.Format("20060102"), seq+1), nil
}

func (s *Service) nextTicketNumber(tx *gorm.DB, restaurantID int64, now time.Time) (string, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var seq int64
	if err := tx.Model(&models.KitchenTicket{}).
		Where("restaurant_id = ? AND created_at >= ?", restaurantID, dayStart).
		Count(&seq).Error; err != nil {
		return "", err
	}

	return fmt.Sprintf("KOT-%d-%s-%04d", restaurantID, now.Format("20060102"), seq+1), nil
}

func validOrderStatus(status models.OrderStatus) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusPreparing,
		models.OrderStatusReady, models.OrderStatusServed, models.OrderStatusCompleted,
		models.OrderStatusCancelled:
		return true
	}
	return false
}
