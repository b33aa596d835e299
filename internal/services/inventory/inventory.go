package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"savora-system/internal/database"
	"savora-system/internal/database/models"
	"savora-system/internal/events"
)

var (
	ErrMaterialNotFound  = errors.New("raw material not found")
	ErrAlertNotFound     = errors.New("stock alert not found")
	ErrAlertResolved     = errors.New("stock alert is already resolved")
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrInvalidType       = errors.New("unrecognized stock transaction type")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnitCostRequired  = errors.New("unit cost must be non-negative")
	ErrDuplicateMaterial = errors.New("raw material already exists")
)

type Service struct {
	db        *gorm.DB
	publisher events.Publisher
}

func NewService(db *gorm.DB, publisher events.Publisher) *Service {
	return &Service{
		db:        db,
		publisher: publisher,
	}
}

type TransactionInput struct {
	MaterialID    int64
	Type          models.StockTransactionType
	Quantity      decimal.Decimal
	UnitCost      *decimal.Decimal
	ReferenceType models.StockReferenceType
	ReferenceID   *int64
	Notes         *string
	CreatedBy     int64
}

// RecordTransaction appends a ledger entry and updates the material's stock
// and weighted-average cost in one transaction. The material row is locked
// for the duration so concurrent movements on the same material cannot lose
// an update. Either the ledger row and the stock mutation both land, or
// neither does.
func (s *Service) RecordTransaction(ctx context.Context, input TransactionInput) (*models.StockTransaction, error) {
	if err := validateTransactionInput(input); err != nil {
		return nil, err
	}

	var entry models.StockTransaction
	var alertRaised *models.StockAlert
	var restaurantID int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var material models.RawMaterial
		if err := database.ForUpdate(tx).First(&material, input.MaterialID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMaterialNotFound
			}
			return err
		}
		restaurantID = material.RestaurantID

		stockBefore := material.CurrentStock

		var stockAfter decimal.Decimal
		switch input.Type {
		case models.StockTransactionIn:
			stockAfter = stockBefore.Add(input.Quantity)
		case models.StockTransactionOut, models.StockTransactionWaste:
			stockAfter = stockBefore.Sub(input.Quantity)
		case models.StockTransactionAdjustment:
			stockAfter = input.Quantity
		}

		if stockAfter.IsNegative() {
			return fmt.Errorf("%w: available %s, requested %s",
				ErrInsufficientStock, stockBefore, input.Quantity)
		}

		if input.Type == models.StockTransactionIn && input.UnitCost != nil {
			material.CostPerUnit = weightedAverageCost(
				stockBefore, material.CostPerUnit, input.Quantity, *input.UnitCost, stockAfter)
		}

		entry = models.StockTransaction{
			MaterialID:    material.ID,
			Type:          input.Type,
			Quantity:      input.Quantity,
			UnitCost:      input.UnitCost,
			StockBefore:   stockBefore,
			StockAfter:    stockAfter,
			ReferenceType: input.ReferenceType,
			ReferenceID:   input.ReferenceID,
			Notes:         input.Notes,
			CreatedBy:     input.CreatedBy,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append stock transaction: %w", err)
		}

		material.CurrentStock = stockAfter
		if err := tx.Save(&material).Error; err != nil {
			return fmt.Errorf("failed to update material stock: %w", err)
		}

		alert, err := s.evaluateAlerts(tx, material)
		if err != nil {
			return err
		}
		alertRaised = alert

		return nil
	})
	if err != nil {
		return nil, err
	}

	if alertRaised != nil {
		s.publisher.Publish(ctx, events.RestaurantFeed(restaurantID), events.StockAlertEvent{
			EventType:  events.EventStockAlertRaised,
			MaterialID: alertRaised.MaterialID,
			AlertType:  alertRaised.Type,
			Message:    alertRaised.Message,
			Timestamp:  time.Now(),
		})
	}

	return &entry, nil
}

// weightedAverageCost blends existing stock value with newly received stock.
// When the resulting stock is zero the supplied unit cost is used directly.
func weightedAverageCost(oldStock, oldCost, quantity, unitCost, newStock decimal.Decimal) decimal.Decimal {
	if newStock.IsZero() {
		return unitCost
	}
	oldValue := oldStock.Mul(oldCost)
	newValue := quantity.Mul(unitCost)
	return oldValue.Add(newValue).Div(newStock).Round(4)
}

// evaluateAlerts raises at most one alert for the material: out_of_stock at
// zero or below, low_stock at or below the minimum. A fresh row is only
// inserted when no unresolved alert of the same type exists.
func (s *Service) evaluateAlerts(tx *gorm.DB, material models.RawMaterial) (*models.StockAlert, error) {
	var alertType models.StockAlertType
	var message string

	switch {
	case material.CurrentStock.LessThanOrEqual(decimal.Zero):
		alertType = models.StockAlertOutOfStock
		message = fmt.Sprintf("%s is out of stock", material.Name)
	case material.CurrentStock.LessThanOrEqual(material.MinimumStock):
		alertType = models.StockAlertLowStock
		message = fmt.Sprintf("%s is below minimum stock (%s %s left, minimum %s)",
			material.Name, material.CurrentStock, material.Unit, material.MinimumStock)
	default:
		return nil, nil
	}

	var existing int64
	if err := tx.Model(&models.StockAlert{}).
		Where("material_id = ? AND type = ? AND is_resolved = ?", material.ID, alertType, false).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, nil
	}

	alert := models.StockAlert{
		MaterialID: material.ID,
		Type:       alertType,
		Message:    message,
	}
	if err := tx.Create(&alert).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock alert: %w", err)
	}
	return &alert, nil
}

// ResolveAlert closes an open alert, recording who resolved it and when.
func (s *Service) ResolveAlert(ctx context.Context, alertID, resolvedBy int64) (*models.StockAlert, error) {
	var alert models.StockAlert

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&alert, alertID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAlertNotFound
			}
			return err
		}

		if alert.IsResolved {
			return ErrAlertResolved
		}

		now := time.Now()
		alert.IsResolved = true
		alert.ResolvedBy = &resolvedBy
		alert.ResolvedAt = &now

		if err := tx.Save(&alert).Error; err != nil {
			return fmt.Errorf("failed to resolve alert: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &alert, nil
}

type MaterialInput struct {
	RestaurantID int64
	Name         string
	Unit         string
	MinimumStock decimal.Decimal
	MaximumStock decimal.Decimal
	ReorderLevel decimal.Decimal
}

func (s *Service) CreateMaterial(ctx context.Context, input MaterialInput) (*models.RawMaterial, error) {
	if input.Name == "" || input.Unit == "" {
		return nil, errors.New("material name and unit are required")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.RawMaterial{}).
		Where("restaurant_id = ? AND name = ?", input.RestaurantID, input.Name).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateMaterial, input.Name)
	}

	material := models.RawMaterial{
		RestaurantID: input.RestaurantID,
		Name:         input.Name,
		Unit:         input.Unit,
		CurrentStock: decimal.Zero,
		MinimumStock: input.MinimumStock,
		MaximumStock: input.MaximumStock,
		ReorderLevel: input.ReorderLevel,
		CostPerUnit:  decimal.Zero,
		IsActive:     true,
	}

	if err := s.db.WithContext(ctx).Create(&material).Error; err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}
	return &material, nil
}

type MaterialUpdate struct {
	Name         *string
	Unit         *string
	MinimumStock *decimal.Decimal
	MaximumStock *decimal.Decimal
	ReorderLevel *decimal.Decimal
	IsActive     *bool
}

// UpdateMaterial changes thresholds and metadata. Stock and cost are owned
// by the ledger and cannot be edited here.
func (s *Service) UpdateMaterial(ctx context.Context, materialID int64, update MaterialUpdate) (*models.RawMaterial, error) {
	var material models.RawMaterial
	if err := s.db.WithContext(ctx).First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}

	if update.Name != nil {
		material.Name = *update.Name
	}
	if update.Unit != nil {
		material.Unit = *update.Unit
	}
	if update.MinimumStock != nil {
		material.MinimumStock = *update.MinimumStock
	}
	if update.MaximumStock != nil {
		material.MaximumStock = *update.MaximumStock
	}
	if update.ReorderLevel != nil {
		material.ReorderLevel = *update.ReorderLevel
	}
	if update.IsActive != nil {
		material.IsActive = *update.IsActive
	}

	if err := s.db.WithContext(ctx).Save(&material).Error; err != nil {
		return nil, fmt.Errorf("failed to update material: %w", err)
	}
	return &material, nil
}

func (s *Service) GetMaterial(ctx context.Context, materialID int64) (*models.RawMaterial, error) {
	var material models.RawMaterial
	if err := s.db.WithContext(ctx).First(&material, materialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMaterialNotFound
		}
		return nil, err
	}
	return &material, nil
}

type MaterialFilter struct {
	RestaurantID int64
	LowStockOnly bool
	Page         int
	PageSize     int
}

func (s *Service) ListMaterials(ctx context.Context, filter MaterialFilter) ([]models.RawMaterial, int64, error) {
	var materials []models.RawMaterial
	var total int64

	query := s.db.WithContext(ctx).Model(&models.RawMaterial{}).
		Where("restaurant_id = ?", filter.RestaurantID)

	if filter.LowStockOnly {
		query = query.Where("current_stock <= minimum_stock")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	if err := query.Order("name").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&materials).Error; err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

type TransactionFilter struct {
	MaterialID *int64
	Type       *models.StockTransactionType
	StartDate  string
	EndDate    string
	Page       int
	PageSize   int
}

func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.StockTransaction, int64, error) {
	var transactions []models.StockTransaction
	var total int64

	query := s.db.WithContext(ctx).Model(&models.StockTransaction{})

	if filter.MaterialID != nil {
		query = query.Where("material_id = ?", *filter.MaterialID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
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
		pageSize = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

type AlertFilter struct {
	MaterialID     *int64
	UnresolvedOnly bool
}

func (s *Service) ListAlerts(ctx context.Context, filter AlertFilter) ([]models.StockAlert, error) {
	var alerts []models.StockAlert

	query := s.db.WithContext(ctx).Model(&models.StockAlert{})
	if filter.MaterialID != nil {
		query = query.Where("material_id = ?", *filter.MaterialID)
	}
	if filter.UnresolvedOnly {
		query = query.Where("is_resolved = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func validateTransactionInput(input TransactionInput) error {
	switch input.Type {
	case models.StockTransactionIn, models.StockTransactionOut,
		models.StockTransactionWaste, models.StockTransactionAdjustment:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidType, input.Type)
	}

	// Adjustments replace the stock level outright, so zero is a valid target.
	if input.Type == models.StockTransactionAdjustment {
		if input.Quantity.IsNegative() {
			return ErrInvalidQuantity
		}
	} else if !input.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}

	if input.UnitCost != nil && input.UnitCost.IsNegative() {
		return ErrUnitCostRequired
	}

	switch input.ReferenceType {
	case models.StockReferencePurchase, models.StockReferenceOrder, models.StockReferenceManual:
	default:
		return fmt.Errorf("%w: reference type %q", ErrInvalidType, input.ReferenceType)
	}

	return nil
}
