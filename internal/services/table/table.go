package table

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"savora-system/internal/database/models"
)

var (
	ErrTableNotFound        = errors.New("table not found")
	ErrDuplicateTableNumber = errors.New("table number already exists for this restaurant")
	ErrInvalidTableStatus   = errors.New("unrecognized table status")
	ErrInvalidCapacity      = errors.New("capacity must be greater than 0")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	RestaurantID int64
	TableNumber  int32
	Capacity     int32
	Location     *string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*models.DiningTable, error) {
	if input.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.DiningTable{}).
		Where("restaurant_id = ? AND table_number = ?", input.RestaurantID, input.TableNumber).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: table %d", ErrDuplicateTableNumber, input.TableNumber)
	}

	table := models.DiningTable{
		RestaurantID: input.RestaurantID,
		TableNumber:  input.TableNumber,
		Capacity:     input.Capacity,
		Status:       models.TableStatusAvailable,
		Location:     input.Location,
	}

	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &table, nil
}

func (s *Service) UpdateStatus(ctx context.Context, tableID int64, status models.TableStatus) (*models.DiningTable, error) {
	switch status {
	case models.TableStatusAvailable, models.TableStatusOccupied,
		models.TableStatusReserved, models.TableStatusMaintenance:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableStatus, status)
	}

	var table models.DiningTable
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}

	table.Status = status
	if err := s.db.WithContext(ctx).Save(&table).Error; err != nil {
		return nil, fmt.Errorf("failed to update table status: %w", err)
	}
	return &table, nil
}

func (s *Service) Get(ctx context.Context, tableID int64) (*models.DiningTable, error) {
	var table models.DiningTable
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &table, nil
}

type ListFilter struct {
	RestaurantID int64
	Status       *models.TableStatus
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]models.DiningTable, error) {
	var tables []models.DiningTable

	query := s.db.WithContext(ctx).
		Where("restaurant_id = ?", filter.RestaurantID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if err := query.Order("table_number").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}
