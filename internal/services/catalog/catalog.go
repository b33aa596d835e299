package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"savora-system/internal/database/models"
)

const (
	menuItemCachePrefix = "catalog:menu-item:"
	menuListCachePrefix = "catalog:menu-list:"
	cacheTTL            = 30 * time.Minute
)

var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrInvalidPrice     = errors.New("price must be non-negative")
	ErrNameRequired     = errors.New("menu item name is required")
)

type Service struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewService accepts a nil redis client; caching is skipped in that case.
func NewService(db *gorm.DB, redisClient *redis.Client) *Service {
	return &Service{
		db:    db,
		redis: redisClient,
	}
}

type MenuItemInput struct {
	RestaurantID int64
	Name         string
	Description  *string
	Category     *string
	Price        decimal.Decimal
	PrepMinutes  *int32
	IsAvailable  bool
}

func (s *Service) CreateMenuItem(ctx context.Context, input MenuItemInput) (*models.MenuItem, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}
	if input.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	item := models.MenuItem{
		RestaurantID: input.RestaurantID,
		Name:         input.Name,
		Description:  input.Description,
		Category:     input.Category,
		Price:        input.Price,
		PrepMinutes:  input.PrepMinutes,
		IsAvailable:  input.IsAvailable,
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}

	s.invalidateCaches(ctx, item.RestaurantID, item.ID)
	return &item, nil
}

type MenuItemUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Price       *decimal.Decimal
	PrepMinutes *int32
	IsAvailable *bool
}

func (s *Service) UpdateMenuItem(ctx context.Context, itemID int64, update MenuItemUpdate) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, ErrNameRequired
		}
		item.Name = *update.Name
	}
	if update.Description != nil {
		item.Description = update.Description
	}
	if update.Category != nil {
		item.Category = update.Category
	}
	if update.Price != nil {
		if update.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		item.Price = *update.Price
	}
	if update.PrepMinutes != nil {
		item.PrepMinutes = update.PrepMinutes
	}
	if update.IsAvailable != nil {
		item.IsAvailable = *update.IsAvailable
	}

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}

	s.invalidateCaches(ctx, item.RestaurantID, item.ID)
	return &item, nil
}

func (s *Service) GetMenuItem(ctx context.Context, itemID int64) (*models.MenuItem, error) {
	cacheKey := fmt.Sprintf("%s%d", menuItemCachePrefix, itemID)

	if s.redis != nil {
		val, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached models.MenuItem
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			log.Printf("catalog: redis GET failed, falling back to db: %v", err)
		}
	}

	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(&item); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				log.Printf("catalog: failed to cache %s: %v", cacheKey, err)
			}
		}
	}

	return &item, nil
}

// GetMenuItemsByIDs resolves a batch of menu item ids in one query. Any id
// that is missing or unavailable fails the whole batch, listing the missing
// ids in the error.
func (s *Service) GetMenuItemsByIDs(ctx context.Context, restaurantID int64, ids []int64) (map[int64]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND id IN ? AND is_available = ?", restaurantID, ids, true).
		Find(&items).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]models.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: ids %v", ErrMenuItemNotFound, missing)
	}

	return byID, nil
}

type ListFilter struct {
	RestaurantID  int64
	Category      *string
	AvailableOnly bool
	Search        string
	Page          int
	PageSize      int
}

type cachedList struct {
	Items []models.MenuItem `json:"items"`
	Total int64             `json:"total"`
}

func (s *Service) ListMenuItems(ctx context.Context, filter ListFilter) ([]models.MenuItem, int64, error) {
	cacheKey := listCacheKey(filter)

	if s.redis != nil {
		val, err := s.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached cachedList
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Items, cached.Total, nil
			}
		} else if err != redis.Nil {
			log.Printf("catalog: redis GET failed, falling back to db: %v", err)
		}
	}

	var items []models.MenuItem
	var total int64

	query := s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("restaurant_id = ?", filter.RestaurantID)

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
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

	if err := query.Order("category, name").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(cachedList{Items: items, Total: total}); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				log.Printf("catalog: failed to cache %s: %v", cacheKey, err)
			}
		}
	}

	return items, total, nil
}

func listCacheKey(filter ListFilter) string {
	category := "*"
	if filter.Category != nil {
		category = *filter.Category
	}
	return fmt.Sprintf("%s%d:%s:%t:%s:%d:%d", menuListCachePrefix,
		filter.RestaurantID, category, filter.AvailableOnly, filter.Search, filter.Page, filter.PageSize)
}

func (s *Service) invalidateCaches(ctx context.Context, restaurantID int64, itemIDs ...int64) {
	if s.redis == nil {
		return
	}

	for _, id := range itemIDs {
		_ = s.redis.Del(ctx, fmt.Sprintf("%s%d", menuItemCachePrefix, id))
	}

	// List keys vary by filter, so sweep the restaurant's list prefix.
	pattern := fmt.Sprintf("%s%d:*", menuListCachePrefix, restaurantID)
	keys, err := s.redis.Keys(ctx, pattern).Result()
	if err != nil {
		log.Printf("catalog: failed to scan list cache keys: %v", err)
		return
	}
	if len(keys) > 0 {
		_ = s.redis.Del(ctx, keys...)
	}
}
