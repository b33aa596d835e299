package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"savora-system/internal/database/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.MenuItem{}))
	return NewService(db, nil)
}

func strPtr(s string) *string { return &s }

func TestCreateMenuItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Name:         "Margherita",
		Category:     strPtr("pizza"),
		Price:        decimal.RequireFromString("11.50"),
		IsAvailable:  true,
	})
	require.NoError(t, err)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("11.50")))

	_, err = svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Price:        decimal.RequireFromString("5.00"),
	})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Name:         "Broken",
		Price:        decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestUpdateMenuItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Name:         "Lasagna",
		Price:        decimal.RequireFromString("14.00"),
		IsAvailable:  true,
	})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("15.50")
	available := false
	updated, err := svc.UpdateMenuItem(ctx, item.ID, MenuItemUpdate{
		Price:       &newPrice,
		IsAvailable: &available,
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.False(t, updated.IsAvailable)

	_, err = svc.UpdateMenuItem(ctx, 9999, MenuItemUpdate{})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestListMenuItemsFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Name:         "Espresso",
		Category:     strPtr("drinks"),
		Price:        decimal.RequireFromString("2.50"),
		IsAvailable:  true,
	})
	require.NoError(t, err)
	_, err = svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Name:         "Tiramisu",
		Category:     strPtr("desserts"),
		Price:        decimal.RequireFromString("6.00"),
		IsAvailable:  false,
	})
	require.NoError(t, err)

	items, total, err := svc.ListMenuItems(ctx, ListFilter{RestaurantID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	drinks := "drinks"
	items, _, err = svc.ListMenuItems(ctx, ListFilter{RestaurantID: 1, Category: &drinks})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Espresso", items[0].Name)

	items, _, err = svc.ListMenuItems(ctx, ListFilter{RestaurantID: 1, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Espresso", items[0].Name)

	items, _, err = svc.ListMenuItems(ctx, ListFilter{RestaurantID: 1, Search: "tira"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tiramisu", items[0].Name)
}

func TestGetMenuItemsByIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.CreateMenuItem(ctx, MenuItemInput{
		RestaurantID: 1,
		Name:         "Gnocchi",
		Price:        decimal.RequireFromString("13.00"),
		IsAvailable:  true,
	})
	require.NoError(t, err)

	byID, err := svc.GetMenuItemsByIDs(ctx, 1, []int64{item.ID})
	require.NoError(t, err)
	assert.Contains(t, byID, item.ID)

	_, err = svc.GetMenuItemsByIDs(ctx, 1, []int64{item.ID, 9999})
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}
