package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"savora-system/internal/database/models"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []interface{}
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.RawMaterial{},
		&models.StockTransaction{},
		&models.StockAlert{},
	))

	return db
}

func newTestService(t *testing.T) (*Service, *recordingPublisher, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	publisher := &recordingPublisher{}
	return NewService(db, publisher), publisher, db
}

func seedMaterial(t *testing.T, db *gorm.DB, name, stock, minimum, cost string) models.RawMaterial {
	t.Helper()

	material := models.RawMaterial{
		RestaurantID: 1,
		Name:         name,
		Unit:         "kg",
		CurrentStock: decimal.RequireFromString(stock),
		MinimumStock: decimal.RequireFromString(minimum),
		MaximumStock: decimal.RequireFromString("100"),
		ReorderLevel: decimal.RequireFromString(minimum),
		CostPerUnit:  decimal.RequireFromString(cost),
		IsActive:     true,
	}
	require.NoError(t, db.Create(&material).Error)
	return material
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestStockInBlendsWeightedAverageCost(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Flour", "10", "5", "100")

	entry, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionIn,
		Quantity:      decimal.RequireFromString("10"),
		UnitCost:      decPtr("120"),
		ReferenceType: models.StockReferencePurchase,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	// (10*100 + 10*120) / 20 = 110
	var reloaded models.RawMaterial
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	assert.True(t, reloaded.CostPerUnit.Equal(decimal.RequireFromString("110")), "cost %s", reloaded.CostPerUnit)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.RequireFromString("20")))

	assert.True(t, entry.StockBefore.Equal(decimal.RequireFromString("10")))
	assert.True(t, entry.StockAfter.Equal(decimal.RequireFromString("20")))
}

func TestStockInFromZeroTakesSuppliedCost(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Sugar", "0", "5", "0")

	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionIn,
		Quantity:      decimal.RequireFromString("15"),
		UnitCost:      decPtr("80"),
		ReferenceType: models.StockReferencePurchase,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	var reloaded models.RawMaterial
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.RequireFromString("15")))
	assert.True(t, reloaded.CostPerUnit.Equal(decimal.RequireFromString("80")), "cost %s", reloaded.CostPerUnit)
}

func TestStockOutWithoutCoverageFailsCleanly(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Butter", "3", "5", "50")

	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionOut,
		Quantity:      decimal.RequireFromString("4"),
		ReferenceType: models.StockReferenceOrder,
		CreatedBy:     1,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// stock untouched, no ledger row written
	var reloaded models.RawMaterial
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.RequireFromString("3")))

	var entries int64
	db.Model(&models.StockTransaction{}).Count(&entries)
	assert.Zero(t, entries)
}

func TestAdjustmentReplacesStockLevel(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Rice", "40", "5", "20")

	entry, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionAdjustment,
		Quantity:      decimal.RequireFromString("32.5"),
		ReferenceType: models.StockReferenceManual,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	assert.True(t, entry.StockBefore.Equal(decimal.RequireFromString("40")))
	assert.True(t, entry.StockAfter.Equal(decimal.RequireFromString("32.5")))

	var reloaded models.RawMaterial
	require.NoError(t, db.First(&reloaded, material.ID).Error)
	assert.True(t, reloaded.CurrentStock.Equal(decimal.RequireFromString("32.5")))
}

func TestTransactionValidation(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Salt", "10", "2", "5")

	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          "transfer",
		Quantity:      decimal.RequireFromString("1"),
		ReferenceType: models.StockReferenceManual,
	})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionOut,
		Quantity:      decimal.Zero,
		ReferenceType: models.StockReferenceManual,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    9999,
		Type:          models.StockTransactionOut,
		Quantity:      decimal.RequireFromString("1"),
		ReferenceType: models.StockReferenceManual,
	})
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestLowStockAlertDeduplicates(t *testing.T) {
	svc, publisher, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Cheese", "10", "6", "30")

	// two consecutive draws below the minimum raise exactly one alert
	for i := 0; i < 2; i++ {
		_, err := svc.RecordTransaction(ctx, TransactionInput{
			MaterialID:    material.ID,
			Type:          models.StockTransactionOut,
			Quantity:      decimal.RequireFromString("3"),
			ReferenceType: models.StockReferenceOrder,
			CreatedBy:     1,
		})
		require.NoError(t, err)
	}

	var alerts []models.StockAlert
	require.NoError(t, db.Where("material_id = ?", material.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.StockAlertLowStock, alerts[0].Type)
	assert.False(t, alerts[0].IsResolved)

	assert.Equal(t, []string{"restaurant:1:feed"}, publisher.topics)
}

func TestOutOfStockAlertAtZero(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Milk", "4", "6", "10")

	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionWaste,
		Quantity:      decimal.RequireFromString("4"),
		ReferenceType: models.StockReferenceManual,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	var alerts []models.StockAlert
	require.NoError(t, db.Where("material_id = ?", material.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.StockAlertOutOfStock, alerts[0].Type)
}

func TestResolveAlert(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Eggs", "6", "6", "2")

	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionOut,
		Quantity:      decimal.RequireFromString("1"),
		ReferenceType: models.StockReferenceOrder,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	var alert models.StockAlert
	require.NoError(t, db.Where("material_id = ?", material.ID).First(&alert).Error)

	resolved, err := svc.ResolveAlert(ctx, alert.ID, 9)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, int64(9), *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = svc.ResolveAlert(ctx, alert.ID, 9)
	assert.ErrorIs(t, err, ErrAlertResolved)

	_, err = svc.ResolveAlert(ctx, 9999, 9)
	assert.ErrorIs(t, err, ErrAlertNotFound)
}

func TestCreateAndUpdateMaterial(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	material, err := svc.CreateMaterial(ctx, MaterialInput{
		RestaurantID: 1,
		Name:         "Tomatoes",
		Unit:         "kg",
		MinimumStock: decimal.RequireFromString("5"),
		MaximumStock: decimal.RequireFromString("50"),
		ReorderLevel: decimal.RequireFromString("10"),
	})
	require.NoError(t, err)
	assert.True(t, material.CurrentStock.IsZero())
	assert.True(t, material.IsActive)

	_, err = svc.CreateMaterial(ctx, MaterialInput{
		RestaurantID: 1,
		Name:         "Tomatoes",
		Unit:         "kg",
	})
	assert.ErrorIs(t, err, ErrDuplicateMaterial)

	updated, err := svc.UpdateMaterial(ctx, material.ID, MaterialUpdate{
		MinimumStock: decPtr("8"),
	})
	require.NoError(t, err)
	assert.True(t, updated.MinimumStock.Equal(decimal.RequireFromString("8")))

	_, err = svc.UpdateMaterial(ctx, 9999, MaterialUpdate{})
	assert.ErrorIs(t, err, ErrMaterialNotFound)
}

func TestListMaterialsLowStockFilter(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	seedMaterial(t, db, "Low", "2", "5", "1")
	seedMaterial(t, db, "Plenty", "50", "5", "1")

	materials, total, err := svc.ListMaterials(ctx, MaterialFilter{RestaurantID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, materials, 2)

	materials, total, err = svc.ListMaterials(ctx, MaterialFilter{RestaurantID: 1, LowStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, materials, 1)
	assert.Equal(t, "Low", materials[0].Name)
}

func TestListTransactionsFilters(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	flour := seedMaterial(t, db, "Flour", "50", "5", "10")
	sugar := seedMaterial(t, db, "Sugar", "50", "5", "10")

	for _, materialID := range []int64{flour.ID, sugar.ID} {
		_, err := svc.RecordTransaction(ctx, TransactionInput{
			MaterialID:    materialID,
			Type:          models.StockTransactionOut,
			Quantity:      decimal.RequireFromString("1"),
			ReferenceType: models.StockReferenceOrder,
			CreatedBy:     1,
		})
		require.NoError(t, err)
	}
	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    flour.ID,
		Type:          models.StockTransactionIn,
		Quantity:      decimal.RequireFromString("5"),
		UnitCost:      decPtr("10"),
		ReferenceType: models.StockReferencePurchase,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	_, total, err := svc.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, total, err = svc.ListTransactions(ctx, TransactionFilter{MaterialID: &flour.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	in := models.StockTransactionIn
	entries, total, err := svc.ListTransactions(ctx, TransactionFilter{Type: &in})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, flour.ID, entries[0].MaterialID)
}

func TestListAlertsUnresolvedFilter(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	material := seedMaterial(t, db, "Cream", "6", "6", "10")

	_, err := svc.RecordTransaction(ctx, TransactionInput{
		MaterialID:    material.ID,
		Type:          models.StockTransactionOut,
		Quantity:      decimal.RequireFromString("1"),
		ReferenceType: models.StockReferenceOrder,
		CreatedBy:     1,
	})
	require.NoError(t, err)

	alerts, err := svc.ListAlerts(ctx, AlertFilter{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	_, err = svc.ResolveAlert(ctx, alerts[0].ID, 1)
	require.NoError(t, err)

	alerts, err = svc.ListAlerts(ctx, AlertFilter{UnresolvedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = svc.ListAlerts(ctx, AlertFilter{})
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}
