package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:wf_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	prev := config.GetDB()
	config.UseDB(db)
	t.Cleanup(func() {
		config.UseDB(prev)
		_ = sqlDB.Close()
	})

	require.NoError(t, models.AutoMigrate())
	return db
}

// seedPurchase records one purchase of qty units for a new product.
func seedPurchase(t *testing.T, qty int, total string) *models.Product {
	t.Helper()
	ctx := context.Background()
	m := decimal.RequireFromString("1.5")
	product, err := models.CreateProduct(ctx, &models.NewProduct{Name: "Alfajor", PriceMultiplier: &m})
	require.NoError(t, err)
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Distribuidora Central", Phone: "1234567890"})
	require.NoError(t, err)
	_, err = models.RecordPurchase(ctx, &models.NewPurchase{
		SupplierId:    supplier.ID,
		InvoiceNumber: "F-0001",
		PurchaseDate:  "2024-05-01",
		Lines: []*models.NewPurchaseLine{
			{ProductId: product.ID, Quantity: qty, LineTotal: decimal.RequireFromString(total)},
		},
	})
	require.NoError(t, err)
	return product
}
