package models_test

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

// setupTestDB swaps the global store for a private in-memory sqlite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection: transactions and plain reads share it
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

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustProduct(t *testing.T, name string, multiplier string) *models.Product {
	t.Helper()
	m := dec(multiplier)
	p, err := models.CreateProduct(context.Background(), &models.NewProduct{Name: name, PriceMultiplier: &m})
	require.NoError(t, err)
	return p
}

func mustSupplier(t *testing.T, name string) *models.Supplier {
	t.Helper()
	s, err := models.CreateSupplier(context.Background(), &models.NewSupplier{Name: name, Phone: "1234567890"})
	require.NoError(t, err)
	return s
}

func mustPurchase(t *testing.T, supplierId int, invoice string, lines ...*models.NewPurchaseLine) *models.Purchase {
	t.Helper()
	p, err := models.RecordPurchase(context.Background(), &models.NewPurchase{
		SupplierId:    supplierId,
		InvoiceNumber: invoice,
		PurchaseDate:  "2024-05-01",
		Lines:         lines,
	})
	require.NoError(t, err)
	return p
}

func line(productId int, qty int, total string) *models.NewPurchaseLine {
	return &models.NewPurchaseLine{ProductId: productId, Quantity: qty, LineTotal: dec(total)}
}

func stockOf(t *testing.T, productId int) int {
	t.Helper()
	qty, err := models.AvailableQuantity(context.Background(), productId)
	require.NoError(t, err)
	return qty
}
