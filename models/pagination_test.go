package models_test

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/nexusvending/vending_backend/models"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAtoi(t *testing.T, s string) int64 {
	t.Helper()
	v, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return v
}

func TestPaginatePurchases(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product := mustProduct(t, "Alfajor", "1.5")
	supplier := mustSupplier(t, "Distribuidora Central")
	for i := 1; i <= 10; i++ {
		mustPurchase(t, supplier.ID, fmt.Sprintf("F-%04d", i), line(product.ID, 1, "4.00"))
	}

	first, err := models.PaginatePurchases(ctx, 0, nil)
	require.NoError(t, err)
	require.Len(t, first.Edges, models.DefaultPurchasePageSize)
	assert.True(t, *first.PageInfo.HasNextPage)
	assert.Equal(t, "F-0010", first.Edges[0].Node.InvoiceNumber)
	assert.NotNil(t, first.Edges[0].Node.Supplier)

	second, err := models.PaginatePurchases(ctx, 0, &first.PageInfo.EndCursor)
	require.NoError(t, err)
	require.Len(t, second.Edges, 2)
	assert.False(t, *second.PageInfo.HasNextPage)
	assert.Equal(t, "F-0001", second.Edges[1].Node.InvoiceNumber)

	bad := "not a cursor!"
	_, err = models.PaginatePurchases(ctx, 0, &bad)
	assert.True(t, utils.IsValidationError(err))
}

func TestPaginateStockFillsSalePrice(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	supplier := mustSupplier(t, "Distribuidora Central")
	a := mustProduct(t, "Alfajor", "1.5")
	b := mustProduct(t, "Galletas", "1.4")
	mustPurchase(t, supplier.ID, "F-0001", line(a.ID, 10, "40.00"), line(b.ID, 4, "10.00"))

	page, err := models.PaginateStock(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	assert.True(t, *page.PageInfo.HasNextPage)
	assert.Equal(t, b.ID, page.Edges[0].Node.ProductId)
	assert.Equal(t, "3.50", page.Edges[0].Node.SalePrice)

	rest, err := models.PaginateStock(ctx, 500, &page.PageInfo.EndCursor)
	require.NoError(t, err)
	require.Len(t, rest.Edges, 1)
	assert.Equal(t, "6.00", rest.Edges[0].Node.SalePrice)
}

func TestPaginateMachineLoadsEmpty(t *testing.T) {
	setupTestDB(t)

	page, err := models.PaginateMachineLoads(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Edges)
	assert.False(t, *page.PageInfo.HasNextPage)
	assert.Equal(t, "", page.PageInfo.EndCursor)
}
