package models_test

import (
	"context"
	"sync"
	"testing"

	"github.com/nexusvending/vending_backend/models"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMachineLoadDecrementsStock(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product := mustProduct(t, "Alfajor", "1.5")
	supplier := mustSupplier(t, "Distribuidora Central")
	mustPurchase(t, supplier.ID, "F-0001", line(product.ID, 10, "40.00"))
	mustPurchase(t, supplier.ID, "F-0002", line(product.ID, 56, "280.00"))

	load, err := models.RecordMachineLoad(ctx, &models.NewMachineLoad{
		ProductId: product.ID, Quantity: 20, LoadDate: "2024-05-03", Responsible: "Ana",
	})
	require.NoError(t, err)
	assert.NotZero(t, load.ID)

	entry, err := models.GetStockEntry(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 46, entry.Quantity)
	assert.True(t, entry.UnitCost.Equal(dec("5")), "unit cost must not change, got %s", entry.UnitCost)

	_, err = models.RecordMachineLoad(ctx, &models.NewMachineLoad{
		ProductId: product.ID, Quantity: 50, LoadDate: "2024-05-03", Responsible: "Ana",
	})
	require.Error(t, err)
	assert.True(t, utils.IsValidationError(err), "expected validation error, got %v", err)
	assert.Equal(t, 46, stockOf(t, product.ID))

	loads, err := models.ListMachineLoads(ctx)
	require.NoError(t, err)
	assert.Len(t, loads, 1)
}

func TestRecordMachineLoadValidation(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product := mustProduct(t, "Galletas", "1.4")
	empty := mustProduct(t, "Chocolates", "1.6")
	supplier := mustSupplier(t, "Distribuidora Central")
	mustPurchase(t, supplier.ID, "F-0001", line(product.ID, 5, "10.00"))

	cases := []struct {
		name  string
		input models.NewMachineLoad
	}{
		{"zero quantity", models.NewMachineLoad{ProductId: product.ID, Quantity: 0, Responsible: "Ana"}},
		{"negative quantity", models.NewMachineLoad{ProductId: product.ID, Quantity: -2, Responsible: "Ana"}},
		{"missing responsible", models.NewMachineLoad{ProductId: product.ID, Quantity: 1, Responsible: "  "}},
		{"unknown product", models.NewMachineLoad{ProductId: 999, Quantity: 1, Responsible: "Ana"}},
		{"no stock entry", models.NewMachineLoad{ProductId: empty.ID, Quantity: 1, Responsible: "Ana"}},
		{"more than available", models.NewMachineLoad{ProductId: product.ID, Quantity: 6, Responsible: "Ana"}},
		{"bad date", models.NewMachineLoad{ProductId: product.ID, Quantity: 1, Responsible: "Ana", LoadDate: "03/05/2024"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := tc.input
			_, err := models.RecordMachineLoad(ctx, &input)
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err), "expected validation error, got %v", err)
		})
	}
	assert.Equal(t, 5, stockOf(t, product.ID))
}

func TestRecordMachineLoadTakesAllAvailable(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product := mustProduct(t, "Agua Mineral", "1.2")
	supplier := mustSupplier(t, "Distribuidora Central")
	mustPurchase(t, supplier.ID, "F-0001", line(product.ID, 5, "10.00"))

	ctx = utils.SetResponsibleInContext(ctx, "Turno noche")
	load, err := models.RecordMachineLoad(ctx, &models.NewMachineLoad{ProductId: product.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, "Turno noche", load.Responsible)
	assert.False(t, load.LoadDate.IsZero())
	assert.Equal(t, 0, stockOf(t, product.ID))

	histories, err := models.ListStockHistories(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, models.StockReferenceTypeMachineLoad, histories[1].ReferenceType)
	assert.Equal(t, load.ID, histories[1].ReferenceID)
	assert.Equal(t, -5, histories[1].Qty)
}

func TestConcurrentMachineLoadsNeverOversell(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product := mustProduct(t, "Turron", "1.5")
	supplier := mustSupplier(t, "Distribuidora Norte")
	mustPurchase(t, supplier.ID, "F-0300", line(product.ID, 10, "50.00"))

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = models.RecordMachineLoad(ctx, &models.NewMachineLoad{
				ProductId: product.ID, Quantity: 3, LoadDate: "2024-05-03", Responsible: "Ana",
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, utils.IsValidationError(err), "expected validation error, got %v", err)
	}
	assert.Equal(t, 3, ok)
	assert.Equal(t, 1, stockOf(t, product.ID))

	loads, err := models.ListMachineLoads(ctx)
	require.NoError(t, err)
	assert.Len(t, loads, 3)
}
