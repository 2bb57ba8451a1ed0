package models_test

import (
	"context"
	"strings"
	"testing"

	"github.com/nexusvending/vending_backend/models"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProductDefaultsMultiplier(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	p, err := models.CreateProduct(ctx, &models.NewProduct{Name: "  Alfajor "})
	require.NoError(t, err)
	assert.Equal(t, "Alfajor", p.Name)
	assert.True(t, p.PriceMultiplier.Equal(dec("1.5")), "multiplier %s", p.PriceMultiplier)

	_, err = models.CreateProduct(ctx, &models.NewProduct{Name: "Alfajor"})
	assert.ErrorIs(t, err, utils.ErrDuplicateKey)

	zero := dec("0")
	_, err = models.CreateProduct(ctx, &models.NewProduct{Name: "Galletas", PriceMultiplier: &zero})
	assert.True(t, utils.IsValidationError(err))

	_, err = models.CreateProduct(ctx, &models.NewProduct{Name: ""})
	assert.True(t, utils.IsValidationError(err))
}

func TestUpdateProduct(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	a := mustProduct(t, "Alfajor", "1.5")
	mustProduct(t, "Galletas", "1.4")

	m := dec("2")
	updated, err := models.UpdateProduct(ctx, a.ID, &models.NewProduct{Name: "Alfajor Triple", PriceMultiplier: &m})
	require.NoError(t, err)
	assert.Equal(t, "Alfajor Triple", updated.Name)

	// keeping its own name is not a duplicate
	_, err = models.UpdateProduct(ctx, a.ID, &models.NewProduct{Name: "Alfajor Triple", PriceMultiplier: &m})
	require.NoError(t, err)

	_, err = models.UpdateProduct(ctx, a.ID, &models.NewProduct{Name: "Galletas"})
	assert.ErrorIs(t, err, utils.ErrDuplicateKey)

	_, err = models.UpdateProduct(ctx, 999, &models.NewProduct{Name: "X"})
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	products, err := models.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Alfajor Triple", products[0].Name)
	assert.True(t, products[0].PriceMultiplier.Equal(dec("2")))
}

func TestDeleteProduct(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	unused := mustProduct(t, "Bebida Cola", "1.3")
	_, err := models.DeleteProduct(ctx, unused.ID)
	require.NoError(t, err)
	_, err = models.GetProduct(ctx, unused.ID)
	assert.ErrorIs(t, err, utils.ErrorRecordNotFound)

	stocked := mustProduct(t, "Alfajor", "1.5")
	supplier := mustSupplier(t, "Distribuidora Central")
	mustPurchase(t, supplier.ID, "F-0001", line(stocked.ID, 1, "4.00"))

	// refused by the store while purchases and stock reference it
	_, err = models.DeleteProduct(ctx, stocked.ID)
	require.Error(t, err)
	assert.False(t, utils.IsValidationError(err))
	_, err = models.GetProduct(ctx, stocked.ID)
	assert.NoError(t, err)
}

func TestCreateSupplierNormalizesPhone(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	s, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Distribuidora Central", Phone: "(123) 456-7890"})
	require.NoError(t, err)
	assert.Equal(t, "123-456-7890", s.Phone)

	s2, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Proveedor Express", Phone: "+54 11 2233"})
	require.NoError(t, err)
	assert.Equal(t, "+54 11 2233", s2.Phone)

	_, err = models.CreateSupplier(ctx, &models.NewSupplier{Name: "Distribuidora Central", Phone: "1122334455"})
	assert.ErrorIs(t, err, utils.ErrDuplicateKey)

	_, err = models.CreateSupplier(ctx, &models.NewSupplier{Name: "Otro", Phone: "call me"})
	assert.True(t, utils.IsValidationError(err))

	_, err = models.CreateSupplier(ctx, &models.NewSupplier{Name: "Otro", Phone: ""})
	assert.True(t, utils.IsValidationError(err))

	_, err = models.CreateSupplier(ctx, &models.NewSupplier{Name: "Otro", Phone: strings.Repeat("1-", 16)})
	assert.True(t, utils.IsValidationError(err), "expected validation error, got %v", err)

	updated, err := models.UpdateSupplier(ctx, s2.ID, &models.NewSupplier{Name: "Proveedor Express", Phone: "0987654321"})
	require.NoError(t, err)
	assert.Equal(t, "098-765-4321", updated.Phone)

	suppliers, err := models.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "Distribuidora Central", suppliers[0].Name)
}

func TestDeleteSupplierWithPurchasesFails(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	product := mustProduct(t, "Alfajor", "1.5")
	supplier := mustSupplier(t, "Distribuidora Central")
	mustPurchase(t, supplier.ID, "F-0001", line(product.ID, 1, "4.00"))

	_, err := models.DeleteSupplier(ctx, supplier.ID)
	require.Error(t, err)

	other := mustSupplier(t, "Proveedor Express")
	_, err = models.DeleteSupplier(ctx, other.ID)
	require.NoError(t, err)
}
