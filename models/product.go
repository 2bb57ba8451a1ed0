package models

import (
	"context"
	"strings"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"size:255;not null;uniqueIndex" json:"name"`
	PriceMultiplier decimal.Decimal `gorm:"type:decimal(10,2);not null;default:1.5" json:"price_multiplier"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name            string           `json:"name" binding:"required"`
	PriceMultiplier *decimal.Decimal `json:"price_multiplier"`
}

// CreateProduct(input) (Product,error)
// UpdateProduct(id, input) (Product,error)
// DeleteProduct(id) (Product,error)
// GetProduct(id) (Product,error)
// ListProducts() ([]Product,error)

func (input *NewProduct) normalize() {
	input.Name = strings.TrimSpace(input.Name)
	if input.PriceMultiplier == nil {
		m := DefaultPriceMultiplier
		input.PriceMultiplier = &m
	}
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProduct) validate(ctx context.Context, id int) error {
	if input.Name == "" {
		return utils.NewValidationError("product name is required")
	}
	if !input.PriceMultiplier.IsPositive() {
		return utils.NewValidationError("price multiplier must be greater than zero")
	}
	// validate unique name
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	input.normalize()
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	product := Product{
		Name:            input.Name,
		PriceMultiplier: *input.PriceMultiplier,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, utils.TranslateStoreError(err, "name", input.Name)
	}
	clearProductCache()

	return &product, nil
}

func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	input.normalize()
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(product).
		Updates(map[string]interface{}{
			"Name":            input.Name,
			"PriceMultiplier": *input.PriceMultiplier,
		}).Error
	if err != nil {
		return nil, utils.TranslateStoreError(err, "name", input.Name)
	}
	clearProductCache()

	return product, nil
}

// DeleteProduct fails with the store error when stock, purchase lines or
// machine loads still reference the product.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		return nil, err
	}
	clearProductCache()

	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	return utils.FetchModel[Product](ctx, id)
}

// ordered by name
func ListProducts(ctx context.Context) ([]*Product, error) {
	return utils.ListModel[Product](ctx, "name")
}

func clearProductCache() {
	if err := utils.RemoveRedisList[Product](); err != nil {
		config.LogError(config.GetLogger(), "models", "clearProductCache", "removing product list cache", nil, err)
	}
}
