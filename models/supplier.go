package models

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
)

const supplierPhoneMaxLength = 30

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	Phone     string    `gorm:"size:30" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSupplier struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
}

// CreateSupplier(input) (Supplier,error)
// UpdateSupplier(id, input) (Supplier,error)
// DeleteSupplier(id) (Supplier,error)
// GetSupplier(id) (Supplier,error)
// ListSuppliers() ([]Supplier,error)

func (input *NewSupplier) normalize() {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSupplier) validate(ctx context.Context, id int) error {
	if input.Name == "" || input.Phone == "" {
		return utils.NewValidationError("supplier name and phone are required")
	}
	if utf8.RuneCountInString(input.Phone) > supplierPhoneMaxLength {
		return utils.NewValidationError("phone must be at most %d characters", supplierPhoneMaxLength)
	}
	if !utils.LooksLikePhone(input.Phone) {
		return utils.NewValidationError("phone %q is not a valid phone number", input.Phone)
	}
	if region := config.PhoneRegion(); region != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, region); err != nil {
			return utils.NewValidationError("phone %q is not valid for region %s", input.Phone, region)
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Supplier](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {
	input.normalize()
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	supplier := Supplier{
		Name:  input.Name,
		Phone: utils.NormalizePhone(input.Phone),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		return nil, utils.TranslateStoreError(err, "name", input.Name)
	}
	clearSupplierCache()

	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	input.normalize()
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(supplier).
		Updates(map[string]interface{}{
			"Name":  input.Name,
			"Phone": utils.NormalizePhone(input.Phone),
		}).Error
	if err != nil {
		return nil, utils.TranslateStoreError(err, "name", input.Name)
	}
	clearSupplierCache()

	return supplier, nil
}

// DeleteSupplier fails with the store error while purchases reference the supplier.
func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {
	supplier, err := utils.FetchModel[Supplier](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(supplier).Error; err != nil {
		return nil, err
	}
	clearSupplierCache()

	return supplier, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	return utils.FetchModel[Supplier](ctx, id)
}

// ordered by name
func ListSuppliers(ctx context.Context) ([]*Supplier, error) {
	return utils.ListModel[Supplier](ctx, "name")
}

func clearSupplierCache() {
	if err := utils.RemoveRedisList[Supplier](); err != nil {
		config.LogError(config.GetLogger(), "models", "clearSupplierCache", "removing supplier list cache", nil, err)
	}
}
