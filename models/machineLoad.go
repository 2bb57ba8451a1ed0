package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
)

// MachineLoad records units moved from stock into a vending machine. Loads are immutable.
type MachineLoad struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ProductId   int       `gorm:"index;not null" json:"product_id"`
	Product     *Product  `gorm:"foreignKey:ProductId;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity    int       `gorm:"not null;check:chk_machine_loads_quantity,quantity > 0" json:"quantity"`
	LoadDate    time.Time `gorm:"index;not null" json:"load_date"`
	Responsible string    `gorm:"size:255;not null" json:"responsible"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewMachineLoad struct {
	ProductId   int    `json:"product_id" binding:"required"`
	Quantity    int    `json:"quantity"`
	LoadDate    string `json:"load_date"`
	Responsible string `json:"responsible"`
}

func (l MachineLoad) GetCursor() string {
	return idCursor(l.ID)
}

func (input *NewMachineLoad) validate(ctx context.Context) (time.Time, error) {
	if input.Quantity <= 0 {
		return time.Time{}, utils.NewValidationError("quantity must be greater than zero")
	}
	input.Responsible = strings.TrimSpace(input.Responsible)
	if input.Responsible == "" {
		if v, ok := utils.GetResponsibleFromContext(ctx); ok {
			input.Responsible = strings.TrimSpace(v)
		}
	}
	if input.Responsible == "" {
		return time.Time{}, utils.NewValidationError("responsible is required")
	}
	loadDate, err := parseDate("load date", input.LoadDate)
	if err != nil {
		return time.Time{}, err
	}
	if loadDate.IsZero() {
		loadDate = utils.StartOfDay(time.Now().UTC())
	}
	// validate product
	if err := utils.ValidateResourceId[Product](ctx, input.ProductId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return time.Time{}, utils.NewValidationError("product %d not found", input.ProductId)
		}
		return time.Time{}, err
	}
	available, err := AvailableQuantity(ctx, input.ProductId)
	if err != nil {
		return time.Time{}, err
	}
	if input.Quantity > available {
		return time.Time{}, utils.NewValidationError(
			"insufficient stock for product %d: available %d, requested %d", input.ProductId, available, input.Quantity)
	}
	return loadDate, nil
}

// RecordMachineLoad takes quantity units of a product out of stock. The
// stored unit cost is not touched.
func RecordMachineLoad(ctx context.Context, input *NewMachineLoad) (*MachineLoad, error) {
	loadDate, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	release, err := lockProducts(ctx, []int{input.ProductId}, "RecordMachineLoad")
	if err != nil {
		return nil, err
	}
	defer release()

	load := MachineLoad{
		ProductId:   input.ProductId,
		Quantity:    input.Quantity,
		LoadDate:    loadDate,
		Responsible: input.Responsible,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&load).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	// availability is checked again under the row lock
	_, err = applyStockDelta(ctx, tx, stockMovement{
		ProductId:     load.ProductId,
		Delta:         -load.Quantity,
		Date:          load.LoadDate,
		ReferenceType: StockReferenceTypeMachineLoad,
		ReferenceId:   load.ID,
		Description:   "Machine load by " + load.Responsible,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &load, nil
}

// newest load date first
func ListMachineLoads(ctx context.Context) ([]*MachineLoad, error) {
	db := config.GetDB()
	loads := make([]*MachineLoad, 0)
	err := db.WithContext(ctx).Preload("Product").
		Order("load_date DESC").Order("id DESC").
		Find(&loads).Error
	if err != nil {
		return nil, err
	}
	return loads, nil
}

func PaginateMachineLoads(ctx context.Context, limit int, after *string) (*Connection[MachineLoad], error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&MachineLoad{}).Preload("Product")
	return FetchPagePureCursor[MachineLoad](dbCtx, pageLimit(limit, DefaultMachineLoadPageSize), after, "id", "<")
}
