package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID            int             `gorm:"primary_key" json:"id"`
	SupplierId    int             `gorm:"index;not null" json:"supplier_id"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierId;constraint:OnDelete:RESTRICT" json:"supplier,omitempty"`
	InvoiceNumber string          `gorm:"size:100;not null;uniqueIndex" json:"invoice_number"`
	PurchaseDate  time.Time       `gorm:"index;not null" json:"purchase_date"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	Lines         []*PurchaseLine `gorm:"foreignKey:PurchaseId;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type PurchaseLine struct {
	ID         int             `gorm:"primary_key" json:"id"`
	PurchaseId int             `gorm:"index;not null" json:"purchase_id"`
	ProductId  int             `gorm:"index;not null" json:"product_id"`
	Product    *Product        `gorm:"foreignKey:ProductId;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity   int             `gorm:"not null;check:chk_purchase_lines_quantity,quantity > 0" json:"quantity"`
	LineTotal  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"line_total"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(24,10);not null" json:"unit_cost"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPurchase struct {
	SupplierId    int                `json:"supplier_id" binding:"required"`
	InvoiceNumber string             `json:"invoice_number" binding:"required"`
	PurchaseDate  string             `json:"purchase_date" binding:"required"`
	Lines         []*NewPurchaseLine `json:"lines" binding:"required,min=1,dive"`
}

type NewPurchaseLine struct {
	ProductId int             `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// RecordPurchase(input) (Purchase,error)
// DeletePurchase(id) (Purchase,error)
// GetPurchase(id) (Purchase,error)
// ListPurchases() ([]Purchase,error)
// PaginatePurchases(limit, after) (Connection,error)

func (p Purchase) GetCursor() string {
	return idCursor(p.ID)
}

func (input *NewPurchase) productIds() []int {
	ids := make([]int, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.ProductId)
	}
	return ids
}

func (input *NewPurchase) validate(ctx context.Context) (time.Time, error) {
	input.InvoiceNumber = strings.TrimSpace(input.InvoiceNumber)
	if input.InvoiceNumber == "" {
		return time.Time{}, utils.NewValidationError("invoice number is required")
	}
	purchaseDate, err := requiredDate("purchase date", input.PurchaseDate)
	if err != nil {
		return time.Time{}, err
	}
	if len(input.Lines) == 0 {
		return time.Time{}, utils.NewValidationError("purchase needs at least one line")
	}
	for i, line := range input.Lines {
		if line == nil {
			return time.Time{}, utils.NewValidationError("line %d is empty", i+1)
		}
		if line.ProductId <= 0 {
			return time.Time{}, utils.NewValidationError("line %d: product is required", i+1)
		}
		if line.Quantity <= 0 {
			return time.Time{}, utils.NewValidationError("line %d: quantity must be greater than zero", i+1)
		}
		if !line.LineTotal.IsPositive() {
			return time.Time{}, utils.NewValidationError("line %d: line total must be greater than zero", i+1)
		}
	}
	// validate supplier
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return time.Time{}, utils.NewValidationError("supplier %d not found", input.SupplierId)
		}
		return time.Time{}, err
	}
	// validate products
	if err := utils.ValidateResourcesId[Product](ctx, input.productIds()); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return time.Time{}, utils.NewValidationError("product not found")
		}
		return time.Time{}, err
	}
	// validate unique invoice number
	if err := utils.ValidateUnique[Purchase](ctx, "invoice_number", input.InvoiceNumber, 0); err != nil {
		return time.Time{}, err
	}
	return purchaseDate, nil
}

// RecordPurchase stores the purchase with its lines and adds every line to
// stock at the line's unit cost, all in one transaction.
func RecordPurchase(ctx context.Context, input *NewPurchase) (*Purchase, error) {
	purchaseDate, err := input.validate(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]*PurchaseLine, 0, len(input.Lines))
	total := decimal.Zero
	for _, in := range input.Lines {
		line := &PurchaseLine{
			ProductId: in.ProductId,
			Quantity:  in.Quantity,
			LineTotal: in.LineTotal,
			UnitCost:  UnitCost(in.LineTotal, in.Quantity),
		}
		lines = append(lines, line)
		total = total.Add(LineSubtotal(*line))
	}
	purchase := Purchase{
		SupplierId:    input.SupplierId,
		InvoiceNumber: input.InvoiceNumber,
		PurchaseDate:  purchaseDate,
		Total:         total,
		Lines:         lines,
	}

	release, err := lockProducts(ctx, input.productIds(), "RecordPurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}
	// db action
	if err := tx.Create(&purchase).Error; err != nil {
		tx.Rollback()
		return nil, utils.TranslateStoreError(err, "invoice_number", input.InvoiceNumber)
	}

	for _, line := range purchase.Lines {
		unitCost := line.UnitCost
		_, err := applyStockDelta(ctx, tx, stockMovement{
			ProductId:     line.ProductId,
			Delta:         line.Quantity,
			UnitCost:      &unitCost,
			Date:          purchase.PurchaseDate,
			ReferenceType: StockReferenceTypePurchase,
			ReferenceId:   purchase.ID,
			DetailId:      line.ID,
			Description:   fmt.Sprintf("Purchase #%s", purchase.InvoiceNumber),
		})
		if err != nil {
			tx.Rollback()
			config.LogError(config.GetLogger(), "models", "RecordPurchase", "updating stock", line, err)
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, utils.TranslateStoreError(err, "invoice_number", input.InvoiceNumber)
	}

	return &purchase, nil
}

// DeletePurchase removes the purchase and its lines and takes every line's
// quantity back out of stock. Unit costs are left as they are. The delete is
// rejected when units from the purchase were already loaded into machines.
func DeletePurchase(ctx context.Context, id int) (*Purchase, error) {
	purchase, err := utils.FetchModel[Purchase](ctx, id, "Lines")
	if err != nil {
		return nil, err
	}

	productIds := make([]int, 0, len(purchase.Lines))
	for _, line := range purchase.Lines {
		productIds = append(productIds, line.ProductId)
	}
	release, err := lockProducts(ctx, productIds, "DeletePurchase")
	if err != nil {
		return nil, err
	}
	defer release()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, line := range purchase.Lines {
		_, err := applyStockDelta(ctx, tx, stockMovement{
			ProductId:     line.ProductId,
			Delta:         -line.Quantity,
			Date:          now,
			ReferenceType: StockReferenceTypePurchaseReversal,
			ReferenceId:   purchase.ID,
			DetailId:      line.ID,
			Description:   fmt.Sprintf("Purchase #%s deleted", purchase.InvoiceNumber),
		})
		if err != nil {
			tx.Rollback()
			if utils.IsValidationError(err) {
				return nil, utils.NewValidationError(
					"cannot delete purchase %s: %d units of product %d are no longer in stock",
					purchase.InvoiceNumber, line.Quantity, line.ProductId)
			}
			return nil, err
		}
	}

	if err := tx.Where("purchase_id = ?", purchase.ID).Delete(&PurchaseLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&Purchase{}, purchase.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

func GetPurchase(ctx context.Context, id int) (*Purchase, error) {
	return utils.FetchModel[Purchase](ctx, id, "Supplier", "Lines", "Lines.Product")
}

// newest purchase date first
func ListPurchases(ctx context.Context) ([]*Purchase, error) {
	db := config.GetDB()
	purchases := make([]*Purchase, 0)
	err := db.WithContext(ctx).
		Preload("Supplier").Preload("Lines").Preload("Lines.Product").
		Order("purchase_date DESC").Order("id DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// newest purchases first
func PaginatePurchases(ctx context.Context, limit int, after *string) (*Connection[Purchase], error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Purchase{}).
		Preload("Supplier").Preload("Lines").Preload("Lines.Product")
	return FetchPagePureCursor[Purchase](dbCtx, pageLimit(limit, DefaultPurchasePageSize), after, "id", "<")
}
