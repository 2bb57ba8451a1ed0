package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockEntry holds on-hand quantity and the last unit cost of one product.
type StockEntry struct {
	ID        int             `gorm:"primary_key" json:"id"`
	ProductId int             `gorm:"not null;uniqueIndex" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductId;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int             `gorm:"not null;default:0;check:chk_stock_entries_quantity,quantity >= 0" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(24,10);not null;default:0" json:"unit_cost"`
	SalePrice string          `gorm:"-" json:"sale_price"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockHistory is the append-only movement ledger. Qty is signed.
type StockHistory struct {
	ID                int                `gorm:"primary_key" json:"id"`
	ProductId         int                `gorm:"index;not null" json:"product_id"`
	StockDate         time.Time          `gorm:"not null" json:"stock_date"`
	Qty               int                `gorm:"not null" json:"qty"`
	ClosingQty        int                `gorm:"not null" json:"closing_qty"`
	UnitCost          decimal.Decimal    `gorm:"type:decimal(24,10);default:0" json:"unit_cost"`
	Description       string             `gorm:"size:255" json:"description"`
	ReferenceType     StockReferenceType `gorm:"size:20;not null;index" json:"reference_type"`
	ReferenceID       int                `gorm:"index" json:"reference_id"`
	ReferenceDetailID int                `json:"reference_detail_id"`
	IsReversal        bool               `gorm:"not null;default:false" json:"is_reversal"`
	CreatedAt         time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

func (s StockEntry) GetCursor() string {
	return idCursor(s.ID)
}

func (s *StockEntry) fillSalePrice() {
	if s.Product == nil {
		s.SalePrice = FormatMoney(decimal.Zero)
		return
	}
	s.SalePrice = FormatMoney(SalePrice(s.UnitCost, s.Product.PriceMultiplier))
}

// stockMovement describes one change applied through applyStockDelta.
type stockMovement struct {
	ProductId     int
	Delta         int
	UnitCost      *decimal.Decimal // nil keeps the stored cost
	Date          time.Time
	ReferenceType StockReferenceType
	ReferenceId   int
	DetailId      int
	Description   string
}

// lockStockEntry reads the product's stock row inside tx, FOR UPDATE where
// the dialect supports it. Returns nil when the product has no entry yet.
func lockStockEntry(tx *gorm.DB, productId int) (*StockEntry, error) {
	q := tx.Where("product_id = ?", productId)
	if config.SupportsRowLocks(tx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var entry StockEntry
	err := q.Limit(1).Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

// applyStockDelta upserts the product's stock entry and appends ledger and
// outbox rows. A delta that would leave the quantity negative is rejected.
func applyStockDelta(ctx context.Context, tx *gorm.DB, m stockMovement) (*StockEntry, error) {
	entry, err := lockStockEntry(tx, m.ProductId)
	if err != nil {
		return nil, err
	}

	available := 0
	if entry != nil {
		available = entry.Quantity
	}
	closing := available + m.Delta
	if closing < 0 {
		return nil, utils.NewValidationError(
			"insufficient stock for product %d: available %d, requested %d", m.ProductId, available, -m.Delta)
	}

	now := time.Now().UTC()
	if entry == nil {
		entry = &StockEntry{
			ProductId: m.ProductId,
			Quantity:  closing,
			UpdatedAt: now,
		}
		if m.UnitCost != nil {
			entry.UnitCost = *m.UnitCost
		}
		if err := tx.Create(entry).Error; err != nil {
			return nil, err
		}
	} else {
		entry.Quantity = closing
		if m.UnitCost != nil {
			entry.UnitCost = *m.UnitCost
		}
		entry.UpdatedAt = now
		err := tx.Model(&StockEntry{}).Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"quantity":   entry.Quantity,
				"unit_cost":  entry.UnitCost,
				"updated_at": entry.UpdatedAt,
			}).Error
		if err != nil {
			return nil, err
		}
	}

	history := StockHistory{
		ProductId:         m.ProductId,
		StockDate:         m.Date,
		Qty:               m.Delta,
		ClosingQty:        closing,
		UnitCost:          entry.UnitCost,
		Description:       m.Description,
		ReferenceType:     m.ReferenceType,
		ReferenceID:       m.ReferenceId,
		ReferenceDetailID: m.DetailId,
		IsReversal:        m.ReferenceType == StockReferenceTypePurchaseReversal,
	}
	if err := tx.Create(&history).Error; err != nil {
		return nil, err
	}

	if err := publishStockEvent(ctx, tx, m.ReferenceType, m.ReferenceId, m.ProductId, m.Delta, m.Date, history); err != nil {
		return nil, err
	}

	return entry, nil
}

// lockProducts takes the redis stock lock for each product in ascending id
// order and returns a func releasing all of them.
func lockProducts(ctx context.Context, productIds []int, funcName string) (func(), error) {
	ids := utils.UniqueSlice(productIds)
	sort.Ints(ids)
	releases := make([]func(), 0, len(ids))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, id := range ids {
		release, err := utils.ObtainLock(ctx, "stock", fmt.Sprint(id), "models", funcName)
		if err != nil {
			releaseAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

/* read accessors */

// AvailableQuantity returns the on-hand quantity, 0 when no entry exists.
func AvailableQuantity(ctx context.Context, productId int) (int, error) {
	entry, err := GetStockEntry(ctx, productId)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return entry.Quantity, nil
}

func GetStockEntry(ctx context.Context, productId int) (*StockEntry, error) {
	db := config.GetDB()
	var entry StockEntry
	err := db.WithContext(ctx).Preload("Product").Where("product_id = ?", productId).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	entry.fillSalePrice()
	return &entry, nil
}

// most recently updated first
func ListStock(ctx context.Context) ([]*StockEntry, error) {
	db := config.GetDB()
	entries := make([]*StockEntry, 0)
	err := db.WithContext(ctx).Preload("Product").
		Order("updated_at DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.fillSalePrice()
	}
	return entries, nil
}

// newest entries first
func PaginateStock(ctx context.Context, limit int, after *string) (*Connection[StockEntry], error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&StockEntry{}).Preload("Product")
	conn, err := FetchPagePureCursor[StockEntry](dbCtx, pageLimit(limit, DefaultStockPageSize), after, "id", "<")
	if err != nil {
		return nil, err
	}
	for i := range conn.Edges {
		conn.Edges[i].Node.fillSalePrice()
	}
	return conn, nil
}

// ledger rows of one product, oldest first
func ListStockHistories(ctx context.Context, productId int) ([]*StockHistory, error) {
	if err := utils.ValidateResourceId[Product](ctx, productId); err != nil {
		return nil, err
	}
	db := config.GetDB()
	histories := make([]*StockHistory, 0)
	err := db.WithContext(ctx).Where("product_id = ?", productId).Order("id").Find(&histories).Error
	if err != nil {
		return nil, err
	}
	return histories, nil
}
