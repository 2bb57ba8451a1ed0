package workflow

import (
	"context"
	"fmt"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StockDrift is one product whose stock entry disagrees with its ledger.
type StockDrift struct {
	ProductId      int             `json:"product_id"`
	StoredQty      int             `json:"stored_qty"`
	LedgerQty      int             `json:"ledger_qty"`
	StoredUnitCost decimal.Decimal `json:"stored_unit_cost"`
	LedgerUnitCost decimal.Decimal `json:"ledger_unit_cost"`
}

type ledgerTotal struct {
	ProductId int
	Qty       int
}

// RebuildStockFromLedger recomputes every stock entry (or one product's when
// productId > 0) from the stock_histories ledger. Quantity is the sum of the
// signed movements and unit cost is the cost on the latest ledger row. With
// dryRun the drift is reported but nothing is written.
func RebuildStockFromLedger(ctx context.Context, db *gorm.DB, logger *logrus.Logger, productId int, dryRun bool) ([]StockDrift, error) {
	if db == nil {
		return nil, fmt.Errorf("rebuild stock: db is nil")
	}
	if logger == nil {
		logger = config.GetLogger()
	}

	drifts := make([]StockDrift, 0)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.StockHistory{}).
			Select("product_id, COALESCE(SUM(qty), 0) AS qty").
			Group("product_id").
			Order("product_id")
		if productId > 0 {
			q = q.Where("product_id = ?", productId)
		}
		var totals []ledgerTotal
		if err := q.Scan(&totals).Error; err != nil {
			return err
		}

		for _, t := range totals {
			var last models.StockHistory
			if err := tx.Where("product_id = ?", t.ProductId).Order("id DESC").Limit(1).Find(&last).Error; err != nil {
				return err
			}
			var entry models.StockEntry
			if err := tx.Where("product_id = ?", t.ProductId).Limit(1).Find(&entry).Error; err != nil {
				return err
			}
			if entry.ID != 0 && entry.Quantity == t.Qty && entry.UnitCost.Equal(last.UnitCost) {
				continue
			}

			drift := StockDrift{
				ProductId:      t.ProductId,
				StoredQty:      entry.Quantity,
				LedgerQty:      t.Qty,
				StoredUnitCost: entry.UnitCost,
				LedgerUnitCost: last.UnitCost,
			}
			drifts = append(drifts, drift)
			logger.WithFields(logrus.Fields{
				"field":       "RebuildStockFromLedger",
				"product_id":  t.ProductId,
				"stored_qty":  entry.Quantity,
				"ledger_qty":  t.Qty,
				"stored_cost": entry.UnitCost.String(),
				"ledger_cost": last.UnitCost.String(),
				"dry_run":     dryRun,
			}).Info("stock.rebuild.drift")

			if dryRun {
				continue
			}
			if t.Qty < 0 {
				return fmt.Errorf("rebuild stock: ledger for product %d sums to %d", t.ProductId, t.Qty)
			}
			if entry.ID == 0 {
				entry = models.StockEntry{ProductId: t.ProductId}
			}
			entry.Quantity = t.Qty
			entry.UnitCost = last.UnitCost
			if err := tx.Save(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}
