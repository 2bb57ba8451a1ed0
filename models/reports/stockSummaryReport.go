package reports

import (
	"context"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models"
	"github.com/shopspring/decimal"
)

type StockSummaryReportResponse struct {
	ProductId       int             `json:"productId"`
	ProductName     string          `json:"productName"`
	PriceMultiplier decimal.Decimal `json:"priceMultiplier"`
	QtyPurchased    int             `json:"qtyPurchased"`
	QtyReversed     int             `json:"qtyReversed"`
	QtyLoaded       int             `json:"qtyLoaded"`
	ClosingStock    int             `json:"closingStock"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	SalePrice       decimal.Decimal `json:"salePrice"`
	StockValue      decimal.Decimal `json:"stockValue"`
}

// GetStockSummaryReport lists every product with its ledger movements and
// current stock, ordered by product name.
func GetStockSummaryReport(ctx context.Context) ([]*StockSummaryReportResponse, error) {

	sql := `
SELECT
    p.id AS product_id,
    p.name AS product_name,
    p.price_multiplier,
    COALESCE(l.qty_purchased, 0) AS qty_purchased,
    COALESCE(l.qty_reversed, 0) AS qty_reversed,
    COALESCE(l.qty_loaded, 0) AS qty_loaded,
    COALESCE(se.quantity, 0) AS closing_stock,
    COALESCE(se.unit_cost, 0) AS unit_cost
FROM products p
LEFT JOIN stock_entries se ON se.product_id = p.id
LEFT JOIN (
    SELECT
        product_id,
        SUM(CASE WHEN reference_type = @purchase THEN qty ELSE 0 END) AS qty_purchased,
        SUM(CASE WHEN reference_type = @reversal THEN -qty ELSE 0 END) AS qty_reversed,
        SUM(CASE WHEN reference_type = @load THEN -qty ELSE 0 END) AS qty_loaded
    FROM stock_histories
    GROUP BY product_id
) l ON l.product_id = p.id
ORDER BY p.name
`
	var records []*StockSummaryReportResponse
	db := config.GetDB()
	err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"purchase": models.StockReferenceTypePurchase,
		"reversal": models.StockReferenceTypePurchaseReversal,
		"load":     models.StockReferenceTypeMachineLoad,
	}).Scan(&records).Error
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		r.SalePrice = models.SalePrice(r.UnitCost, r.PriceMultiplier)
		r.StockValue = models.Round2(r.UnitCost.Mul(decimal.NewFromInt(int64(r.ClosingStock))))
	}
	return records, nil
}
