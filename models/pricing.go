package models

import "github.com/shopspring/decimal"

// DefaultPriceMultiplier applies when a product is created without one.
var DefaultPriceMultiplier = decimal.NewFromFloat(1.5)

// unit costs are stored at full scale and only rounded when shown
const unitCostPlaces = 10

func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// UnitCost is lineTotal / quantity, or zero when quantity is not positive.
func UnitCost(lineTotal decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return lineTotal.DivRound(decimal.NewFromInt(int64(quantity)), unitCostPlaces)
}

// SalePrice is round2(unitCost * multiplier); zero when either factor is not positive.
func SalePrice(unitCost decimal.Decimal, multiplier decimal.Decimal) decimal.Decimal {
	if !unitCost.IsPositive() || !multiplier.IsPositive() {
		return decimal.Zero
	}
	return Round2(unitCost.Mul(multiplier))
}

// LineSubtotal is the amount paid for the whole line.
func LineSubtotal(line PurchaseLine) decimal.Decimal {
	return line.LineTotal
}

// FormatMoney renders two fixed decimals, e.g. "0.00".
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
