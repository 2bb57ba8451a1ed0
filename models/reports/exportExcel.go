package reports

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const stockSheetName = "Stock"

var stockSheetHeadings = []string{
	"Product", "Purchased", "Reversed", "Loaded", "In Stock", "Unit Cost", "Sale Price", "Stock Value",
}

// BuildStockWorkbook renders the stock summary as a single-sheet workbook.
func BuildStockWorkbook(data []*StockSummaryReportResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", stockSheetName); err != nil {
		return nil, err
	}

	for i, h := range stockSheetHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(stockSheetName, cell, h); err != nil {
			return nil, err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(stockSheetName, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, d := range data {
		row := i + 2
		values := []interface{}{
			d.ProductName,
			d.QtyPurchased,
			d.QtyReversed,
			d.QtyLoaded,
			d.ClosingStock,
			d.UnitCost.Round(4).InexactFloat64(),
			d.SalePrice.InexactFloat64(),
			d.StockValue.InexactFloat64(),
		}
		if err := f.SetSheetRow(stockSheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteStockWorkbook streams the workbook to w.
func WriteStockWorkbook(w io.Writer, data []*StockSummaryReportResponse) error {
	f, err := BuildStockWorkbook(data)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// SaveStockWorkbook writes the workbook to filename.
func SaveStockWorkbook(filename string, data []*StockSummaryReportResponse) error {
	f, err := BuildStockWorkbook(data)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.SaveAs(filename)
}
