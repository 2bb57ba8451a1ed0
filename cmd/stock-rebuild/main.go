package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/workflow"
)

func main() {
	productID := flag.Int("product-id", 0, "Optional: only rebuild this product")
	dryRun := flag.Bool("dry-run", true, "Report drift without writing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	drifts, err := workflow.RebuildStockFromLedger(context.Background(), db, config.GetLogger(), *productID, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}
	for _, d := range drifts {
		fmt.Printf("product=%d qty %d -> %d unit_cost %s -> %s\n",
			d.ProductId, d.StoredQty, d.LedgerQty, d.StoredUnitCost.StringFixed(4), d.LedgerUnitCost.StringFixed(4))
	}
	if *dryRun {
		fmt.Printf("dry run: %d product(s) drifted; rerun with -dry-run=false to fix\n", len(drifts))
		return
	}
	fmt.Printf("rebuilt %d product(s)\n", len(drifts))
}
