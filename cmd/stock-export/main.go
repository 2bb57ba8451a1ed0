package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models/reports"
)

func main() {
	out := flag.String("out", "", "Output file (default stock-YYYYMMDD.xlsx)")
	flag.Parse()

	filename := *out
	if filename == "" {
		filename = "stock-" + time.Now().UTC().Format("20060102") + ".xlsx"
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	data, err := reports.GetStockSummaryReport(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "stock summary: %v\n", err)
		os.Exit(1)
	}
	if err := reports.SaveStockWorkbook(filename, data); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d product(s) to %s\n", len(data), filename)
}
