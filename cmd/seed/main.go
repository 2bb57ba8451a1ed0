// seed loads the sample catalog (products and suppliers). Rows that already
// exist are left alone, so it can be rerun.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models"
	"github.com/nexusvending/vending_backend/utils"
	"github.com/shopspring/decimal"
)

var sampleProducts = []struct {
	Name       string
	Multiplier string
}{
	{"Alfajor", "1.5"},
	{"Galletas", "1.4"},
	{"Chocolates", "1.6"},
	{"Bebida Cola", "1.3"},
	{"Agua Mineral", "1.2"},
}

var sampleSuppliers = []models.NewSupplier{
	{Name: "Distribuidora Central", Phone: "1234567890"},
	{Name: "Mayorista del Norte", Phone: "0987654321"},
	{Name: "Proveedor Express", Phone: "1122334455"},
}

func main() {
	migrate := flag.Bool("migrate", true, "Run AutoMigrate before seeding")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if *migrate {
		if err := models.AutoMigrate(); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	created, skipped := 0, 0
	for _, p := range sampleProducts {
		m := decimal.RequireFromString(p.Multiplier)
		_, err := models.CreateProduct(ctx, &models.NewProduct{Name: p.Name, PriceMultiplier: &m})
		if ok, err := tally(err); err != nil {
			fmt.Fprintf(os.Stderr, "product %q: %v\n", p.Name, err)
			os.Exit(1)
		} else if ok {
			created++
		} else {
			skipped++
		}
	}
	for _, s := range sampleSuppliers {
		input := s
		_, err := models.CreateSupplier(ctx, &input)
		if ok, err := tally(err); err != nil {
			fmt.Fprintf(os.Stderr, "supplier %q: %v\n", s.Name, err)
			os.Exit(1)
		} else if ok {
			created++
		} else {
			skipped++
		}
	}

	fmt.Printf("seed done: created=%d skipped=%d\n", created, skipped)
}

// tally reports whether a row was created; duplicates are not errors.
func tally(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, utils.ErrDuplicateKey) {
		return false, nil
	}
	return false, err
}
