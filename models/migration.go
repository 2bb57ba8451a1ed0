package models

import (
	"log"

	"github.com/nexusvending/vending_backend/config"
)

// order matters: referenced tables first
var allModels = []interface{}{
	&Product{}, &Supplier{},
	&Purchase{}, &PurchaseLine{},
	&StockEntry{}, &StockHistory{},
	&MachineLoad{},
	&Quote{}, &QuoteLine{},
	&DeliveryNote{}, &DeliveryNoteLine{},
	&StockEventRecord{},
}

func AutoMigrate() error {
	return config.GetDB().AutoMigrate(allModels...)
}

func MigrateTable() {
	if err := AutoMigrate(); err != nil {
		log.Fatal(err)
	}
}
