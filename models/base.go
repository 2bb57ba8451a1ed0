package models

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nexusvending/vending_backend/utils"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// parseDate accepts YYYY-MM-DD or RFC3339. Blank input yields the zero time.
func parseDate(field string, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, utils.NewValidationError("%s must be a date (YYYY-MM-DD)", field)
	}
	return t, nil
}

// requiredDate is parseDate that rejects blank input.
func requiredDate(field string, value string) (time.Time, error) {
	t, err := parseDate(field, value)
	if err != nil {
		return t, err
	}
	if t.IsZero() {
		return t, utils.NewValidationError("%s is required", field)
	}
	return t, nil
}

// write a stock event into the outbox within the caller's transaction
func publishStockEvent(ctx context.Context, tx *gorm.DB, refType StockReferenceType, refId int, productId int, qty int, occurredAt time.Time, obj interface{}) error {
	payload, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	record := StockEventRecord{
		ReferenceType: refType,
		ReferenceId:   refId,
		ProductId:     productId,
		Quantity:      qty,
		OccurredAt:    occurredAt,
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
		CorrelationId: correlationId,
	}
	return tx.WithContext(ctx).Create(&record).Error
}
