package models

import (
	"errors"
	"strings"
)

// StockReferenceType tags every stock movement with the document that caused it.
type StockReferenceType string

const (
	StockReferenceTypePurchase         StockReferenceType = "PURCHASE"
	StockReferenceTypePurchaseReversal StockReferenceType = "PURCHASE_REVERSAL"
	StockReferenceTypeMachineLoad      StockReferenceType = "MACHINE_LOAD"
)

func (t StockReferenceType) IsValid() bool {
	switch t {
	case StockReferenceTypePurchase, StockReferenceTypePurchaseReversal, StockReferenceTypeMachineLoad:
		return true
	}
	return false
}

// convert query input to enum type
func ParseStockReferenceType(s string) (StockReferenceType, error) {
	t := StockReferenceType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", errors.New("invalid stock reference type")
	}
	return t, nil
}

// Outbox publish statuses for StockEventRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)
