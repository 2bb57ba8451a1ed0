package models

import (
	"context"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/utils"
)

// StockEventStatus summarizes the outbox rows written for one document.
type StockEventStatus struct {
	ReferenceType StockReferenceType `json:"reference_type"`
	ReferenceId   int                `json:"reference_id"`
	Total         int                `json:"total"`
	Pending       int                `json:"pending"`
	Sent          int                `json:"sent"`
	Failed        int                `json:"failed"`
	Dead          int                `json:"dead"`
	Events        []*StockEventView  `json:"events"`
}

type StockEventView struct {
	RecordId         int        `json:"record_id"`
	ProductId        int        `json:"product_id"`
	Quantity         int        `json:"quantity"`
	PublishStatus    string     `json:"publish_status"`
	PublishAttempts  int        `json:"publish_attempts"`
	NextAttemptAt    *time.Time `json:"next_attempt_at"`
	LastPublishError *string    `json:"last_publish_error"`
	CreatedAt        time.Time  `json:"created_at"`
	PublishedAt      *time.Time `json:"published_at"`
}

func GetStockEventStatus(ctx context.Context, referenceType StockReferenceType, referenceId int) (*StockEventStatus, error) {
	db := config.GetDB()
	var records []StockEventRecord
	if err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceId).
		Order("id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, utils.ErrorRecordNotFound
	}

	status := StockEventStatus{
		ReferenceType: referenceType,
		ReferenceId:   referenceId,
		Total:         len(records),
		Events:        make([]*StockEventView, 0, len(records)),
	}
	for _, rec := range records {
		switch rec.PublishStatus {
		case OutboxPublishStatusSent:
			status.Sent++
		case OutboxPublishStatusFailed:
			status.Failed++
		case OutboxPublishStatusDead:
			status.Dead++
		default:
			// PROCESSING counts as pending until the dispatcher settles it
			status.Pending++
		}
		status.Events = append(status.Events, &StockEventView{
			RecordId:         rec.ID,
			ProductId:        rec.ProductId,
			Quantity:         rec.Quantity,
			PublishStatus:    rec.PublishStatus,
			PublishAttempts:  rec.PublishAttempts,
			NextAttemptAt:    rec.NextAttemptAt,
			LastPublishError: rec.LastPublishError,
			CreatedAt:        rec.CreatedAt,
			PublishedAt:      rec.PublishedAt,
		})
	}
	return &status, nil
}

// ReplayStockEvents puts the unsent events of a document back in the queue.
// Attempts restart from zero so DEAD rows get a full retry budget.
func ReplayStockEvents(ctx context.Context, referenceType StockReferenceType, referenceId int) (*StockEventStatus, error) {
	db := config.GetDB()
	res := db.WithContext(ctx).
		Model(&StockEventRecord{}).
		Where("reference_type = ? AND reference_id = ? AND publish_status IN ?", referenceType, referenceId,
			[]string{OutboxPublishStatusFailed, OutboxPublishStatusDead}).
		Updates(map[string]interface{}{
			"publish_status":     OutboxPublishStatusPending,
			"publish_attempts":   0,
			"next_attempt_at":    nil,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	return GetStockEventStatus(ctx, referenceType, referenceId)
}
