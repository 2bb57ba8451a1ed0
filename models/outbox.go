package models

import (
	"time"

	"github.com/nexusvending/vending_backend/config"
)

// StockEventRecord is the transactional outbox row written next to every
// stock movement. The dispatcher publishes it after commit.
type StockEventRecord struct {
	ID               int                `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	ReferenceType    StockReferenceType `gorm:"size:20;not null;index" json:"reference_type"`
	ReferenceId      int                `gorm:"index" json:"reference_id"`
	ProductId        int                `gorm:"index;not null" json:"product_id"`
	Quantity         int                `gorm:"not null" json:"quantity"`
	OccurredAt       time.Time          `gorm:"not null" json:"occurred_at"`
	Payload          []byte             `json:"payload"`
	PublishStatus    string             `gorm:"size:20;index;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"` // PENDING|PROCESSING|SENT|FAILED|DEAD
	PublishedAt      *time.Time         `gorm:"index" json:"published_at"`
	PubSubMessageId  *string            `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int                `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time         `gorm:"index;index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time         `gorm:"index" json:"locked_at"`
	LockedBy         *string            `gorm:"size:100" json:"locked_by"`
	LastPublishError *string            `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string             `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func ConvertToStockEventMessage(record StockEventRecord) config.StockEventMessage {
	return config.StockEventMessage{
		ID:            record.ID,
		EventType:     string(record.ReferenceType),
		ReferenceId:   record.ReferenceId,
		ReferenceType: string(record.ReferenceType),
		ProductId:     record.ProductId,
		Quantity:      record.Quantity,
		OccurredAt:    record.OccurredAt,
		Payload:       record.Payload,
		CorrelationId: record.CorrelationId,
	}
}
