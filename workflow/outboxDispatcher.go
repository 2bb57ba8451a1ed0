package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublishFunc delivers one stock event and returns the broker message id.
type PublishFunc func(ctx context.Context, msg config.StockEventMessage) (string, error)

// OutboxDispatcher moves stock events from the outbox table to the broker.
type OutboxDispatcher struct {
	DB           *gorm.DB
	Logger       *logrus.Logger
	DispatcherID string
	Publish      PublishFunc

	BatchSize      int
	PollInterval   time.Duration
	LockTimeout    time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func NewOutboxDispatcher(db *gorm.DB, logger *logrus.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{
		DB:             db,
		Logger:         logger,
		DispatcherID:   uuid.NewString(),
		Publish:        config.PublishStockEvent,
		BatchSize:      50,
		PollInterval:   500 * time.Millisecond,
		LockTimeout:    30 * time.Second,
		MaxAttempts:    20,
		InitialBackoff: 5 * time.Second,
	}
}

func (d *OutboxDispatcher) Run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		d.DispatchOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.PollInterval):
		}
	}
}

// DispatchOnce claims one batch of due stock events and publishes them. It
// returns how many were published.
func (d *OutboxDispatcher) DispatchOnce(ctx context.Context) int {
	if d.DB == nil || d.Publish == nil {
		return 0
	}
	now := time.Now().UTC()

	batch, err := d.claimDue(ctx, now)
	if err != nil {
		config.LogError(d.Logger, "workflow", "OutboxDispatcher", "claiming stock events", nil, err)
		return 0
	}

	sent := 0
	for _, rec := range batch {
		pubID, pubErr := d.Publish(ctx, models.ConvertToStockEventMessage(rec))
		res := d.outcome(rec, pubID, pubErr, time.Now().UTC())
		if err := d.settle(ctx, rec.ID, res); err != nil {
			config.LogError(d.Logger, "workflow", "OutboxDispatcher", "settling stock event", rec.ID, err)
		}
		if res.status == models.OutboxPublishStatusSent {
			sent++
		}
	}
	return sent
}

// claimDue selects due events (PENDING or FAILED past next_attempt_at, or
// PROCESSING with a stale lock), buries the ones out of attempts and marks
// the rest PROCESSING for this dispatcher. Only the claimed events are returned.
func (d *OutboxDispatcher) claimDue(ctx context.Context, now time.Time) ([]models.StockEventRecord, error) {
	staleBefore := now.Add(-d.LockTimeout)
	var claimed []models.StockEventRecord

	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("(publish_status IN ? AND (next_attempt_at IS NULL OR next_attempt_at <= ?)) OR (publish_status = ? AND locked_at <= ?)",
				[]string{models.OutboxPublishStatusPending, models.OutboxPublishStatusFailed}, now,
				models.OutboxPublishStatusProcessing, staleBefore).
			Order("id ASC").
			Limit(d.BatchSize)
		if config.SupportsRowLocks(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var due []models.StockEventRecord
		if err := q.Find(&due).Error; err != nil {
			return err
		}

		var exhausted, live []int
		for _, rec := range due {
			if d.MaxAttempts > 0 && rec.PublishAttempts >= d.MaxAttempts {
				exhausted = append(exhausted, rec.ID)
				continue
			}
			live = append(live, rec.ID)
			rec.PublishStatus = models.OutboxPublishStatusProcessing
			rec.PublishAttempts++
			claimed = append(claimed, rec)
		}

		if len(exhausted) > 0 {
			dead := deadOutcome(fmt.Sprintf("max publish attempts exceeded (%d)", d.MaxAttempts))
			if err := tx.Model(&models.StockEventRecord{}).Where("id IN ?", exhausted).Updates(dead.fields()).Error; err != nil {
				return err
			}
		}
		if len(live) > 0 {
			return tx.Model(&models.StockEventRecord{}).Where("id IN ?", live).Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusProcessing,
				"locked_at":          now,
				"locked_by":          d.DispatcherID,
				"publish_attempts":   gorm.Expr("publish_attempts + 1"),
				"last_publish_error": nil,
				"next_attempt_at":    nil,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// stockEventOutcome is the state a claimed event settles into after one
// publish attempt. The lock is always released.
type stockEventOutcome struct {
	status      string
	messageID   *string
	publishedAt *time.Time
	lastError   *string
	nextAttempt *time.Time
}

func (o stockEventOutcome) fields() map[string]interface{} {
	return map[string]interface{}{
		"publish_status":     o.status,
		"pub_sub_message_id": o.messageID,
		"published_at":       o.publishedAt,
		"last_publish_error": o.lastError,
		"next_attempt_at":    o.nextAttempt,
		"locked_at":          nil,
		"locked_by":          nil,
	}
}

func deadOutcome(reason string) stockEventOutcome {
	return stockEventOutcome{status: models.OutboxPublishStatusDead, lastError: &reason}
}

func (d *OutboxDispatcher) outcome(rec models.StockEventRecord, pubID string, pubErr error, now time.Time) stockEventOutcome {
	if pubErr == nil {
		return stockEventOutcome{status: models.OutboxPublishStatusSent, messageID: &pubID, publishedAt: &now}
	}

	fields := logrus.Fields{
		"field":          "OutboxDispatcher",
		"record_id":      rec.ID,
		"product_id":     rec.ProductId,
		"reference_type": rec.ReferenceType,
		"reference_id":   rec.ReferenceId,
		"attempt":        rec.PublishAttempts,
	}
	if d.MaxAttempts > 0 && rec.PublishAttempts >= d.MaxAttempts {
		d.logEntry(fields).Error("stock event moved to DEAD after max attempts: " + pubErr.Error())
		return deadOutcome(pubErr.Error())
	}

	msg := pubErr.Error()
	next := now.Add(d.retryDelay(rec.PublishAttempts))
	fields["next_attempt_at"] = next.Format(time.RFC3339Nano)
	d.logEntry(fields).Error("stock event publish failed: " + msg)
	return stockEventOutcome{status: models.OutboxPublishStatusFailed, lastError: &msg, nextAttempt: &next}
}

func (d *OutboxDispatcher) settle(ctx context.Context, recordID int, res stockEventOutcome) error {
	return d.DB.WithContext(ctx).Model(&models.StockEventRecord{}).
		Where("id = ? AND locked_by = ?", recordID, d.DispatcherID).
		Updates(res.fields()).Error
}

func (d *OutboxDispatcher) logEntry(fields logrus.Fields) *logrus.Entry {
	logger := d.Logger
	if logger == nil {
		logger = config.GetLogger()
	}
	return logger.WithFields(fields)
}

// retryDelay doubles InitialBackoff per attempt, capped at ten minutes.
func (d *OutboxDispatcher) retryDelay(attempt int) time.Duration {
	delay := d.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > time.Minute*10 {
			return time.Minute * 10
		}
	}
	return delay
}
