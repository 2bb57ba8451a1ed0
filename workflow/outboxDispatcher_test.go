package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nexusvending/vending_backend/config"
	"github.com/nexusvending/vending_backend/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchOncePublishesPendingEvents(t *testing.T) {
	db := setupTestDB(t)
	product := seedPurchase(t, 10, "40.00")

	var published []config.StockEventMessage
	d := NewOutboxDispatcher(db, logrus.New())
	d.Publish = func(ctx context.Context, msg config.StockEventMessage) (string, error) {
		published = append(published, msg)
		return "msg-1", nil
	}

	sent := d.DispatchOnce(context.Background())
	assert.Equal(t, 1, sent)
	require.Len(t, published, 1)
	assert.Equal(t, string(models.StockReferenceTypePurchase), published[0].EventType)
	assert.Equal(t, product.ID, published[0].ProductId)
	assert.Equal(t, 10, published[0].Quantity)

	var rec models.StockEventRecord
	require.NoError(t, db.First(&rec).Error)
	assert.Equal(t, models.OutboxPublishStatusSent, rec.PublishStatus)
	assert.Equal(t, 1, rec.PublishAttempts)
	require.NotNil(t, rec.PubSubMessageId)
	assert.Equal(t, "msg-1", *rec.PubSubMessageId)
	assert.Nil(t, rec.LockedBy)

	// nothing left to send
	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
	assert.Len(t, published, 1)
}

func TestDispatchOnceSchedulesRetryOnFailure(t *testing.T) {
	db := setupTestDB(t)
	seedPurchase(t, 10, "40.00")

	d := NewOutboxDispatcher(db, logrus.New())
	d.Publish = func(ctx context.Context, msg config.StockEventMessage) (string, error) {
		return "", errors.New("broker unavailable")
	}

	assert.Equal(t, 0, d.DispatchOnce(context.Background()))

	var rec models.StockEventRecord
	require.NoError(t, db.First(&rec).Error)
	assert.Equal(t, models.OutboxPublishStatusFailed, rec.PublishStatus)
	require.NotNil(t, rec.LastPublishError)
	assert.Equal(t, "broker unavailable", *rec.LastPublishError)
	require.NotNil(t, rec.NextAttemptAt)
	assert.True(t, rec.NextAttemptAt.After(rec.CreatedAt))
}

func TestDispatchOnceMarksDeadAfterMaxAttempts(t *testing.T) {
	db := setupTestDB(t)
	seedPurchase(t, 10, "40.00")

	d := NewOutboxDispatcher(db, logrus.New())
	d.MaxAttempts = 1
	d.Publish = func(ctx context.Context, msg config.StockEventMessage) (string, error) {
		return "", errors.New("rejected")
	}
	d.DispatchOnce(context.Background())

	var rec models.StockEventRecord
	require.NoError(t, db.First(&rec).Error)
	assert.Equal(t, models.OutboxPublishStatusDead, rec.PublishStatus)
	assert.Nil(t, rec.NextAttemptAt)
}

func TestDispatchOnceBuriesExhaustedEventsWithoutPublishing(t *testing.T) {
	db := setupTestDB(t)
	seedPurchase(t, 10, "40.00")
	require.NoError(t, db.Model(&models.StockEventRecord{}).Where("1 = 1").Updates(map[string]interface{}{
		"publish_status":   models.OutboxPublishStatusFailed,
		"publish_attempts": 3,
	}).Error)

	calls := 0
	d := NewOutboxDispatcher(db, logrus.New())
	d.MaxAttempts = 3
	d.Publish = func(ctx context.Context, msg config.StockEventMessage) (string, error) {
		calls++
		return "msg", nil
	}

	assert.Equal(t, 0, d.DispatchOnce(context.Background()))
	assert.Equal(t, 0, calls)

	var rec models.StockEventRecord
	require.NoError(t, db.First(&rec).Error)
	assert.Equal(t, models.OutboxPublishStatusDead, rec.PublishStatus)
	assert.Equal(t, 3, rec.PublishAttempts)
	require.NotNil(t, rec.LastPublishError)
	assert.Contains(t, *rec.LastPublishError, "max publish attempts")
}

func TestRetryDelay(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	assert.Equal(t, d.InitialBackoff, d.retryDelay(1))
	assert.Equal(t, 4*d.InitialBackoff, d.retryDelay(3))
	assert.Equal(t, 10*time.Minute, d.retryDelay(50))
}
