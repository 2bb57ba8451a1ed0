package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexusvending/vending_backend/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const keepAliveHistorySize = 10

type PingResult struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type KeepAliveStatus struct {
	InstanceID    string       `json:"instance_id"`
	IsActive      bool         `json:"is_active"`
	IntervalHours float64      `json:"interval_hours"`
	LastPing      *PingResult  `json:"last_ping"`
	PingHistory   []PingResult `json:"ping_history"`
}

// KeepAlive pings the store on a fixed interval so an idle database is not
// suspended. It remembers the latest results, newest first. A nil DB means
// the global connection.
type KeepAlive struct {
	DB         *gorm.DB
	Logger     *logrus.Logger
	Interval   time.Duration
	InstanceID string

	mu      sync.Mutex
	active  bool
	history []PingResult
}

func NewKeepAlive(db *gorm.DB, logger *logrus.Logger, interval time.Duration) *KeepAlive {
	if interval <= 0 {
		interval = 36 * time.Hour
	}
	return &KeepAlive{
		DB:         db,
		Logger:     logger,
		Interval:   interval,
		InstanceID: uuid.NewString(),
	}
}

// Run pings once immediately and then every Interval until ctx is done.
// A second concurrent Run returns at once.
func (k *KeepAlive) Run(ctx context.Context) {
	k.mu.Lock()
	if k.active {
		k.mu.Unlock()
		return
	}
	k.active = true
	k.mu.Unlock()
	defer func() {
		k.mu.Lock()
		k.active = false
		k.mu.Unlock()
		if k.Logger != nil {
			k.Logger.WithField("field", "KeepAlive").Info("keep-alive stopped")
		}
	}()

	if k.Logger != nil {
		k.Logger.WithFields(logrus.Fields{
			"field":       "KeepAlive",
			"instance_id": k.InstanceID,
			"interval":    k.Interval.String(),
		}).Info("keep-alive started")
	}

	k.Ping(ctx)
	ticker := time.NewTicker(k.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Ping(ctx)
		}
	}
}

// Ping runs a trivial query and records the outcome.
func (k *KeepAlive) Ping(ctx context.Context) PingResult {
	result := PingResult{Timestamp: time.Now().UTC()}
	db := k.DB
	if db == nil {
		db = config.GetDB()
	}
	if db == nil {
		result.Error = "database not initialized"
	} else {
		var ids []int
		err := db.WithContext(ctx).Raw("SELECT id FROM products LIMIT 1").Scan(&ids).Error
		if err != nil {
			result.Error = err.Error()
		} else {
			result.Success = true
		}
	}

	k.mu.Lock()
	k.history = append([]PingResult{result}, k.history...)
	if len(k.history) > keepAliveHistorySize {
		k.history = k.history[:keepAliveHistorySize]
	}
	k.mu.Unlock()

	if k.Logger != nil {
		entry := k.Logger.WithFields(logrus.Fields{
			"field":       "KeepAlive",
			"instance_id": k.InstanceID,
		})
		if result.Success {
			entry.Info("keep-alive ping ok")
		} else {
			entry.Warn("keep-alive ping failed: " + result.Error)
		}
	}
	return result
}

func (k *KeepAlive) Status() KeepAliveStatus {
	k.mu.Lock()
	defer k.mu.Unlock()

	history := make([]PingResult, len(k.history))
	copy(history, k.history)
	status := KeepAliveStatus{
		InstanceID:    k.InstanceID,
		IsActive:      k.active,
		IntervalHours: k.Interval.Hours(),
		PingHistory:   history,
	}
	if len(history) > 0 {
		last := history[0]
		status.LastPing = &last
	}
	return status
}
