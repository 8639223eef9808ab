// Package inference sequences preprocess, model invocation and
// classification, and owns the caching and persistence around one prediction.
package inference

import (
	"database/sql"
	"sync"
	"time"

	"growda-api/internal/database"
	"growda-api/internal/shared"

	"go.uber.org/zap"
)

// FlushCache batches completed prediction rows and writes them to MySQL on a
// timer, or immediately once the last inflight prediction finishes.
type FlushCache struct {
	mu       sync.Mutex
	pending  []database.PredictionRecord
	inflight uint64
	timer    *time.Timer
	log      *zap.SugaredLogger
	save     func([]database.PredictionRecord) error
}

func NewFlushCache(log *zap.SugaredLogger, db *sql.DB) *FlushCache {
	return &FlushCache{
		log: log,
		save: func(records []database.PredictionRecord) error {
			return database.SavePredictions(db, records, log)
		},
	}
}

func (c *FlushCache) AddInFlight() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

// RemoveInFlight decrements the inflight count. When the last inflight
// prediction finishes with rows pending, the batch is flushed right away
// instead of waiting out the timer.
func (c *FlushCache) RemoveInFlight() {
	c.mu.Lock()
	c.inflight--
	trigger := c.inflight == 0 && len(c.pending) > 0 && c.stopTimerLocked()
	c.mu.Unlock()

	if trigger {
		c.log.Info("Executing flush from no more inflights")
		go c.flushWithRetry()
	}
}

func (c *FlushCache) AddPrediction(rec database.PredictionRecord) {
	c.mu.Lock()
	c.pending = append(c.pending, rec)

	// Case fresh batch, set timer
	if c.timer == nil {
		c.log.Info("Registering flush for prediction batch")
		c.timer = time.AfterFunc(shared.FlushInterval, c.flushWithRetry)
	}

	// Case nothing inflight, flush right away
	trigger := c.inflight == 0 && c.stopTimerLocked()
	c.mu.Unlock()

	if trigger {
		go c.flushWithRetry()
	}
}

// stopTimerLocked stops a pending timer and reports whether the caller now
// owns the flush. A false return with a non-nil timer means the timer already
// fired and its goroutine owns it.
func (c *FlushCache) stopTimerLocked() bool {
	if c.timer == nil {
		return false
	}
	if !c.timer.Stop() {
		return false
	}
	c.timer = nil
	return true
}

func (c *FlushCache) flushWithRetry() {
	retry := c.Flush()
	for retry != 0 {
		c.log.Warn("Flush requested retry, waiting...")
		time.Sleep(retry)
		retry = c.Flush()
	}
}

// Flush writes the pending batch. A non-zero return asks the caller to retry
// after that delay.
func (c *FlushCache) Flush() time.Duration {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.timer = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return 0
	}

	var err error
	for range shared.MaxFlushRetries {
		err = c.save(batch)
		if err == nil {
			c.log.Infow("Flushed prediction batch", "rows", len(batch))
			return 0
		}
		time.Sleep(shared.FlushRetryDelay)
	}

	c.log.Errorw("Failed flushing prediction batch, requeueing", "error", err, "rows", len(batch))
	c.mu.Lock()
	c.pending = append(batch, c.pending...)
	c.mu.Unlock()
	return shared.FlushRetryDelay
}

// Shutdown waits for inflight predictions to land and flushes what remains.
func (c *FlushCache) Shutdown() {
	c.log.Info("Shutting down prediction flush cache")
	for {
		c.mu.Lock()
		inflight := c.inflight
		c.stopTimerLocked()
		c.mu.Unlock()
		if inflight == 0 {
			break
		}
		time.Sleep(1 * time.Second)
	}
	c.Flush()
}
