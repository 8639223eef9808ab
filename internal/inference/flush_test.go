package inference

import (
	"sync"
	"testing"
	"time"

	"growda-api/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type saveRecorder struct {
	mu   sync.Mutex
	rows []database.PredictionRecord
}

func (s *saveRecorder) save(records []database.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, records...)
	return nil
}

func (s *saveRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func testFlushCache() (*FlushCache, *saveRecorder) {
	rec := &saveRecorder{}
	fc := NewFlushCache(zap.NewNop().Sugar(), nil)
	fc.save = rec.save
	return fc, rec
}

func (c *FlushCache) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func TestFlushFiresWhenLastInflightFinishes(t *testing.T) {
	fc, rec := testFlushCache()

	fc.AddInFlight()
	fc.AddPrediction(database.PredictionRecord{RequestID: "req1", Class: "PNEUMONIA"})
	fc.RemoveInFlight()

	// Well before the timer interval would fire.
	require.Eventually(t, func() bool { return rec.count() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "req1", rec.rows[0].RequestID)
	assert.Zero(t, fc.pendingCount())
}

func TestFlushFiresWhenNothingInflight(t *testing.T) {
	fc, rec := testFlushCache()

	fc.AddPrediction(database.PredictionRecord{RequestID: "req1", Class: "NORMAL"})

	require.Eventually(t, func() bool { return rec.count() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestFlushWaitsWhileOthersInflight(t *testing.T) {
	fc, rec := testFlushCache()

	fc.AddInFlight()
	fc.AddInFlight()
	fc.AddPrediction(database.PredictionRecord{RequestID: "req1", Class: "PNEUMONIA"})
	fc.RemoveInFlight()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, rec.count(), "batch must not flush while a prediction is still inflight")
	assert.Equal(t, 1, fc.pendingCount())

	fc.RemoveInFlight()
	require.Eventually(t, func() bool { return rec.count() == 1 },
		2*time.Second, 10*time.Millisecond)
}

func TestShutdownFlushesPending(t *testing.T) {
	fc, rec := testFlushCache()

	fc.mu.Lock()
	fc.pending = append(fc.pending, database.PredictionRecord{RequestID: "req1"})
	fc.mu.Unlock()

	fc.Shutdown()
	assert.Equal(t, 1, rec.count())
}
