package inference

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"growda-api/internal/classify"
	"growda-api/internal/database"
	"growda-api/internal/metrics"
	"growda-api/internal/model"
	"growda-api/internal/preprocess"
	"growda-api/internal/shared"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Predictor is the abstract capability the engine needs from a loaded model:
// accept an input tensor, return a raw prediction. Satisfied by
// *model.Session and by mocks in tests.
type Predictor interface {
	Predict(t *preprocess.Tensor) (classify.RawPrediction, error)
	Metadata() model.Metadata
}

// Provider hands out the process-wide model reference. Acquire must be
// idempotent and safe under concurrent first access.
type Provider interface {
	Acquire() (Predictor, error)
}

type ProviderFunc func() (Predictor, error)

func (f ProviderFunc) Acquire() (Predictor, error) {
	return f()
}

// HandleProvider adapts the load-once model handle to the Provider interface.
func HandleProvider(h *model.Handle) Provider {
	return ProviderFunc(func() (Predictor, error) {
		return h.Acquire()
	})
}

type Engine struct {
	provider Provider
	cache    resultCache
	log      *zap.SugaredLogger
	flush    *FlushCache
}

// NewEngine builds the inference pipeline. redisClient and wdb may be nil,
// which disables result caching and history persistence respectively.
func NewEngine(provider Provider, redisClient *redis.Client, wdb *sql.DB, log *zap.SugaredLogger) *Engine {
	e := &Engine{
		provider: provider,
		log:      log,
	}
	if redisClient != nil {
		e.cache = &redisCache{client: redisClient, log: log}
	}
	if wdb != nil {
		e.flush = NewFlushCache(log, wdb)
	}
	return e
}

// Outcome is what the host serializes back to the client.
type Outcome struct {
	Result       classify.Result
	ModelVersion string
	Cached       bool
	Latency      time.Duration
}

type cachedPrediction struct {
	Class        string  `json:"class"`
	Confidence   float32 `json:"confidence"`
	Severity     string  `json:"severity"`
	ModelVersion string  `json:"model_version"`
}

// Run executes one synchronous inference: content-type gate, cache lookup,
// preprocess, model run, classification, then cache fill and history write.
// Deterministic per image, no retries; failures surface as classified
// inference errors.
func (e *Engine) Run(ctx context.Context, imageBytes []byte, contentType, requestID string) (*Outcome, error) {
	if !shared.IsImageContentType(contentType) {
		return nil, shared.ErrNotAnImage
	}

	start := time.Now()
	metrics.InflightPredictions.Inc()
	defer metrics.InflightPredictions.Dec()
	if e.flush != nil {
		e.flush.AddInFlight()
		defer e.flush.RemoveInFlight()
	}

	imageKey := fmt.Sprintf("v1:prediction:sha256:%x", sha256.Sum256(imageBytes))
	if e.cache != nil {
		if cached, ok := e.cache.lookup(ctx, imageKey); ok {
			metrics.CacheHits.WithLabelValues("hit").Inc()
			// Served results count whether the model ran or not
			metrics.PredictionCount.WithLabelValues(cached.Class, cached.Severity).Inc()
			outcome := &Outcome{
				Result: classify.Result{
					Class:      cached.Class,
					Confidence: cached.Confidence,
					Severity:   cached.Severity,
				},
				ModelVersion: cached.ModelVersion,
				Cached:       true,
				Latency:      time.Since(start),
			}
			e.record(requestID, outcome)
			return outcome, nil
		}
		metrics.CacheHits.WithLabelValues("miss").Inc()
	}

	predictor, err := e.provider.Acquire()
	if err != nil {
		return nil, err
	}
	meta := predictor.Metadata()

	preStart := time.Now()
	tensor, err := preprocess.Preprocess(imageBytes, meta.PreprocessConfig())
	if err != nil {
		return nil, err
	}
	metrics.PreprocessDuration.WithLabelValues(meta.Version).Observe(time.Since(preStart).Seconds())

	raw, err := predictor.Predict(tensor)
	if err != nil {
		return nil, err
	}

	result, err := classify.Classify(raw, meta.ClassifyConfig())
	if err != nil {
		return nil, err
	}

	latency := time.Since(start)
	metrics.InferenceDuration.WithLabelValues(meta.Version).Observe(latency.Seconds())
	metrics.PredictionCount.WithLabelValues(result.Class, result.Severity).Inc()

	outcome := &Outcome{
		Result:       result,
		ModelVersion: meta.Version,
		Latency:      latency,
	}
	if e.cache != nil {
		e.cache.fill(imageKey, cachedPrediction{
			Class:        outcome.Result.Class,
			Confidence:   outcome.Result.Confidence,
			Severity:     outcome.Result.Severity,
			ModelVersion: outcome.ModelVersion,
		})
	}
	e.record(requestID, outcome)
	return outcome, nil
}

// resultCache deduplicates identical uploads by content hash. Backed by redis
// in production.
type resultCache interface {
	lookup(ctx context.Context, key string) (*cachedPrediction, bool)
	fill(key string, pred cachedPrediction)
}

type redisCache struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func (rc *redisCache) lookup(ctx context.Context, key string) (*cachedPrediction, bool) {
	raw, err := rc.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			rc.log.Warnw("Prediction cache lookup failed", "error", err)
		}
		return nil, false
	}
	var cached cachedPrediction
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		rc.log.Errorw("Error unmarshalling cached prediction", "error", err)
		return nil, false
	}
	return &cached, true
}

func (rc *redisCache) fill(key string, pred cachedPrediction) {
	go func() {
		payload, err := json.Marshal(pred)
		if err != nil {
			rc.log.Errorw("Error marshalling prediction for cache", "error", err)
			return
		}
		rc.client.Set(context.Background(), key, payload, shared.PredictionCacheTTL)
	}()
}

func (e *Engine) record(requestID string, outcome *Outcome) {
	if e.flush == nil {
		return
	}
	e.flush.AddPrediction(database.PredictionRecord{
		RequestID:    requestID,
		Class:        outcome.Result.Class,
		Confidence:   outcome.Result.Confidence,
		Severity:     outcome.Result.Severity,
		ModelVersion: outcome.ModelVersion,
		LatencyMS:    outcome.Latency.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	})
}

// ModelInfo loads the model if needed and returns its metadata.
func (e *Engine) ModelInfo() (model.Metadata, error) {
	predictor, err := e.provider.Acquire()
	if err != nil {
		return model.Metadata{}, err
	}
	return predictor.Metadata(), nil
}

func (e *Engine) Shutdown() {
	if e.flush != nil {
		e.flush.Shutdown()
	}
}
