package inference

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"growda-api/internal/classify"
	"growda-api/internal/metrics"
	"growda-api/internal/model"
	"growda-api/internal/preprocess"
	"growda-api/internal/shared"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPredictor struct {
	raw  classify.RawPrediction
	err  error
	meta model.Metadata
}

func (m *mockPredictor) Predict(_ *preprocess.Tensor) (classify.RawPrediction, error) {
	return m.raw, m.err
}

func (m *mockPredictor) Metadata() model.Metadata {
	return m.meta
}

func testMetadata() model.Metadata {
	return model.Metadata{
		InputShape:    []int64{1, 3, 150, 150},
		OutputShape:   []int64{1, 1},
		ImageSize:     150,
		Channels:      3,
		Labels:        []string{"NORMAL", "PNEUMONIA"},
		PositiveLabel: "PNEUMONIA",
		Threshold:     0.5,
		SeverityTiers: []classify.SeverityTier{
			{Name: "Severe", MinConfidence: 0.9},
			{Name: "Moderate", MinConfidence: 0.7},
			{Name: "Mild", MinConfidence: 0},
		},
		NegativeSeverity: "None",
		Version:          "v1-test",
	}
}

func testEngine(p Predictor, err error) *Engine {
	provider := ProviderFunc(func() (Predictor, error) {
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	return NewEngine(provider, nil, nil, zap.NewNop().Sugar())
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRunRejectsNonImageContentType(t *testing.T) {
	engine := testEngine(&mockPredictor{meta: testMetadata()}, nil)

	_, err := engine.Run(context.Background(), testImage(t), "application/pdf", "req1")
	require.Error(t, err)

	var rerr *shared.RequestError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 400, rerr.StatusCode)
}

func TestRunSuccess(t *testing.T) {
	engine := testEngine(&mockPredictor{
		raw:  classify.Scalar(0.93),
		meta: testMetadata(),
	}, nil)

	outcome, err := engine.Run(context.Background(), testImage(t), "image/png", "req1")
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", outcome.Result.Class)
	assert.Equal(t, float32(0.93), outcome.Result.Confidence)
	assert.Equal(t, "Severe", outcome.Result.Severity)
	assert.Equal(t, "v1-test", outcome.ModelVersion)
	assert.False(t, outcome.Cached)
}

func TestRunDecodeErrorSurfacesKind(t *testing.T) {
	engine := testEngine(&mockPredictor{meta: testMetadata()}, nil)

	_, err := engine.Run(context.Background(), []byte("not an image"), "image/png", "req1")
	require.Error(t, err)

	var ierr *shared.InferenceError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, shared.KindDecode, ierr.Kind)
}

func TestRunModelUnavailable(t *testing.T) {
	loadErr := shared.NewInferenceError(shared.KindModelUnavailable, errors.New("artifact missing"))
	engine := testEngine(nil, loadErr)

	_, err := engine.Run(context.Background(), testImage(t), "image/png", "req1")
	require.Error(t, err)

	var ierr *shared.InferenceError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, shared.KindModelUnavailable, ierr.Kind)
	assert.Equal(t, 503, ierr.Kind.StatusCode())
}

func TestRunPredictErrorPropagates(t *testing.T) {
	predictErr := shared.NewInferenceError(shared.KindShapeMismatch, errors.New("vector where scalar expected"))
	engine := testEngine(&mockPredictor{err: predictErr, meta: testMetadata()}, nil)

	_, err := engine.Run(context.Background(), testImage(t), "image/png", "req1")
	require.Error(t, err)

	var ierr *shared.InferenceError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, shared.KindShapeMismatch, ierr.Kind)
}

func TestRunDeterministic(t *testing.T) {
	engine := testEngine(&mockPredictor{
		raw:  classify.Scalar(0.42),
		meta: testMetadata(),
	}, nil)

	img := testImage(t)
	first, err := engine.Run(context.Background(), img, "image/jpeg", "req1")
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), img, "image/jpeg", "req2")
	require.NoError(t, err)
	assert.Equal(t, first.Result, second.Result)
}

type stubCache struct {
	stored map[string]cachedPrediction
}

func (s *stubCache) lookup(_ context.Context, key string) (*cachedPrediction, bool) {
	if pred, ok := s.stored[key]; ok {
		return &pred, true
	}
	return nil, false
}

func (s *stubCache) fill(key string, pred cachedPrediction) {
	s.stored[key] = pred
}

func TestRunCachedResultCountsPrediction(t *testing.T) {
	engine := testEngine(&mockPredictor{
		raw:  classify.Scalar(0.95),
		meta: testMetadata(),
	}, nil)
	engine.cache = &stubCache{stored: map[string]cachedPrediction{}}

	img := testImage(t)
	counter := metrics.PredictionCount.WithLabelValues("PNEUMONIA", "Severe")
	before := testutil.ToFloat64(counter)

	first, err := engine.Run(context.Background(), img, "image/png", "req1")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := engine.Run(context.Background(), img, "image/png", "req2")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)

	// Both responses served a prediction, cached or not.
	assert.Equal(t, 2.0, testutil.ToFloat64(counter)-before)
}

func TestModelInfo(t *testing.T) {
	engine := testEngine(&mockPredictor{meta: testMetadata()}, nil)
	meta, err := engine.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, "v1-test", meta.Version)

	engine = testEngine(nil, errors.New("no model"))
	_, err = engine.ModelInfo()
	require.Error(t, err)
}
