package classify

import (
	"errors"
	"testing"

	"growda-api/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Labels:        []string{"NORMAL", "PNEUMONIA"},
		PositiveLabel: "PNEUMONIA",
		Threshold:     0.5,
		SeverityTiers: []SeverityTier{
			{Name: "Severe", MinConfidence: 0.9},
			{Name: "Moderate", MinConfidence: 0.7},
			{Name: "Mild", MinConfidence: 0},
		},
		NegativeSeverity: "None",
	}
}

func TestScalarThresholdBoundary(t *testing.T) {
	// p == threshold must resolve to the positive class, consistently.
	res, err := Classify(Scalar(0.5), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", res.Class)
	assert.Equal(t, float32(0.5), res.Confidence)
	assert.Equal(t, "Mild", res.Severity)
}

func TestScalarExtremes(t *testing.T) {
	cfg := testConfig()

	res, err := Classify(Scalar(0.0), cfg)
	require.NoError(t, err)
	assert.Equal(t, "NORMAL", res.Class)
	assert.Equal(t, float32(1.0), res.Confidence)
	assert.Equal(t, "None", res.Severity)

	res, err = Classify(Scalar(1.0), cfg)
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", res.Class)
	assert.Equal(t, float32(1.0), res.Confidence)
	assert.Equal(t, "Severe", res.Severity)
}

func TestScalarSevereScenario(t *testing.T) {
	res, err := Classify(Scalar(0.93), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", res.Class)
	assert.Equal(t, float32(0.93), res.Confidence)
	assert.Equal(t, "Severe", res.Severity)
}

func TestScalarTierBuckets(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		p        float32
		severity string
	}{
		{0.95, "Severe"},
		{0.9, "Severe"},
		{0.75, "Moderate"},
		{0.7, "Moderate"},
		{0.55, "Mild"},
	}
	for _, tc := range cases {
		res, err := Classify(Scalar(tc.p), cfg)
		require.NoError(t, err)
		assert.Equal(t, tc.severity, res.Severity, "p=%v", tc.p)
	}
}

func TestScalarNegativeConfidenceInversion(t *testing.T) {
	res, err := Classify(Scalar(0.2), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "NORMAL", res.Class)
	assert.InDelta(t, 0.8, res.Confidence, 1e-6)
	assert.Equal(t, "None", res.Severity)
}

func TestVectorArgmax(t *testing.T) {
	res, err := Classify(Vector([]float32{0.3, 0.7}), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "PNEUMONIA", res.Class)
	assert.Equal(t, float32(0.7), res.Confidence)
	assert.Equal(t, "Moderate", res.Severity)

	res, err = Classify(Vector([]float32{0.9, 0.1}), testConfig())
	require.NoError(t, err)
	assert.Equal(t, "NORMAL", res.Class)
	assert.Equal(t, "None", res.Severity)
}

func TestVectorShapeMismatch(t *testing.T) {
	_, err := Classify(Vector([]float32{0.1, 0.2, 0.7}), testConfig())
	require.Error(t, err)

	var ierr *shared.InferenceError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, shared.KindShapeMismatch, ierr.Kind)
}

func TestEmptyPrediction(t *testing.T) {
	_, err := Classify(RawPrediction{}, testConfig())
	require.Error(t, err)

	var ierr *shared.InferenceError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, shared.KindShapeMismatch, ierr.Kind)
}

func TestClassifyDeterministic(t *testing.T) {
	cfg := testConfig()
	first, err := Classify(Scalar(0.83), cfg)
	require.NoError(t, err)
	second, err := Classify(Scalar(0.83), cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
