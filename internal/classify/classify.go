// Package classify turns raw model output into a discrete class, a confidence
// in [0,1] and a severity tier. Deterministic and side-effect free; all
// thresholds and labels come from deployment configuration.
package classify

import (
	"errors"
	"fmt"

	"growda-api/internal/shared"
)

// RawPrediction is a tagged variant over the two output shapes a binary
// classifier artifact can produce: a single sigmoid scalar, or a per-class
// score vector. Which arm is populated is a property of the loaded artifact.
type RawPrediction struct {
	scalar *float32
	vector []float32
}

func Scalar(p float32) RawPrediction {
	return RawPrediction{scalar: &p}
}

func Vector(scores []float32) RawPrediction {
	return RawPrediction{vector: scores}
}

func (r RawPrediction) IsScalar() bool {
	return r.scalar != nil
}

// SeverityTier maps a confidence floor to a tier name. Tiers are checked in
// descending MinConfidence order.
type SeverityTier struct {
	Name          string  `json:"name"`
	MinConfidence float32 `json:"min_confidence"`
}

// Config carries the label convention fixed at training time. The threshold
// and tier boundaries are supplied alongside the model artifact, they are not
// learned or inferred at inference time.
type Config struct {
	Labels           []string
	PositiveLabel    string
	Threshold        float32
	SeverityTiers    []SeverityTier
	NegativeSeverity string
}

type Result struct {
	Class      string
	Confidence float32
	Severity   string
}

// Classify derives (class, confidence, severity) from a raw prediction. Total
// for any prediction of the expected shape and a pure function of its input.
func Classify(raw RawPrediction, cfg Config) (Result, error) {
	switch {
	case raw.scalar != nil:
		return classifyScalar(*raw.scalar, cfg), nil
	case raw.vector != nil:
		return classifyVector(raw.vector, cfg)
	default:
		return Result{}, shared.NewInferenceError(shared.KindShapeMismatch,
			errors.New("empty raw prediction"))
	}
}

// classifyScalar interprets p as the probability of the positive label. The
// boundary p == threshold resolves to the positive class.
func classifyScalar(p float32, cfg Config) Result {
	class := cfg.negativeLabel()
	confidence := 1 - p
	if p >= cfg.Threshold {
		class = cfg.PositiveLabel
		confidence = p
	}
	return Result{
		Class:      class,
		Confidence: confidence,
		Severity:   cfg.severity(class, confidence),
	}
}

func classifyVector(scores []float32, cfg Config) (Result, error) {
	if len(scores) != len(cfg.Labels) {
		return Result{}, shared.NewInferenceError(shared.KindShapeMismatch,
			fmt.Errorf("expected %d class scores, got %d", len(cfg.Labels), len(scores)))
	}
	maxIdx := 0
	for i, v := range scores {
		if v > scores[maxIdx] {
			maxIdx = i
		}
	}
	class := cfg.Labels[maxIdx]
	confidence := scores[maxIdx]
	return Result{
		Class:      class,
		Confidence: confidence,
		Severity:   cfg.severity(class, confidence),
	}, nil
}

// severity buckets confidence into a tier. Tiers only carry meaning for the
// positive (disease) class; the negative class reports the configured
// placeholder.
func (cfg Config) severity(class string, confidence float32) string {
	if class != cfg.PositiveLabel {
		return cfg.NegativeSeverity
	}
	for _, tier := range cfg.SeverityTiers {
		if confidence >= tier.MinConfidence {
			return tier.Name
		}
	}
	if n := len(cfg.SeverityTiers); n > 0 {
		return cfg.SeverityTiers[n-1].Name
	}
	return cfg.NegativeSeverity
}

func (cfg Config) negativeLabel() string {
	for _, l := range cfg.Labels {
		if l != cfg.PositiveLabel {
			return l
		}
	}
	return cfg.PositiveLabel
}
