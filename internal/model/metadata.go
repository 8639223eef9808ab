package model

import (
	"fmt"
	"os"

	"growda-api/internal/classify"
	"growda-api/internal/preprocess"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigFastest

// Metadata describes the deployed artifact: tensor signature, label
// convention and the postprocessing constants fixed when the model was
// trained. It ships as a JSON file next to the ONNX weights.
type Metadata struct {
	InputShape       []int64                 `json:"input_shape"`
	OutputShape      []int64                 `json:"output_shape"`
	ImageSize        int                     `json:"image_size"`
	Channels         int                     `json:"channels"`
	Labels           []string                `json:"labels"`
	PositiveLabel    string                  `json:"positive_label"`
	Threshold        float32                 `json:"threshold"`
	SeverityTiers    []classify.SeverityTier `json:"severity_tiers"`
	NegativeSeverity string                  `json:"negative_severity"`
	Version          string                  `json:"version"`
	Accuracy         float64                 `json:"accuracy"`
}

// Defaults match the training setup of the deployed pneumonia model. Anything
// the metadata file sets explicitly wins.
func defaultMetadata() Metadata {
	return Metadata{
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
		Version:          "unknown",
	}
}

func LoadMetadata(path string) (Metadata, error) {
	meta := defaultMetadata()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read model metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Metadata{}, fmt.Errorf("parse model metadata: %w", err)
	}
	if err := meta.validate(); err != nil {
		return Metadata{}, err
	}
	return meta, nil
}

func (m Metadata) validate() error {
	if m.ImageSize <= 0 {
		return fmt.Errorf("metadata image_size must be positive, got %d", m.ImageSize)
	}
	if m.Channels != 1 && m.Channels != 3 {
		return fmt.Errorf("metadata channels must be 1 or 3, got %d", m.Channels)
	}
	if len(m.Labels) < 2 {
		return fmt.Errorf("metadata needs at least two labels, got %d", len(m.Labels))
	}
	found := false
	for _, l := range m.Labels {
		if l == m.PositiveLabel {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("positive label %q is not in the label set", m.PositiveLabel)
	}
	return nil
}

// ClassifyConfig exposes the postprocessing constants in the form the
// classifier consumes.
func (m Metadata) ClassifyConfig() classify.Config {
	return classify.Config{
		Labels:           m.Labels,
		PositiveLabel:    m.PositiveLabel,
		Threshold:        m.Threshold,
		SeverityTiers:    m.SeverityTiers,
		NegativeSeverity: m.NegativeSeverity,
	}
}

// PreprocessConfig exposes the input signature constants for the
// preprocessor.
func (m Metadata) PreprocessConfig() preprocess.Config {
	return preprocess.Config{TargetSize: m.ImageSize, Channels: m.Channels}
}
