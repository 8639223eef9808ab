// Package model wraps the ONNX runtime session for the deployed classifier
// artifact. The artifact is opaque to the rest of the service: it accepts an
// input tensor and returns a raw prediction, nothing more.
package model

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"growda-api/internal/classify"
	"growda-api/internal/preprocess"
	"growda-api/internal/shared"

	ort "github.com/yalue/onnxruntime_go"
)

type Session struct {
	session      *ort.AdvancedSession
	meta         Metadata
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]

	// The session reuses its input/output buffers across runs, so Predict
	// calls are serialized.
	mu sync.Mutex
}

func NewSession(modelPath, metadataPath string) (*Session, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, shared.NewInferenceError(shared.KindModelUnavailable,
			fmt.Errorf("model artifact %s: %w", modelPath, err))
	}

	meta, err := LoadMetadata(metadataPath)
	if err != nil {
		return nil, shared.NewInferenceError(shared.KindModelUnavailable, err)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return nil, shared.NewInferenceError(shared.KindModelUnavailable,
			fmt.Errorf("initialize ONNX environment: %w", err))
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, shared.NewInferenceError(shared.KindModelUnavailable,
			fmt.Errorf("create input tensor: %w", err))
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, shared.NewInferenceError(shared.KindModelUnavailable,
			fmt.Errorf("create output tensor: %w", err))
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, shared.NewInferenceError(shared.KindModelUnavailable,
			fmt.Errorf("create ONNX session: %w", err))
	}

	return &Session{
		session:      session,
		meta:         meta,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (s *Session) Metadata() Metadata {
	return s.meta
}

// Predict runs the artifact on a preprocessed tensor. The tensor shape must
// exactly match the artifact's declared input signature.
func (s *Session) Predict(t *preprocess.Tensor) (classify.RawPrediction, error) {
	if !slices.Equal(t.Shape, s.meta.InputShape) {
		return classify.RawPrediction{}, shared.NewInferenceError(shared.KindShapeMismatch,
			fmt.Errorf("input tensor shape %v does not match model signature %v", t.Shape, s.meta.InputShape))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(t.Data) != len(s.inputTensor.GetData()) {
		return classify.RawPrediction{}, shared.NewInferenceError(shared.KindShapeMismatch,
			errors.New("tensor data length does not match its shape"))
	}
	copy(s.inputTensor.GetData(), t.Data)

	if err := s.session.Run(); err != nil {
		return classify.RawPrediction{}, fmt.Errorf("inference run failed: %w", err)
	}

	outputData := s.outputTensor.GetData()
	if len(outputData) == 1 {
		return classify.Scalar(outputData[0]), nil
	}

	// Copy out of the shared buffer before releasing the lock.
	scores := make([]float32, len(outputData))
	copy(scores, outputData)
	return classify.Vector(scores), nil
}

func (s *Session) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	_ = ort.DestroyEnvironment()
}
