// Package preprocess converts uploaded images into the fixed-shape tensor the
// model was trained on. Every call yields the same shape and value range, only
// the content varies.
package preprocess

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"growda-api/internal/shared"

	"github.com/nfnt/resize"
)

// Tensor is a batched NCHW float32 array. Shape is always
// [1, channels, size, size] and values are scaled into [0,1].
type Tensor struct {
	Data  []float32
	Shape []int64
}

// Config fixes the spatial resolution and channel order for the lifetime of a
// deployment. It ships with the model metadata, never inferred per request.
type Config struct {
	TargetSize int
	Channels   int
}

// Preprocess decodes raw image bytes, resizes to the target resolution,
// converts channels, scales pixel values and inserts the batch dimension.
// Pure function of its input.
func Preprocess(imageBytes []byte, cfg Config) (*Tensor, error) {
	if cfg.TargetSize <= 0 {
		return nil, fmt.Errorf("invalid target size %d", cfg.TargetSize)
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, shared.NewInferenceError(shared.KindDecode, fmt.Errorf("decode image: %w", err))
	}

	size := cfg.TargetSize
	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	switch cfg.Channels {
	case 1:
		return grayTensor(resized, size), nil
	case 3:
		return rgbTensor(resized, size), nil
	default:
		return nil, shared.NewInferenceError(shared.KindUnsupportedMode,
			fmt.Errorf("unsupported channel count %d", cfg.Channels))
	}
}

func grayTensor(img image.Image, size int) *Tensor {
	data := make([]float32, size*size)
	bounds := img.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			pixel := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			g, _, _, _ := color.GrayModel.Convert(pixel).RGBA()
			data[y*size+x] = float32(g) / 65535.0
		}
	}
	return &Tensor{
		Data:  data,
		Shape: []int64{1, 1, int64(size), int64(size)},
	}
}

func rgbTensor(img image.Image, size int) *Tensor {
	plane := size * size
	data := make([]float32, 3*plane)
	bounds := img.Bounds()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := y*size + x
			data[idx] = float32(r) / 65535.0
			data[plane+idx] = float32(g) / 65535.0
			data[2*plane+idx] = float32(b) / 65535.0
		}
	}
	return &Tensor{
		Data:  data,
		Shape: []int64{1, 3, int64(size), int64(size)},
	}
}

// NumElements is the flat length the tensor data must have for its shape.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}
