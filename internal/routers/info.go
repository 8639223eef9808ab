package routers

import (
	"context"
	"time"

	"growda-api/internal/ctx"
	"growda-api/internal/database"
	"growda-api/internal/shared"

	"github.com/labstack/echo/v4"
)

type ModelInfoResponse struct {
	ModelLoaded bool     `json:"model_loaded"`
	InputShape  []int64  `json:"input_shape,omitempty"`
	OutputShape []int64  `json:"output_shape,omitempty"`
	ImageSize   int      `json:"image_size,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	Version     string   `json:"version,omitempty"`
	Accuracy    float64  `json:"accuracy,omitempty"`
}

func (pr *PredictRouter) modelInfo() ModelInfoResponse {
	meta, err := pr.engine.ModelInfo()
	if err != nil {
		return ModelInfoResponse{ModelLoaded: false}
	}
	return ModelInfoResponse{
		ModelLoaded: true,
		InputShape:  meta.InputShape,
		OutputShape: meta.OutputShape,
		ImageSize:   meta.ImageSize,
		Labels:      meta.Labels,
		Version:     meta.Version,
		Accuracy:    meta.Accuracy,
	}
}

func (pr *PredictRouter) Root(cc echo.Context) error {
	c := cc.(*ctx.Context)
	return c.JSON(200, map[string]any{
		"message":    "Growda API - Pneumonia Detection",
		"mode":       "Cloud Deployment (Static Model)",
		"model_info": pr.modelInfo(),
		"features":   []string{"Prediction", "Model Info", "Training History (Read-only)"},
	})
}

// Health reports liveness plus the handle state. Unlike ModelInfo this never
// triggers a model load.
func (pr *PredictRouter) Health(cc echo.Context) error {
	c := cc.(*ctx.Context)
	return c.JSON(200, map[string]any{
		"status":       "healthy",
		"model_loaded": pr.handle.Loaded(),
		"service":      "Growda API",
	})
}

func (pr *PredictRouter) ModelInfo(cc echo.Context) error {
	c := cc.(*ctx.Context)
	info := pr.modelInfo()
	if !info.ModelLoaded {
		return c.JSON(404, map[string]string{"detail": "Model not found or failed to load"})
	}
	return c.JSON(200, info)
}

// PredictionHistory returns recent persisted predictions, admin only.
func (pr *PredictRouter) PredictionHistory(cc echo.Context) error {
	c := cc.(*ctx.Context)

	qctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := database.RecentPredictions(qctx, pr.rdb, shared.DefaultHistoryLimit)
	if err != nil {
		c.LogValues.AddError(err)
		c.LogValues.LogLevel = "ERROR"
		return c.JSON(500, map[string]string{"detail": "failed to load prediction history"})
	}
	return c.JSON(200, map[string]any{"predictions": records})
}
