package routers

import (
	"io"
	"os"

	"growda-api/internal/ctx"
	"growda-api/internal/shared"

	"github.com/labstack/echo/v4"
)

type PredictionResponse struct {
	Prediction    string  `json:"prediction"`
	Confidence    float32 `json:"confidence"`
	SeverityLevel string  `json:"severity_level"`
	ModelVersion  string  `json:"model_version"`
	Cached        bool    `json:"cached"`
}

// Predict accepts one multipart image upload, persists it to scoped temporary
// storage, runs the inference pipeline and returns the classified result. The
// temp file is removed on every exit path.
func (pr *PredictRouter) Predict(cc echo.Context) error {
	c := cc.(*ctx.Context)

	header, err := c.FormFile("file")
	if err != nil {
		return writeError(c, "predict", shared.ErrNoFile)
	}
	if header.Size > shared.MaxUploadBytes {
		return writeError(c, "predict", shared.ErrFileTooBig)
	}
	contentType := header.Header.Get("Content-Type")

	src, err := header.Open()
	if err != nil {
		return writeError(c, "predict", err)
	}
	defer func() {
		_ = src.Close()
	}()

	tmp, err := os.CreateTemp("", "growda-upload-*")
	if err != nil {
		return writeError(c, "predict", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return writeError(c, "predict", err)
	}

	imageBytes, err := os.ReadFile(tmp.Name())
	if err != nil {
		return writeError(c, "predict", err)
	}

	outcome, err := pr.engine.Run(c.Request().Context(), imageBytes, contentType, c.Reqid)
	if err != nil {
		return writeError(c, "predict", err)
	}

	c.LogValues.PredictionClass = outcome.Result.Class
	c.LogValues.Severity = outcome.Result.Severity
	c.LogValues.Cached = outcome.Cached
	c.LogValues.ModelVersion = outcome.ModelVersion

	return c.JSON(200, PredictionResponse{
		Prediction:    outcome.Result.Class,
		Confidence:    outcome.Result.Confidence,
		SeverityLevel: outcome.Result.Severity,
		ModelVersion:  outcome.ModelVersion,
		Cached:        outcome.Cached,
	})
}
