// Package routers
package routers

import (
	"database/sql"
	"errors"
	"fmt"

	"growda-api/internal/ctx"
	"growda-api/internal/inference"
	"growda-api/internal/metrics"
	"growda-api/internal/middleware"
	"growda-api/internal/model"
	"growda-api/internal/shared"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type PredictRouter struct {
	engine *inference.Engine
	handle *model.Handle
	rdb    *sql.DB
}

// RegisterPredictRoutes wires the inference pipeline into the router and
// returns the shutdown hook that drains the prediction flush cache.
func RegisterPredictRoutes(e *echo.Group, modelHandle *model.Handle, redisClient *redis.Client, wdb *sql.DB, rdb *sql.DB, log *zap.SugaredLogger) (func(), error) {
	engine := inference.NewEngine(inference.HandleProvider(modelHandle), redisClient, wdb, log)

	umw, err := middleware.GetUserMiddleware()
	if err != nil {
		return nil, err
	}

	pr := PredictRouter{engine: engine, handle: modelHandle, rdb: rdb}

	e.GET("/", pr.Root)
	e.GET("/health", pr.Health)
	e.POST("/predict", pr.Predict)
	e.GET("/model/info", pr.ModelInfo)

	requireAdmin := e.Group("", umw.ExtractUser, umw.RequireAdmin)
	requireAdmin.GET("/predictions/history", pr.PredictionHistory)

	return engine.Shutdown, nil
}

// writeError maps the classified error taxonomy onto response codes: bad
// uploads are the client's problem, a missing artifact is the operator's.
func writeError(c *ctx.Context, endpoint string, err error) error {
	c.LogValues.AddError(err)

	var ierr *shared.InferenceError
	if errors.As(err, &ierr) {
		metrics.ErrorCount.WithLabelValues(string(ierr.Kind), endpoint).Inc()
		if ierr.Kind.StatusCode() >= 500 {
			c.LogValues.LogLevel = "ERROR"
		}
		return c.JSON(ierr.Kind.StatusCode(), map[string]string{"detail": ierr.Error()})
	}

	var rerr *shared.RequestError
	if errors.As(err, &rerr) {
		return c.JSON(rerr.StatusCode, map[string]string{"detail": rerr.Err.Error()})
	}

	c.LogValues.LogLevel = "ERROR"
	metrics.ErrorCount.WithLabelValues("internal", endpoint).Inc()
	return c.JSON(500, map[string]string{"detail": fmt.Sprintf("Prediction failed: %v", err)})
}
