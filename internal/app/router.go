package app

import (
	"github.com/gin-gonic/gin"

	internalhttp "github.com/statlab/statlab-backend/internal/http"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

func wireRouter(cfg Config, log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return internalhttp.NewRouter(internalhttp.RouterConfig{
		ServiceName:          cfg.ServiceName,
		Log:                  log,
		AuthMiddleware:       middleware.Auth,
		VariablesetHandler:   handlers.Variableset,
		ExportHandler:        handlers.Export,
		SplitVariableHandler: handlers.SplitVariable,
		HealthHandler:        handlers.Health,
	})
}
