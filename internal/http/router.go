package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/statlab/statlab-backend/internal/http/handlers"
	httpMW "github.com/statlab/statlab-backend/internal/http/middleware"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type RouterConfig struct {
	ServiceName string
	Log         *logger.Logger

	AuthMiddleware *httpMW.AuthMiddleware

	VariablesetHandler   *httpH.VariablesetHandler
	ExportHandler        *httpH.VariablesetExportHandler
	SplitVariableHandler *httpH.SplitVariableHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "statlab"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}
		admin := api.Group("")
		if cfg.AuthMiddleware != nil {
			admin.Use(cfg.AuthMiddleware.RequireAdmin())
		}

		if cfg.VariablesetHandler != nil {
			api.GET("/datasets/:id/variablesets", cfg.VariablesetHandler.ListByDataset)
			api.GET("/datasets/:id/variablesets/hierarchy", cfg.VariablesetHandler.GetHierarchy)
			api.GET("/datasets/:id/variablesets/unassigned", cfg.VariablesetHandler.ListUnassigned)
			api.GET("/variablesets/:id", cfg.VariablesetHandler.Get)
			api.GET("/variablesets/:id/variables", cfg.VariablesetHandler.ListVariables)

			admin.POST("/datasets/:id/variablesets", cfg.VariablesetHandler.Create)
			admin.PATCH("/variablesets/:id", cfg.VariablesetHandler.Update)
			admin.DELETE("/variablesets/:id", cfg.VariablesetHandler.Delete)
			admin.POST("/variablesets/:id/variables/:variableId", cfg.VariablesetHandler.AddVariable)
			admin.DELETE("/variablesets/:id/variables/:variableId", cfg.VariablesetHandler.RemoveVariable)
		}

		if cfg.ExportHandler != nil {
			admin.GET("/datasets/:id/variablesets/export", cfg.ExportHandler.Export)
			admin.POST("/datasets/:id/variablesets/import", cfg.ExportHandler.Import)
		}

		if cfg.SplitVariableHandler != nil {
			api.GET("/datasets/:id/splitvariables", cfg.SplitVariableHandler.ListAssigned)
			api.GET("/datasets/:id/splitvariables/available", cfg.SplitVariableHandler.ListAvailable)
			admin.POST("/datasets/:id/splitvariables/:variableId", cfg.SplitVariableHandler.Assign)
			admin.DELETE("/datasets/:id/splitvariables/:variableId", cfg.SplitVariableHandler.Unassign)
		}
	}

	return r
}
