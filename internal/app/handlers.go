package app

import (
	httpH "github.com/statlab/statlab-backend/internal/http/handlers"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	Variableset   *httpH.VariablesetHandler
	Export        *httpH.VariablesetExportHandler
	SplitVariable *httpH.SplitVariableHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(),
		Variableset:   httpH.NewVariablesetHandler(log, s.Variableset, s.Access),
		Export:        httpH.NewVariablesetExportHandler(log, s.Export, s.Access),
		SplitVariable: httpH.NewSplitVariableHandler(log, s.SplitVariable, s.Access),
	}
}
