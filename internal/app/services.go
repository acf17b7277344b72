package app

import (
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/platform/logger"
	"github.com/statlab/statlab-backend/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Access        services.AccessService
	Variableset   services.VariablesetService
	Export        services.VariablesetExportService
	SplitVariable services.SplitVariableService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")
	return Services{
		Auth:          services.NewAuthService(db, log, r.Member, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Access:        services.NewAccessService(db, log, r.Dataset),
		Variableset:   services.NewVariablesetService(db, log, r.Variableset, r.VariablesetItem, r.Variable, r.Dataset),
		Export:        services.NewVariablesetExportService(db, log, r.Variableset, r.VariablesetItem, r.Variable, r.Dataset),
		SplitVariable: services.NewSplitVariableService(db, log, r.SplitVariable, r.Variable),
	}
}
