package app

import (
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type Repos struct {
	Dataset         repos.DatasetRepo
	Member          repos.MemberRepo
	Variable        repos.VariableRepo
	Variableset     repos.VariablesetRepo
	VariablesetItem repos.VariablesetItemRepo
	SplitVariable   repos.SplitVariableRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Dataset:         repos.NewDatasetRepo(db, log),
		Member:          repos.NewMemberRepo(db, log),
		Variable:        repos.NewVariableRepo(db, log),
		Variableset:     repos.NewVariablesetRepo(db, log),
		VariablesetItem: repos.NewVariablesetItemRepo(db, log),
		SplitVariable:   repos.NewSplitVariableRepo(db, log),
	}
}
