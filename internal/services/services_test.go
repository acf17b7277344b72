package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/data/repos/testutil"
)

type testDeps struct {
	tx       *gorm.DB
	sets     VariablesetService
	export   VariablesetExportService
	splits   SplitVariableService
	setRepo  repos.VariablesetRepo
	itemRepo repos.VariablesetItemRepo
	varRepo  repos.VariableRepo
	dsRepo   repos.DatasetRepo
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)

	setRepo := repos.NewVariablesetRepo(gdb, log)
	itemRepo := repos.NewVariablesetItemRepo(gdb, log)
	varRepo := repos.NewVariableRepo(gdb, log)
	dsRepo := repos.NewDatasetRepo(gdb, log)
	splitRepo := repos.NewSplitVariableRepo(gdb, log)

	return &testDeps{
		tx:       tx,
		sets:     NewVariablesetService(gdb, log, setRepo, itemRepo, varRepo, dsRepo),
		export:   NewVariablesetExportService(gdb, log, setRepo, itemRepo, varRepo, dsRepo),
		splits:   NewSplitVariableService(gdb, log, splitRepo, varRepo),
		setRepo:  setRepo,
		itemRepo: itemRepo,
		varRepo:  varRepo,
		dsRepo:   dsRepo,
	}
}
