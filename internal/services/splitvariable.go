package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/domain"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

// SplitVariableService manages the dataset's split-variable designation,
// a flat flag over variables that is independent of set membership.
type SplitVariableService interface {
	Assign(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) (*domain.DatasetSplitVariable, error)
	Unassign(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) error
	ListAssigned(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error)
	ListAvailable(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error)
}

type splitVariableService struct {
	db     *gorm.DB
	log    *logger.Logger
	splits repos.SplitVariableRepo
	vars   repos.VariableRepo
}

func NewSplitVariableService(
	db *gorm.DB,
	baseLog *logger.Logger,
	splits repos.SplitVariableRepo,
	vars repos.VariableRepo,
) SplitVariableService {
	return &splitVariableService{
		db:     db,
		log:    baseLog.With("service", "SplitVariableService"),
		splits: splits,
		vars:   vars,
	}
}

func (s *splitVariableService) Assign(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) (*domain.DatasetSplitVariable, error) {
	variable, err := s.vars.GetByID(ctx, tx, variableID)
	if err != nil {
		return nil, fmt.Errorf("variable: %w", err)
	}
	if variable.DatasetID != datasetID {
		return nil, fmt.Errorf("%w: variable belongs to a different dataset", pkgerrors.ErrInvalidArgument)
	}

	exists, err := s.splits.Exists(ctx, tx, datasetID, variableID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: variable is already a split variable", pkgerrors.ErrConflict)
	}

	assignment := &domain.DatasetSplitVariable{
		ID:         uuid.New(),
		DatasetID:  datasetID,
		VariableID: variableID,
	}
	return s.splits.Create(ctx, tx, assignment)
}

// Unassign is idempotent; removing an absent assignment is not an error.
func (s *splitVariableService) Unassign(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) error {
	return s.splits.Delete(ctx, tx, datasetID, variableID)
}

func (s *splitVariableService) ListAssigned(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error) {
	return s.splits.ListAssigned(ctx, tx, datasetID, search)
}

func (s *splitVariableService) ListAvailable(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error) {
	return s.splits.ListAvailable(ctx, tx, datasetID, search)
}
