package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

// AccessService answers whether the caller on the context may touch a
// dataset. Admins may touch everything; everyone else needs membership
// in the dataset's organization.
type AccessService interface {
	AssertDatasetAccess(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) (*domain.Dataset, error)
}

type accessService struct {
	db       *gorm.DB
	log      *logger.Logger
	datasets repos.DatasetRepo
}

func NewAccessService(db *gorm.DB, baseLog *logger.Logger, datasets repos.DatasetRepo) AccessService {
	return &accessService{
		db:       db,
		log:      baseLog.With("service", "AccessService"),
		datasets: datasets,
	}
}

func (s *accessService) AssertDatasetAccess(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) (*domain.Dataset, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("%w: no identity on request", pkgerrors.ErrUnauthorized)
	}
	dataset, err := s.datasets.GetByID(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}
	if rd.IsAdmin {
		return dataset, nil
	}
	if !rd.MemberOf(dataset.OrganizationID) {
		return nil, fmt.Errorf("%w: not a member of the dataset's organization", pkgerrors.ErrUnauthorized)
	}
	return dataset, nil
}
