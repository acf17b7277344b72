package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type DatasetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ds *domain.Dataset) (*domain.Dataset, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Dataset, error)
	ListByOrganizationID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*domain.Dataset, error)
}

type datasetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDatasetRepo(db *gorm.DB, baseLog *logger.Logger) DatasetRepo {
	return &datasetRepo{db: db, log: baseLog.With("repo", "DatasetRepo")}
}

func (r *datasetRepo) Create(ctx context.Context, tx *gorm.DB, ds *domain.Dataset) (*domain.Dataset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *datasetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Dataset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.Dataset
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *datasetRepo) ListByOrganizationID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) ([]*domain.Dataset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Dataset
	if err := transaction.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
