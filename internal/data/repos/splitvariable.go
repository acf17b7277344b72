package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type SplitVariableRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sv *domain.DatasetSplitVariable) (*domain.DatasetSplitVariable, error)
	Exists(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) error
	ListAssigned(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error)
	ListAvailable(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error)
}

type splitVariableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSplitVariableRepo(db *gorm.DB, baseLog *logger.Logger) SplitVariableRepo {
	return &splitVariableRepo{db: db, log: baseLog.With("repo", "SplitVariableRepo")}
}

func (r *splitVariableRepo) Create(ctx context.Context, tx *gorm.DB, sv *domain.DatasetSplitVariable) (*domain.DatasetSplitVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(sv).Error; err != nil {
		return nil, err
	}
	return sv, nil
}

func (r *splitVariableRepo) Exists(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.DatasetSplitVariable{}).
		Where("dataset_id = ? AND variable_id = ?", datasetID, variableID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete is idempotent: removing an absent pair is not an error.
func (r *splitVariableRepo) Delete(ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("dataset_id = ? AND variable_id = ?", datasetID, variableID).
		Delete(&domain.DatasetSplitVariable{}).Error
}

func (r *splitVariableRepo) ListAssigned(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Model(&domain.DatasetVariable{}).
		Joins("INNER JOIN dataset_split_variable ON dataset_split_variable.variable_id = dataset_variable.id").
		Where("dataset_split_variable.dataset_id = ?", datasetID)
	q = applyVariableSearch(q, search)

	var results []*domain.DatasetVariable
	if err := q.Order("dataset_variable.name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListAvailable returns dataset variables that are not currently split
// variables (anti-join).
func (r *splitVariableRepo) ListAvailable(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Model(&domain.DatasetVariable{}).
		Where("dataset_variable.dataset_id = ?", datasetID).
		Where("dataset_variable.id NOT IN (?)",
			transaction.Model(&domain.DatasetSplitVariable{}).
				Select("variable_id").
				Where("dataset_id = ?", datasetID))
	q = applyVariableSearch(q, search)

	var results []*domain.DatasetVariable
	if err := q.Order("dataset_variable.name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
