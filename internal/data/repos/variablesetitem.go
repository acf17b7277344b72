package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type VariablesetItemRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, items []*domain.DatasetVariablesetItem) ([]*domain.DatasetVariablesetItem, error)
	Exists(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID) (bool, error)
	MaxOrderIndex(ctx context.Context, tx *gorm.DB, setID uuid.UUID) (int, error)
	DeleteBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) error
	DeleteBySetAndVariable(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID) error
}

type variablesetItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariablesetItemRepo(db *gorm.DB, baseLog *logger.Logger) VariablesetItemRepo {
	return &variablesetItemRepo{db: db, log: baseLog.With("repo", "VariablesetItemRepo")}
}

func (r *variablesetItemRepo) CreateBatch(ctx context.Context, tx *gorm.DB, items []*domain.DatasetVariablesetItem) ([]*domain.DatasetVariablesetItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(items) == 0 {
		return []*domain.DatasetVariablesetItem{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *variablesetItemRepo) Exists(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.DatasetVariablesetItem{}).
		Where("variableset_id = ? AND variable_id = ?", setID, variableID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *variablesetItemRepo) MaxOrderIndex(ctx context.Context, tx *gorm.DB, setID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var max int
	if err := transaction.WithContext(ctx).
		Model(&domain.DatasetVariablesetItem{}).
		Select("COALESCE(MAX(order_index), -1)").
		Where("variableset_id = ?", setID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (r *variablesetItemRepo) DeleteBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("variableset_id = ?", setID).
		Delete(&domain.DatasetVariablesetItem{}).Error
}

func (r *variablesetItemRepo) DeleteBySetAndVariable(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("variableset_id = ? AND variable_id = ?", setID, variableID).
		Delete(&domain.DatasetVariablesetItem{}).Error
}
