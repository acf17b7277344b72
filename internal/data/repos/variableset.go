package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type VariablesetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, set *domain.DatasetVariableset) (*domain.DatasetVariableset, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.DatasetVariableset, error)
	ListByDatasetID(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.DatasetVariableset, error)
	ListWithVariableCounts(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*VariablesetWithCount, error)
	ExportRows(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*VariablesetExportRow, error)
	Update(ctx context.Context, tx *gorm.DB, set *domain.DatasetVariableset) (*domain.DatasetVariableset, error)
	UpdateParentID(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

// VariablesetWithCount is a set row annotated with its membership size,
// the shape the tree builder consumes.
type VariablesetWithCount struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	ParentID      *uuid.UUID `json:"parent_id"`
	OrderIndex    int        `json:"order_index"`
	VariableCount int        `json:"variable_count"`
}

// VariablesetExportRow is one row of the wide set/item/variable join the
// exporter reads. Item columns are nil for sets with no members and for
// dangling items whose variable no longer exists.
type VariablesetExportRow struct {
	SetID          uuid.UUID      `json:"set_id"`
	SetName        string         `json:"set_name"`
	SetDescription *string        `json:"set_description"`
	SetParentID    *uuid.UUID     `json:"set_parent_id"`
	SetOrderIndex  int            `json:"set_order_index"`
	VariableName   *string        `json:"variable_name"`
	ItemOrderIndex *int           `json:"item_order_index"`
	ItemAttributes datatypes.JSON `json:"item_attributes"`
}

type variablesetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariablesetRepo(db *gorm.DB, baseLog *logger.Logger) VariablesetRepo {
	return &variablesetRepo{db: db, log: baseLog.With("repo", "VariablesetRepo")}
}

func (r *variablesetRepo) Create(ctx context.Context, tx *gorm.DB, set *domain.DatasetVariableset) (*domain.DatasetVariableset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

func (r *variablesetRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.DatasetVariableset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.DatasetVariableset
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

func (r *variablesetRepo) ListByDatasetID(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.DatasetVariableset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.DatasetVariableset
	if err := transaction.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("order_index ASC, name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *variablesetRepo) ListWithVariableCounts(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*VariablesetWithCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*VariablesetWithCount
	if err := transaction.WithContext(ctx).
		Model(&domain.DatasetVariableset{}).
		Select("dataset_variableset.id, dataset_variableset.name, dataset_variableset.description, " +
			"dataset_variableset.parent_id, dataset_variableset.order_index, " +
			"COUNT(dataset_variableset_item.variable_id) AS variable_count").
		Joins("LEFT JOIN dataset_variableset_item ON dataset_variableset_item.variableset_id = dataset_variableset.id").
		Where("dataset_variableset.dataset_id = ?", datasetID).
		Group("dataset_variableset.id, dataset_variableset.name, dataset_variableset.description, " +
			"dataset_variableset.parent_id, dataset_variableset.order_index").
		Order("dataset_variableset.order_index ASC, dataset_variableset.name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *variablesetRepo) ExportRows(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*VariablesetExportRow, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*VariablesetExportRow
	if err := transaction.WithContext(ctx).
		Model(&domain.DatasetVariableset{}).
		Select("dataset_variableset.id AS set_id, dataset_variableset.name AS set_name, " +
			"dataset_variableset.description AS set_description, dataset_variableset.parent_id AS set_parent_id, " +
			"dataset_variableset.order_index AS set_order_index, " +
			"dataset_variable.name AS variable_name, " +
			"dataset_variableset_item.order_index AS item_order_index, " +
			"dataset_variableset_item.attributes AS item_attributes").
		Joins("LEFT JOIN dataset_variableset_item ON dataset_variableset_item.variableset_id = dataset_variableset.id").
		Joins("LEFT JOIN dataset_variable ON dataset_variable.id = dataset_variableset_item.variable_id").
		Where("dataset_variableset.dataset_id = ?", datasetID).
		Order("dataset_variableset.order_index ASC, dataset_variableset.name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *variablesetRepo) Update(ctx context.Context, tx *gorm.DB, set *domain.DatasetVariableset) (*domain.DatasetVariableset, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	// Save writes all columns, including parent_id set back to NULL.
	if err := transaction.WithContext(ctx).Save(set).Error; err != nil {
		return nil, err
	}
	return set, nil
}

func (r *variablesetRepo) UpdateParentID(ctx context.Context, tx *gorm.DB, id uuid.UUID, parentID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.DatasetVariableset{}).
		Where("id = ?", id).
		Update("parent_id", parentID).Error
}

func (r *variablesetRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.DatasetVariableset{}).Error
}
