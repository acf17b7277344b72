package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type VariableRepo interface {
	Create(ctx context.Context, tx *gorm.DB, vars []*domain.DatasetVariable) ([]*domain.DatasetVariable, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.DatasetVariable, error)
	ListByDatasetID(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.DatasetVariable, error)
	ListBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*VariableInSet, error)
	ListUnassigned(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error)
}

// VariableInSet is a variable row plus its position within one set.
type VariableInSet struct {
	domain.DatasetVariable
	OrderIndex int `json:"order_index"`
}

type variableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariableRepo(db *gorm.DB, baseLog *logger.Logger) VariableRepo {
	return &variableRepo{db: db, log: baseLog.With("repo", "VariableRepo")}
}

func (r *variableRepo) Create(ctx context.Context, tx *gorm.DB, vars []*domain.DatasetVariable) ([]*domain.DatasetVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(vars) == 0 {
		return []*domain.DatasetVariable{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&vars).Error; err != nil {
		return nil, err
	}
	return vars, nil
}

func (r *variableRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.DatasetVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.DatasetVariable
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

func (r *variableRepo) ListByDatasetID(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.DatasetVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.DatasetVariable
	if err := transaction.WithContext(ctx).
		Where("dataset_id = ?", datasetID).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *variableRepo) ListBySetID(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*VariableInSet, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*VariableInSet
	if err := transaction.WithContext(ctx).
		Model(&domain.DatasetVariable{}).
		Select("dataset_variable.*, dataset_variableset_item.order_index AS order_index").
		Joins("INNER JOIN dataset_variableset_item ON dataset_variableset_item.variable_id = dataset_variable.id").
		Where("dataset_variableset_item.variableset_id = ?", setID).
		Order("dataset_variableset_item.order_index ASC, dataset_variable.name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *variableRepo) ListUnassigned(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).
		Model(&domain.DatasetVariable{}).
		Joins("LEFT JOIN dataset_variableset_item ON dataset_variableset_item.variable_id = dataset_variable.id").
		Where("dataset_variable.dataset_id = ?", datasetID).
		Where("dataset_variableset_item.variable_id IS NULL")
	q = applyVariableSearch(q, search)

	var results []*domain.DatasetVariable
	if err := q.Order("dataset_variable.name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// applyVariableSearch adds a case-insensitive substring match over variable
// name and label. LOWER/LIKE instead of ILIKE keeps it portable across the
// postgres and sqlite drivers.
func applyVariableSearch(q *gorm.DB, search string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" {
		return q
	}
	pattern := "%" + strings.ToLower(search) + "%"
	return q.Where("LOWER(dataset_variable.name) LIKE ? OR LOWER(dataset_variable.label) LIKE ?", pattern, pattern)
}
