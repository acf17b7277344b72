package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/domain"
	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

type CreateVariablesetInput struct {
	DatasetID   uuid.UUID
	Name        string
	Description *string
	ParentID    *uuid.UUID
	OrderIndex  int
	Category    string
	Attributes  datatypes.JSON
}

// UpdateVariablesetInput carries only the fields to change; nil means
// leave as is. ClearParent moves the set back to the root level.
type UpdateVariablesetInput struct {
	Name        *string
	Description *string
	ParentID    *uuid.UUID
	ClearParent bool
	OrderIndex  *int
	Category    *string
	Attributes  datatypes.JSON
}

type VariablesetService interface {
	ListByDataset(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.DatasetVariableset, error)
	GetHierarchy(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.VariablesetTreeNode, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.DatasetVariableset, error)
	Create(ctx context.Context, tx *gorm.DB, input CreateVariablesetInput) (*domain.DatasetVariableset, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateVariablesetInput) (*domain.DatasetVariableset, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	VariablesInSet(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*repos.VariableInSet, error)
	UnassignedVariables(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error)
	AddVariableToSet(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID, orderIndex *int) error
	RemoveVariableFromSet(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID) error
}

type variablesetService struct {
	db       *gorm.DB
	log      *logger.Logger
	sets     repos.VariablesetRepo
	items    repos.VariablesetItemRepo
	vars     repos.VariableRepo
	datasets repos.DatasetRepo
}

func NewVariablesetService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sets repos.VariablesetRepo,
	items repos.VariablesetItemRepo,
	vars repos.VariableRepo,
	datasets repos.DatasetRepo,
) VariablesetService {
	return &variablesetService{
		db:       db,
		log:      baseLog.With("service", "VariablesetService"),
		sets:     sets,
		items:    items,
		vars:     vars,
		datasets: datasets,
	}
}

func (s *variablesetService) ListByDataset(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.DatasetVariableset, error) {
	return s.sets.ListByDatasetID(ctx, tx, datasetID)
}

func (s *variablesetService) GetHierarchy(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) ([]*domain.VariablesetTreeNode, error) {
	rows, err := s.sets.ListWithVariableCounts(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}
	return BuildVariablesetForest(rows), nil
}

// BuildVariablesetForest turns flat set rows into the root list of a
// hierarchy. A row whose parent id points at a missing row becomes a root,
// so every input row appears exactly once in the output even when
// referential integrity was violated upstream.
func BuildVariablesetForest(rows []*repos.VariablesetWithCount) []*domain.VariablesetTreeNode {
	nodeMap := make(map[uuid.UUID]*domain.VariablesetTreeNode, len(rows))
	ordered := make([]*domain.VariablesetTreeNode, 0, len(rows))
	for _, row := range rows {
		node := &domain.VariablesetTreeNode{
			ID:            row.ID,
			Name:          row.Name,
			Description:   row.Description,
			ParentID:      row.ParentID,
			OrderIndex:    row.OrderIndex,
			VariableCount: row.VariableCount,
			Children:      []*domain.VariablesetTreeNode{},
		}
		nodeMap[row.ID] = node
		ordered = append(ordered, node)
	}

	roots := []*domain.VariablesetTreeNode{}
	for _, node := range ordered {
		if node.ParentID != nil {
			if parent, ok := nodeMap[*node.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	// Levels are assigned after linking; input order carries no guarantee
	// that parents precede children.
	stack := append([]*domain.VariablesetTreeNode{}, roots...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range node.Children {
			child.Level = node.Level + 1
			stack = append(stack, child)
		}
	}
	return roots
}

func (s *variablesetService) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.DatasetVariableset, error) {
	return s.sets.GetByID(ctx, tx, id)
}

func (s *variablesetService) Create(ctx context.Context, tx *gorm.DB, input CreateVariablesetInput) (*domain.DatasetVariableset, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", pkgerrors.ErrInvalidArgument)
	}
	if _, err := s.datasets.GetByID(ctx, tx, input.DatasetID); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		parent, err := s.sets.GetByID(ctx, tx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("parent set: %w", err)
		}
		if parent.DatasetID != input.DatasetID {
			return nil, fmt.Errorf("%w: parent set belongs to a different dataset", pkgerrors.ErrInvalidArgument)
		}
	}

	category := input.Category
	if category == "" {
		category = "general"
	}
	set := &domain.DatasetVariableset{
		ID:          uuid.New(),
		DatasetID:   input.DatasetID,
		Name:        input.Name,
		Description: input.Description,
		ParentID:    input.ParentID,
		OrderIndex:  input.OrderIndex,
		Category:    category,
		Attributes:  input.Attributes,
	}
	created, err := s.sets.Create(ctx, tx, set)
	if err != nil {
		s.log.Error("Create variableset failed", "error", err, "dataset_id", input.DatasetID)
		return nil, err
	}
	return created, nil
}

func (s *variablesetService) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateVariablesetInput) (*domain.DatasetVariableset, error) {
	set, err := s.sets.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", pkgerrors.ErrInvalidArgument)
		}
		set.Name = *input.Name
	}
	if input.Description != nil {
		set.Description = input.Description
	}
	if input.OrderIndex != nil {
		set.OrderIndex = *input.OrderIndex
	}
	if input.Category != nil {
		set.Category = *input.Category
	}
	if input.Attributes != nil {
		set.Attributes = input.Attributes
	}
	switch {
	case input.ClearParent:
		set.ParentID = nil
	case input.ParentID != nil:
		if err := s.checkParentAssignment(ctx, tx, set, *input.ParentID); err != nil {
			return nil, err
		}
		set.ParentID = input.ParentID
	}

	updated, err := s.sets.Update(ctx, tx, set)
	if err != nil {
		s.log.Error("Update variableset failed", "error", err, "set_id", id)
		return nil, err
	}
	return updated, nil
}

// checkParentAssignment rejects parents from another dataset and parent
// chains that would loop back to the set itself.
func (s *variablesetService) checkParentAssignment(ctx context.Context, tx *gorm.DB, set *domain.DatasetVariableset, parentID uuid.UUID) error {
	if parentID == set.ID {
		return fmt.Errorf("%w: set cannot be its own parent", pkgerrors.ErrInvalidArgument)
	}
	parent, err := s.sets.GetByID(ctx, tx, parentID)
	if err != nil {
		return fmt.Errorf("parent set: %w", err)
	}
	if parent.DatasetID != set.DatasetID {
		return fmt.Errorf("%w: parent set belongs to a different dataset", pkgerrors.ErrInvalidArgument)
	}

	// Walk upward from the candidate parent. Visited guards against a
	// pre-existing cycle in stored data.
	visited := map[uuid.UUID]bool{set.ID: true}
	current := parent
	for {
		if visited[current.ID] {
			return fmt.Errorf("%w: parent assignment would create a cycle", pkgerrors.ErrInvalidArgument)
		}
		visited[current.ID] = true
		if current.ParentID == nil {
			return nil
		}
		next, err := s.sets.GetByID(ctx, tx, *current.ParentID)
		if err != nil {
			// Dangling ancestor chains end at a missing row; the chain
			// cannot reach the set being updated.
			return nil
		}
		current = next
	}
}

// Delete removes the set and its membership rows. Child sets are left
// pointing at the deleted id; the tree builder turns them into roots.
func (s *variablesetService) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if _, err := s.sets.GetByID(ctx, tx, id); err != nil {
		return err
	}
	if err := s.items.DeleteBySetID(ctx, tx, id); err != nil {
		return err
	}
	return s.sets.Delete(ctx, tx, id)
}

func (s *variablesetService) VariablesInSet(ctx context.Context, tx *gorm.DB, setID uuid.UUID) ([]*repos.VariableInSet, error) {
	return s.vars.ListBySetID(ctx, tx, setID)
}

func (s *variablesetService) UnassignedVariables(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, search string) ([]*domain.DatasetVariable, error) {
	return s.vars.ListUnassigned(ctx, tx, datasetID, search)
}

func (s *variablesetService) AddVariableToSet(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID, orderIndex *int) error {
	set, err := s.sets.GetByID(ctx, tx, setID)
	if err != nil {
		return err
	}
	variable, err := s.vars.GetByID(ctx, tx, variableID)
	if err != nil {
		return err
	}
	if variable.DatasetID != set.DatasetID {
		return fmt.Errorf("%w: variable belongs to a different dataset", pkgerrors.ErrInvalidArgument)
	}

	exists, err := s.items.Exists(ctx, tx, setID, variableID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: variable is already assigned to this set", pkgerrors.ErrConflict)
	}

	idx := 0
	if orderIndex != nil {
		idx = *orderIndex
	} else {
		max, err := s.items.MaxOrderIndex(ctx, tx, setID)
		if err != nil {
			return err
		}
		idx = max + 1
	}

	_, err = s.items.CreateBatch(ctx, tx, []*domain.DatasetVariablesetItem{{
		ID:            uuid.New(),
		VariablesetID: setID,
		VariableID:    variableID,
		OrderIndex:    idx,
	}})
	return err
}

func (s *variablesetService) RemoveVariableFromSet(ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID) error {
	return s.items.DeleteBySetAndVariable(ctx, tx, setID, variableID)
}
