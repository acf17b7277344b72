package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/domain"
)

func SeedOrganization(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *domain.Organization {
	tb.Helper()
	org := &domain.Organization{
		ID:   uuid.New(),
		Name: name,
		Slug: name + "-" + uuid.NewString()[:8],
	}
	if err := tx.WithContext(ctx).Create(org).Error; err != nil {
		tb.Fatalf("seed organization: %v", err)
	}
	return org
}

func SeedDataset(tb testing.TB, ctx context.Context, tx *gorm.DB, orgID uuid.UUID, name string) *domain.Dataset {
	tb.Helper()
	ds := &domain.Dataset{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Filename:       name + ".sav",
		Status:         "ready",
	}
	if err := tx.WithContext(ctx).Create(ds).Error; err != nil {
		tb.Fatalf("seed dataset: %v", err)
	}
	return ds
}

func SeedVariable(tb testing.TB, ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, name string) *domain.DatasetVariable {
	tb.Helper()
	v := &domain.DatasetVariable{
		ID:        uuid.New(),
		DatasetID: datasetID,
		Name:      name,
		Label:     name + " label",
		Type:      "numeric",
		Measure:   "nominal",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed variable %q: %v", name, err)
	}
	return v
}

func SeedVariableset(tb testing.TB, ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, name string, parentID *uuid.UUID, orderIndex int) *domain.DatasetVariableset {
	tb.Helper()
	desc := name + " description"
	set := &domain.DatasetVariableset{
		ID:          uuid.New(),
		DatasetID:   datasetID,
		Name:        name,
		Description: &desc,
		ParentID:    parentID,
		OrderIndex:  orderIndex,
		Category:    "general",
	}
	if err := tx.WithContext(ctx).Create(set).Error; err != nil {
		tb.Fatalf("seed variableset %q: %v", name, err)
	}
	return set
}

func SeedVariablesetItem(tb testing.TB, ctx context.Context, tx *gorm.DB, setID, variableID uuid.UUID, orderIndex int, attributes []byte) *domain.DatasetVariablesetItem {
	tb.Helper()
	item := &domain.DatasetVariablesetItem{
		ID:            uuid.New(),
		VariablesetID: setID,
		VariableID:    variableID,
		OrderIndex:    orderIndex,
	}
	if attributes != nil {
		item.Attributes = datatypes.JSON(attributes)
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed variableset item: %v", err)
	}
	return item
}

func SeedSplitVariable(tb testing.TB, ctx context.Context, tx *gorm.DB, datasetID, variableID uuid.UUID) *domain.DatasetSplitVariable {
	tb.Helper()
	sv := &domain.DatasetSplitVariable{
		ID:         uuid.New(),
		DatasetID:  datasetID,
		VariableID: variableID,
	}
	if err := tx.WithContext(ctx).Create(sv).Error; err != nil {
		tb.Fatalf("seed split variable: %v", err)
	}
	return sv
}
