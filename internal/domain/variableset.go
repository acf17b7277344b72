package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatasetVariableset is a named, optionally nested grouping of dataset
// variables. ParentID points at another set of the same dataset; a missing
// parent row is tolerated and the tree builder turns such sets into roots.
type DatasetVariableset struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"dataset_id"`
	Dataset     *Dataset       `gorm:"constraint:OnDelete:CASCADE;foreignKey:DatasetID;references:ID" json:"dataset,omitempty"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description *string        `gorm:"column:description" json:"description"`
	ParentID    *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	OrderIndex  int            `gorm:"column:order_index;not null;default:0" json:"order_index"`
	Category    string         `gorm:"column:category;not null;default:'general'" json:"category"`
	Attributes  datatypes.JSON `gorm:"column:attributes;type:jsonb" json:"attributes,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (DatasetVariableset) TableName() string {
	return "dataset_variableset"
}

// DatasetVariablesetItem is the membership of one variable in one set.
// The (variableset_id, variable_id) pair is unique: a variable appears at
// most once per set.
type DatasetVariablesetItem struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	VariablesetID uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:uniq_variableset_variable" json:"variableset_id"`
	Variableset   *DatasetVariableset `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariablesetID;references:ID" json:"variableset,omitempty"`
	VariableID    uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:uniq_variableset_variable" json:"variable_id"`
	Variable      *DatasetVariable    `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"variable,omitempty"`
	OrderIndex    int                 `gorm:"column:order_index;not null;default:0" json:"order_index"`
	Attributes    datatypes.JSON      `gorm:"column:attributes;type:jsonb" json:"attributes,omitempty"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
}

func (DatasetVariablesetItem) TableName() string {
	return "dataset_variableset_item"
}

// DatasetSplitVariable flags a variable as usable for faceting chart
// output. A variable appears at most once per dataset.
type DatasetSplitVariable struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID  uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:uniq_dataset_split_variable" json:"dataset_id"`
	Dataset    *Dataset         `gorm:"constraint:OnDelete:CASCADE;foreignKey:DatasetID;references:ID" json:"dataset,omitempty"`
	VariableID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:uniq_dataset_split_variable" json:"variable_id"`
	Variable   *DatasetVariable `gorm:"constraint:OnDelete:CASCADE;foreignKey:VariableID;references:ID" json:"variable,omitempty"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`
}

func (DatasetSplitVariable) TableName() string {
	return "dataset_split_variable"
}

// VariablesetTreeNode is one node of the hierarchy view: the set row plus
// its resolved children, nesting depth and aggregate variable count.
type VariablesetTreeNode struct {
	ID            uuid.UUID              `json:"id"`
	Name          string                 `json:"name"`
	Description   *string                `json:"description"`
	ParentID      *uuid.UUID             `json:"parentId"`
	OrderIndex    int                    `json:"orderIndex"`
	VariableCount int                    `json:"variableCount"`
	Children      []*VariablesetTreeNode `json:"children"`
	Level         int                    `json:"level"`
}

func (m *DatasetVariableset) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *DatasetVariablesetItem) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *DatasetSplitVariable) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
