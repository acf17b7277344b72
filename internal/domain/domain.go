package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Organization struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Slug      string    `gorm:"column:slug;uniqueIndex" json:"slug"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Organization) TableName() string {
	return "organization"
}

// Member ties a user id (owned by the external identity provider) to an
// organization. Only the membership fact is stored here.
type Member struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_member_org_user" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_member_org_user" json:"user_id"`
	Role           string    `gorm:"column:role;not null;default:'member'" json:"role"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
}

func (Member) TableName() string {
	return "member"
}

type Project struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	Description    string    `gorm:"column:description" json:"description"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

type Dataset struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organization_id"`
	Organization   *Organization `gorm:"constraint:OnDelete:CASCADE;foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`
	Name           string        `gorm:"column:name;not null" json:"name"`
	Filename       string        `gorm:"column:filename" json:"filename"`
	Status         string        `gorm:"column:status;not null;default:'ready'" json:"status"`
	CreatedAt      time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null" json:"updated_at"`
}

func (Dataset) TableName() string {
	return "dataset"
}

// DatasetProject makes a dataset visible to a project.
type DatasetProject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_dataset_project" json:"dataset_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:uniq_dataset_project" json:"project_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (DatasetProject) TableName() string {
	return "dataset_project"
}

// DatasetVariable is one column of an uploaded statistical file. Name is
// the stable, human-chosen handle unique within its dataset; exports
// address variables by name, never by id.
type DatasetVariable struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID      uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:uniq_dataset_variable_name" json:"dataset_id"`
	Dataset        *Dataset       `gorm:"constraint:OnDelete:CASCADE;foreignKey:DatasetID;references:ID" json:"dataset,omitempty"`
	Name           string         `gorm:"column:name;not null;uniqueIndex:uniq_dataset_variable_name" json:"name"`
	Label          string         `gorm:"column:label" json:"label"`
	Type           string         `gorm:"column:type" json:"type"`
	Measure        string         `gorm:"column:measure" json:"measure"`
	VariableLabels datatypes.JSON `gorm:"column:variable_labels;type:jsonb" json:"variable_labels"`
	ValueLabels    datatypes.JSON `gorm:"column:value_labels;type:jsonb" json:"value_labels"`
	MissingValues  datatypes.JSON `gorm:"column:missing_values;type:jsonb" json:"missing_values"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (DatasetVariable) TableName() string {
	return "dataset_variable"
}

// Identifiers are assigned in the application so the schema migrates the
// same on every supported driver.
func (m *Organization) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Project) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *Dataset) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *DatasetProject) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *DatasetVariable) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
