package domain

import (
	"encoding/json"
	"fmt"

	pkgerrors "github.com/statlab/statlab-backend/internal/pkg/errors"
)

// ExportFormatVersion is stamped into every export document. Bump on
// breaking changes to the document shape.
const ExportFormatVersion = "2.0"

// ConflictResolution is the policy applied when an imported set name
// collides with an existing one.
type ConflictResolution string

const (
	ConflictSkip      ConflictResolution = "skip"
	ConflictOverwrite ConflictResolution = "overwrite"
	ConflictRename    ConflictResolution = "rename"
)

// VariablesetExportItem is one variable reference inside an exported set,
// addressed by name so the document survives transplantation into another
// dataset or installation.
type VariablesetExportItem struct {
	Name       string          `json:"name"`
	OrderIndex int             `json:"orderIndex"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

type VariablesetExportEntry struct {
	Name        string                  `json:"name"`
	Description *string                 `json:"description"`
	ParentName  *string                 `json:"parentName"`
	OrderIndex  int                     `json:"orderIndex"`
	Variables   []VariablesetExportItem `json:"variables"`
}

type VariablesetExportMetadata struct {
	DatasetID   string `json:"datasetId"`
	DatasetName string `json:"datasetName"`
	ExportedAt  string `json:"exportedAt"`
	Version     string `json:"version"`
}

// VariablesetExportFile is the portable artifact. It is a pure value:
// immutable once produced, no identity beyond its content.
type VariablesetExportFile struct {
	Metadata     VariablesetExportMetadata `json:"metadata"`
	VariableSets []VariablesetExportEntry  `json:"variableSets"`
}

// Validate rejects documents that do not have the expected shape before
// any reconciliation work starts.
func (f *VariablesetExportFile) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: missing document", pkgerrors.ErrInvalidArgument)
	}
	if f.Metadata.Version == "" {
		return fmt.Errorf("%w: missing metadata.version", pkgerrors.ErrInvalidArgument)
	}
	if f.VariableSets == nil {
		return fmt.Errorf("%w: missing variableSets", pkgerrors.ErrInvalidArgument)
	}
	for i, entry := range f.VariableSets {
		if entry.Name == "" {
			return fmt.Errorf("%w: variableSets[%d] has no name", pkgerrors.ErrInvalidArgument, i)
		}
		for j, item := range entry.Variables {
			if item.Name == "" {
				return fmt.Errorf("%w: variableSets[%d].variables[%d] has no name", pkgerrors.ErrInvalidArgument, i, j)
			}
		}
	}
	return nil
}

type VariablesetImportOptions struct {
	ConflictResolution ConflictResolution `json:"conflictResolution"`
}

func (o *VariablesetImportOptions) Validate() error {
	switch o.ConflictResolution {
	case "":
		o.ConflictResolution = ConflictSkip
	case ConflictSkip, ConflictOverwrite, ConflictRename:
	default:
		return fmt.Errorf("%w: unknown conflictResolution %q", pkgerrors.ErrInvalidArgument, o.ConflictResolution)
	}
	return nil
}

type ImportSetStatus string

const (
	ImportSetCreated ImportSetStatus = "created"
	ImportSetUpdated ImportSetStatus = "updated"
	ImportSetSkipped ImportSetStatus = "skipped"
	ImportSetFailed  ImportSetStatus = "failed"
)

type VariablesetImportSummary struct {
	TotalSets   int `json:"totalSets"`
	CreatedSets int `json:"createdSets"`
	SkippedSets int `json:"skippedSets"`
	UpdatedSets int `json:"updatedSets"`
	FailedSets  int `json:"failedSets"`
}

type VariablesetImportDetail struct {
	SetName            string          `json:"setName"`
	Status             ImportSetStatus `json:"status"`
	Message            string          `json:"message,omitempty"`
	UnmatchedVariables []string        `json:"unmatchedVariables,omitempty"`
}

// VariablesetImportResult is the per-call outcome report. Success stays
// true even when individual entries fail; callers must inspect
// Summary.FailedSets to detect partial failure.
type VariablesetImportResult struct {
	Success  bool                      `json:"success"`
	Summary  VariablesetImportSummary  `json:"summary"`
	Errors   []string                  `json:"errors"`
	Warnings []string                  `json:"warnings"`
	Details  []VariablesetImportDetail `json:"details"`
}

func NewVariablesetImportResult(totalSets int) *VariablesetImportResult {
	return &VariablesetImportResult{
		Success:  true,
		Summary:  VariablesetImportSummary{TotalSets: totalSets},
		Errors:   []string{},
		Warnings: []string{},
		Details:  []VariablesetImportDetail{},
	}
}
