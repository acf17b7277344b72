package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/statlab/statlab-backend/internal/data/repos"
	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/platform/logger"
)

// VariablesetExportService round-trips a dataset's variable-set hierarchy
// through the portable, name-addressed document format.
type VariablesetExportService interface {
	Export(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) (*domain.VariablesetExportFile, error)
	Import(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, doc *domain.VariablesetExportFile, options domain.VariablesetImportOptions) (*domain.VariablesetImportResult, error)
}

type variablesetExportService struct {
	db       *gorm.DB
	log      *logger.Logger
	sets     repos.VariablesetRepo
	items    repos.VariablesetItemRepo
	vars     repos.VariableRepo
	datasets repos.DatasetRepo
}

func NewVariablesetExportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	sets repos.VariablesetRepo,
	items repos.VariablesetItemRepo,
	vars repos.VariableRepo,
	datasets repos.DatasetRepo,
) VariablesetExportService {
	return &variablesetExportService{
		db:       db,
		log:      baseLog.With("service", "VariablesetExportService"),
		sets:     sets,
		items:    items,
		vars:     vars,
		datasets: datasets,
	}
}

// Export is all or nothing: any fetch failure surfaces as a single error.
func (s *variablesetExportService) Export(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) (*domain.VariablesetExportFile, error) {
	dataset, err := s.datasets.GetByID(ctx, tx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	rows, err := s.sets.ExportRows(ctx, tx, datasetID)
	if err != nil {
		return nil, err
	}

	// Every set appears in the join at least once (memberless sets carry
	// nil item columns), so the rows double as the parent-name lookup.
	setNames := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		setNames[row.SetID] = row.SetName
	}

	type setAccum struct {
		entry domain.VariablesetExportEntry
		pid   *uuid.UUID
	}
	order := make([]uuid.UUID, 0, len(rows))
	accums := make(map[uuid.UUID]*setAccum, len(rows))
	for _, row := range rows {
		acc, ok := accums[row.SetID]
		if !ok {
			acc = &setAccum{
				entry: domain.VariablesetExportEntry{
					Name:        row.SetName,
					Description: row.SetDescription,
					OrderIndex:  row.SetOrderIndex,
					Variables:   []domain.VariablesetExportItem{},
				},
				pid: row.SetParentID,
			}
			accums[row.SetID] = acc
			order = append(order, row.SetID)
		}
		// A dangling item (variable join produced no match) must not
		// corrupt the export; it is simply omitted.
		if row.VariableName == nil {
			continue
		}
		item := domain.VariablesetExportItem{Name: *row.VariableName}
		if row.ItemOrderIndex != nil {
			item.OrderIndex = *row.ItemOrderIndex
		}
		if len(row.ItemAttributes) > 0 {
			item.Attributes = append([]byte(nil), row.ItemAttributes...)
		}
		acc.entry.Variables = append(acc.entry.Variables, item)
	}

	entries := make([]domain.VariablesetExportEntry, 0, len(order))
	for _, setID := range order {
		acc := accums[setID]
		if acc.pid != nil {
			if name, ok := setNames[*acc.pid]; ok {
				acc.entry.ParentName = &name
			}
		}
		// SQL ordering covered sets only; item order is restored here.
		sort.SliceStable(acc.entry.Variables, func(i, j int) bool {
			if acc.entry.Variables[i].OrderIndex != acc.entry.Variables[j].OrderIndex {
				return acc.entry.Variables[i].OrderIndex < acc.entry.Variables[j].OrderIndex
			}
			return acc.entry.Variables[i].Name < acc.entry.Variables[j].Name
		})
		entries = append(entries, acc.entry)
	}

	return &domain.VariablesetExportFile{
		Metadata: domain.VariablesetExportMetadata{
			DatasetID:   dataset.ID.String(),
			DatasetName: dataset.Name,
			ExportedAt:  time.Now().UTC().Format(time.RFC3339),
			Version:     domain.ExportFormatVersion,
		},
		VariableSets: entries,
	}, nil
}

// Import reconciles the document against the destination dataset in two
// phases: create every set parentless in document order, then resolve
// parent links by name against the sets created this run. Failures inside
// one entry are recorded and never abort the rest of the batch; only
// failures outside the entry loop flip the result's Success flag. The
// returned error is non-nil only for invalid input, before any write.
func (s *variablesetExportService) Import(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID, doc *domain.VariablesetExportFile, options domain.VariablesetImportOptions) (*domain.VariablesetImportResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}

	result := domain.NewVariablesetImportResult(len(doc.VariableSets))

	dataset, err := s.datasets.GetByID(ctx, tx, datasetID)
	if err != nil {
		return s.failWhole(result, fmt.Errorf("dataset: %w", err)), nil
	}

	variableNameToID, err := s.preloadVariables(ctx, tx, dataset.ID)
	if err != nil {
		return s.failWhole(result, err), nil
	}
	nameTaken, err := s.preloadSetNames(ctx, tx, dataset.ID)
	if err != nil {
		return s.failWhole(result, err), nil
	}

	// Keyed by the document's own set name, not the final (possibly
	// renamed) one, so phase 2 can resolve parentName references.
	createdSets := make(map[string]uuid.UUID)

	for _, entry := range doc.VariableSets {
		s.importEntry(ctx, tx, dataset.ID, entry, options.ConflictResolution, variableNameToID, nameTaken, createdSets, result)
	}

	// Phase 2: parent linkage. Children may precede their parents in the
	// document, which is why linking happens only now. Sets created this
	// run start parentless, so walking the links resolved so far is enough
	// to keep every set off its own ancestor chain.
	linkedParent := make(map[uuid.UUID]uuid.UUID)
	for _, entry := range doc.VariableSets {
		if entry.ParentName == nil {
			continue
		}
		setID, ok := createdSets[entry.Name]
		if !ok {
			continue
		}
		parentID, ok := createdSets[*entry.ParentName]
		if !ok {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Parent %q not found for variable set %q", *entry.ParentName, entry.Name))
			continue
		}
		if parentID == setID {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Variable set %q cannot be its own parent", entry.Name))
			continue
		}
		if linkWouldCycle(linkedParent, setID, parentID) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Variable set %q cannot be its own ancestor", entry.Name))
			continue
		}
		if err := s.sets.UpdateParentID(ctx, tx, setID, &parentID); err != nil {
			return s.failWhole(result, fmt.Errorf("link parent of %q: %w", entry.Name, err)), nil
		}
		linkedParent[setID] = parentID
	}

	return result, nil
}

func (s *variablesetExportService) importEntry(
	ctx context.Context,
	tx *gorm.DB,
	datasetID uuid.UUID,
	entry domain.VariablesetExportEntry,
	resolution domain.ConflictResolution,
	variableNameToID map[string]uuid.UUID,
	nameTaken map[string]bool,
	createdSets map[string]uuid.UUID,
	result *domain.VariablesetImportResult,
) {
	nameExists := nameTaken[entry.Name]
	finalName := entry.Name

	if nameExists {
		switch resolution {
		case domain.ConflictSkip:
			result.Summary.SkippedSets++
			result.Details = append(result.Details, domain.VariablesetImportDetail{
				SetName: entry.Name,
				Status:  domain.ImportSetSkipped,
				Message: "Variable set already exists",
			})
			return
		case domain.ConflictRename:
			counter := 1
			for nameTaken[fmt.Sprintf("%s_%d", entry.Name, counter)] {
				counter++
			}
			finalName = fmt.Sprintf("%s_%d", entry.Name, counter)
		case domain.ConflictOverwrite:
			// Keeps the colliding name; a new set is created alongside
			// the existing one and reported as updated.
		}
	}

	matched := make([]*domain.DatasetVariablesetItem, 0, len(entry.Variables))
	unmatched := []string{}
	for _, item := range entry.Variables {
		variableID, ok := variableNameToID[item.Name]
		if !ok {
			unmatched = append(unmatched, item.Name)
			continue
		}
		row := &domain.DatasetVariablesetItem{
			ID:         uuid.New(),
			VariableID: variableID,
			OrderIndex: item.OrderIndex,
		}
		if len(item.Attributes) > 0 {
			row.Attributes = datatypes.JSON(item.Attributes)
		}
		matched = append(matched, row)
	}

	// A set whose entire declared membership failed to match is not worth
	// creating; a set declared empty from the start still is.
	if len(matched) == 0 && len(entry.Variables) > 0 {
		result.Summary.FailedSets++
		result.Details = append(result.Details, domain.VariablesetImportDetail{
			SetName:            entry.Name,
			Status:             domain.ImportSetFailed,
			Message:            "No valid variables found",
			UnmatchedVariables: unmatched,
		})
		return
	}

	set := &domain.DatasetVariableset{
		ID:          uuid.New(),
		DatasetID:   datasetID,
		Name:        finalName,
		Description: entry.Description,
		OrderIndex:  entry.OrderIndex,
		Category:    "general",
		// ParentID stays unset; phase 2 links it.
	}
	created, err := s.sets.Create(ctx, tx, set)
	if err != nil {
		s.log.Error("Import create set failed", "error", err, "set_name", entry.Name)
		result.Summary.FailedSets++
		result.Details = append(result.Details, domain.VariablesetImportDetail{
			SetName: entry.Name,
			Status:  domain.ImportSetFailed,
			Message: err.Error(),
		})
		return
	}

	for _, row := range matched {
		row.VariablesetID = created.ID
	}
	if _, err := s.items.CreateBatch(ctx, tx, matched); err != nil {
		s.log.Error("Import create items failed", "error", err, "set_name", entry.Name)
		result.Summary.FailedSets++
		result.Details = append(result.Details, domain.VariablesetImportDetail{
			SetName: entry.Name,
			Status:  domain.ImportSetFailed,
			Message: err.Error(),
		})
		return
	}

	createdSets[entry.Name] = created.ID
	nameTaken[finalName] = true

	status := domain.ImportSetCreated
	if nameExists && resolution == domain.ConflictOverwrite {
		status = domain.ImportSetUpdated
	}
	if status == domain.ImportSetUpdated {
		result.Summary.UpdatedSets++
	} else {
		result.Summary.CreatedSets++
	}

	detail := domain.VariablesetImportDetail{
		SetName: finalName,
		Status:  status,
	}
	if len(unmatched) > 0 {
		detail.Message = fmt.Sprintf("%d variables could not be matched", len(unmatched))
		detail.UnmatchedVariables = unmatched
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Variable set %q: %d variables could not be matched", finalName, len(unmatched)))
	}
	result.Details = append(result.Details, detail)
}

// linkWouldCycle reports whether putting child under parent would make the
// child one of its own ancestors, given the parent links resolved so far.
func linkWouldCycle(parents map[uuid.UUID]uuid.UUID, child, parent uuid.UUID) bool {
	for cur := parent; ; {
		if cur == child {
			return true
		}
		next, ok := parents[cur]
		if !ok {
			return false
		}
		cur = next
	}
}

func (s *variablesetExportService) preloadVariables(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) (map[string]uuid.UUID, error) {
	vars, err := s.vars.ListByDatasetID(ctx, tx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load dataset variables: %w", err)
	}
	m := make(map[string]uuid.UUID, len(vars))
	for _, v := range vars {
		m[v.Name] = v.ID
	}
	return m, nil
}

func (s *variablesetExportService) preloadSetNames(ctx context.Context, tx *gorm.DB, datasetID uuid.UUID) (map[string]bool, error) {
	sets, err := s.sets.ListByDatasetID(ctx, tx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("load existing variable sets: %w", err)
	}
	m := make(map[string]bool, len(sets))
	for _, set := range sets {
		m[set.Name] = true
	}
	return m, nil
}

func (s *variablesetExportService) failWhole(result *domain.VariablesetImportResult, err error) *domain.VariablesetImportResult {
	s.log.Error("Import aborted", "error", err)
	result.Success = false
	result.Errors = append(result.Errors, err.Error())
	return result
}
