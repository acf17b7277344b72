package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/statlab/statlab-backend/internal/http/response"
	"github.com/statlab/statlab-backend/internal/platform/logger"
	"github.com/statlab/statlab-backend/internal/services"
)

type VariablesetHandler struct {
	log    *logger.Logger
	sets   services.VariablesetService
	access services.AccessService
}

func NewVariablesetHandler(log *logger.Logger, sets services.VariablesetService, access services.AccessService) *VariablesetHandler {
	return &VariablesetHandler{
		log:    log.With("Handler", "VariablesetHandler"),
		sets:   sets,
		access: access,
	}
}

type createVariablesetRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description *string        `json:"description"`
	ParentID    *uuid.UUID     `json:"parentId"`
	OrderIndex  int            `json:"orderIndex"`
	Category    string         `json:"category"`
	Attributes  datatypes.JSON `json:"attributes"`
}

type updateVariablesetRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	ParentID    *uuid.UUID     `json:"parentId"`
	ClearParent bool           `json:"clearParent"`
	OrderIndex  *int           `json:"orderIndex"`
	Category    *string        `json:"category"`
	Attributes  datatypes.JSON `json:"attributes"`
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/datasets/:id/variablesets
func (h *VariablesetHandler) ListByDataset(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	sets, err := h.sets.ListByDataset(c.Request.Context(), nil, datasetID)
	if err != nil {
		h.log.Error("ListByDataset failed", "error", err, "dataset_id", datasetID)
		response.RespondServiceError(c, "load_variablesets_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"variableSets": sets})
}

// GET /api/datasets/:id/variablesets/hierarchy
func (h *VariablesetHandler) GetHierarchy(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	forest, err := h.sets.GetHierarchy(c.Request.Context(), nil, datasetID)
	if err != nil {
		h.log.Error("GetHierarchy failed", "error", err, "dataset_id", datasetID)
		response.RespondServiceError(c, "load_hierarchy_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"hierarchy": forest})
}

// GET /api/datasets/:id/variablesets/unassigned
func (h *VariablesetHandler) ListUnassigned(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	search := strings.TrimSpace(c.Query("search"))
	vars, err := h.sets.UnassignedVariables(c.Request.Context(), nil, datasetID, search)
	if err != nil {
		h.log.Error("ListUnassigned failed", "error", err, "dataset_id", datasetID)
		response.RespondServiceError(c, "load_unassigned_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

// POST /api/datasets/:id/variablesets
func (h *VariablesetHandler) Create(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	var req createVariablesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	set, err := h.sets.Create(c.Request.Context(), nil, services.CreateVariablesetInput{
		DatasetID:   datasetID,
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		OrderIndex:  req.OrderIndex,
		Category:    req.Category,
		Attributes:  req.Attributes,
	})
	if err != nil {
		response.RespondServiceError(c, "create_variableset_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"variableSet": set})
}

// GET /api/variablesets/:id
func (h *VariablesetHandler) Get(c *gin.Context) {
	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	set, err := h.sets.Get(c.Request.Context(), nil, setID)
	if err != nil {
		response.RespondServiceError(c, "load_variableset_failed", err)
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, set.DatasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	response.RespondOK(c, gin.H{"variableSet": set})
}

// PATCH /api/variablesets/:id
func (h *VariablesetHandler) Update(c *gin.Context) {
	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	set, err := h.sets.Get(c.Request.Context(), nil, setID)
	if err != nil {
		response.RespondServiceError(c, "load_variableset_failed", err)
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, set.DatasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	var req updateVariablesetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	updated, err := h.sets.Update(c.Request.Context(), nil, setID, services.UpdateVariablesetInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		ClearParent: req.ClearParent,
		OrderIndex:  req.OrderIndex,
		Category:    req.Category,
		Attributes:  req.Attributes,
	})
	if err != nil {
		response.RespondServiceError(c, "update_variableset_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"variableSet": updated})
}

// DELETE /api/variablesets/:id
func (h *VariablesetHandler) Delete(c *gin.Context) {
	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	set, err := h.sets.Get(c.Request.Context(), nil, setID)
	if err != nil {
		response.RespondServiceError(c, "load_variableset_failed", err)
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, set.DatasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	if err := h.sets.Delete(c.Request.Context(), nil, setID); err != nil {
		response.RespondServiceError(c, "delete_variableset_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": setID})
}

// GET /api/variablesets/:id/variables
func (h *VariablesetHandler) ListVariables(c *gin.Context) {
	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	set, err := h.sets.Get(c.Request.Context(), nil, setID)
	if err != nil {
		response.RespondServiceError(c, "load_variableset_failed", err)
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, set.DatasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	vars, err := h.sets.VariablesInSet(c.Request.Context(), nil, setID)
	if err != nil {
		h.log.Error("ListVariables failed", "error", err, "set_id", setID)
		response.RespondServiceError(c, "load_set_variables_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

type addVariableRequest struct {
	OrderIndex *int `json:"orderIndex"`
}

// POST /api/variablesets/:id/variables/:variableId
func (h *VariablesetHandler) AddVariable(c *gin.Context) {
	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	variableID, ok := parseIDParam(c, "variableId")
	if !ok {
		return
	}
	set, err := h.sets.Get(c.Request.Context(), nil, setID)
	if err != nil {
		response.RespondServiceError(c, "load_variableset_failed", err)
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, set.DatasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	// Body is optional; an empty body appends at the end of the set.
	var req addVariableRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}
	if err := h.sets.AddVariableToSet(c.Request.Context(), nil, setID, variableID, req.OrderIndex); err != nil {
		response.RespondServiceError(c, "add_variable_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"added": variableID})
}

// DELETE /api/variablesets/:id/variables/:variableId
func (h *VariablesetHandler) RemoveVariable(c *gin.Context) {
	setID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	variableID, ok := parseIDParam(c, "variableId")
	if !ok {
		return
	}
	set, err := h.sets.Get(c.Request.Context(), nil, setID)
	if err != nil {
		response.RespondServiceError(c, "load_variableset_failed", err)
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, set.DatasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	if err := h.sets.RemoveVariableFromSet(c.Request.Context(), nil, setID, variableID); err != nil {
		response.RespondServiceError(c, "remove_variable_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"removed": variableID})
}
