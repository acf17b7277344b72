package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/statlab/statlab-backend/internal/http/response"
	"github.com/statlab/statlab-backend/internal/platform/logger"
	"github.com/statlab/statlab-backend/internal/services"
)

type SplitVariableHandler struct {
	log    *logger.Logger
	splits services.SplitVariableService
	access services.AccessService
}

func NewSplitVariableHandler(log *logger.Logger, splits services.SplitVariableService, access services.AccessService) *SplitVariableHandler {
	return &SplitVariableHandler{
		log:    log.With("Handler", "SplitVariableHandler"),
		splits: splits,
		access: access,
	}
}

// GET /api/datasets/:id/splitvariables
func (h *SplitVariableHandler) ListAssigned(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	vars, err := h.splits.ListAssigned(c.Request.Context(), nil, datasetID, strings.TrimSpace(c.Query("search")))
	if err != nil {
		h.log.Error("ListAssigned failed", "error", err, "dataset_id", datasetID)
		response.RespondServiceError(c, "load_split_variables_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

// GET /api/datasets/:id/splitvariables/available
func (h *SplitVariableHandler) ListAvailable(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	vars, err := h.splits.ListAvailable(c.Request.Context(), nil, datasetID, strings.TrimSpace(c.Query("search")))
	if err != nil {
		h.log.Error("ListAvailable failed", "error", err, "dataset_id", datasetID)
		response.RespondServiceError(c, "load_available_variables_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

// POST /api/datasets/:id/splitvariables/:variableId
func (h *SplitVariableHandler) Assign(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	variableID, ok := parseIDParam(c, "variableId")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	assignment, err := h.splits.Assign(c.Request.Context(), nil, datasetID, variableID)
	if err != nil {
		response.RespondServiceError(c, "assign_split_variable_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"splitVariable": assignment})
}

// DELETE /api/datasets/:id/splitvariables/:variableId
func (h *SplitVariableHandler) Unassign(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	variableID, ok := parseIDParam(c, "variableId")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	if err := h.splits.Unassign(c.Request.Context(), nil, datasetID, variableID); err != nil {
		response.RespondServiceError(c, "unassign_split_variable_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"removed": variableID})
}
