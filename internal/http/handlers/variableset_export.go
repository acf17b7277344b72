package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/statlab/statlab-backend/internal/domain"
	"github.com/statlab/statlab-backend/internal/http/response"
	"github.com/statlab/statlab-backend/internal/platform/logger"
	"github.com/statlab/statlab-backend/internal/services"
)

// Uploaded documents larger than this are rejected outright.
const maxImportFileSize = 10 << 20

type VariablesetExportHandler struct {
	log    *logger.Logger
	export services.VariablesetExportService
	access services.AccessService
}

func NewVariablesetExportHandler(log *logger.Logger, export services.VariablesetExportService, access services.AccessService) *VariablesetExportHandler {
	return &VariablesetExportHandler{
		log:    log.With("Handler", "VariablesetExportHandler"),
		export: export,
		access: access,
	}
}

// GET /api/datasets/:id/variablesets/export
func (h *VariablesetExportHandler) Export(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}
	doc, err := h.export.Export(c.Request.Context(), nil, datasetID)
	if err != nil {
		h.log.Error("Export failed", "error", err, "dataset_id", datasetID)
		response.RespondServiceError(c, "export_failed", err)
		return
	}
	filename := exportFilename(doc.Metadata.DatasetName, time.Now().UTC())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, doc)
}

func exportFilename(datasetName string, now time.Time) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, datasetName)
	return fmt.Sprintf("dataset-%s-variablesets-%s.json", sanitized, now.Format("2006-01-02"))
}

// isJSONUpload accepts files carrying a JSON content type or a .json name.
func isJSONUpload(filename, contentType string) bool {
	if ct := strings.ToLower(strings.TrimSpace(contentType)); ct != "" {
		if mediaType, _, _ := strings.Cut(ct, ";"); mediaType == "application/json" || mediaType == "text/json" {
			return true
		}
	}
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

type importBody struct {
	Data    *domain.VariablesetExportFile   `json:"data"`
	Options domain.VariablesetImportOptions `json:"options"`
}

// POST /api/datasets/:id/variablesets/import
//
// Accepts either a multipart upload ("file" part plus an "options" part
// holding the import options as JSON) or a JSON body with the document
// under "data".
func (h *VariablesetExportHandler) Import(c *gin.Context) {
	datasetID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.access.AssertDatasetAccess(c.Request.Context(), nil, datasetID); err != nil {
		response.RespondServiceError(c, "dataset_access", err)
		return
	}

	doc, options, err := h.parseImportRequest(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_import_request", err)
		return
	}

	result, err := h.export.Import(c.Request.Context(), nil, datasetID, doc, options)
	if err != nil {
		response.RespondServiceError(c, "import_failed", err)
		return
	}
	response.RespondOK(c, result)
}

func (h *VariablesetExportHandler) parseImportRequest(c *gin.Context) (*domain.VariablesetExportFile, domain.VariablesetImportOptions, error) {
	var options domain.VariablesetImportOptions

	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/") {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, options, fmt.Errorf("missing file: %w", err)
		}
		if fileHeader.Size > maxImportFileSize {
			return nil, options, fmt.Errorf("file exceeds %d bytes", int64(maxImportFileSize))
		}
		if !isJSONUpload(fileHeader.Filename, fileHeader.Header.Get("Content-Type")) {
			return nil, options, fmt.Errorf("file must be a JSON document")
		}
		f, err := fileHeader.Open()
		if err != nil {
			return nil, options, fmt.Errorf("open file: %w", err)
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, maxImportFileSize+1))
		if err != nil {
			return nil, options, fmt.Errorf("read file: %w", err)
		}
		var doc domain.VariablesetExportFile
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, options, fmt.Errorf("parse document: %w", err)
		}
		if optionsJSON := strings.TrimSpace(c.PostForm("options")); optionsJSON != "" {
			if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
				return nil, options, fmt.Errorf("parse options: %w", err)
			}
		}
		return &doc, options, nil
	}

	var body importBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, options, fmt.Errorf("parse body: %w", err)
	}
	if body.Data == nil {
		return nil, options, fmt.Errorf("missing data")
	}
	return body.Data, body.Options, nil
}
