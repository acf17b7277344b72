package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/statlab/statlab-backend/internal/domain"
)

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		dataset string
		want    string
	}{
		{"plain", "survey", "dataset-survey-variablesets-2026-03-14.json"},
		{"spaces and punctuation", "Q1 Survey (final)", "dataset-Q1_Survey__final_-variablesets-2026-03-14.json"},
		{"unicode", "études", "dataset-_tudes-variablesets-2026-03-14.json"},
		{"empty", "", "dataset--variablesets-2026-03-14.json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exportFilename(tc.dataset, now); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func multipartImportRequest(t *testing.T, filename, fileContentType, fileBody, optionsJSON string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if fileContentType != "" {
		header.Set("Content-Type", fileContentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte(fileBody)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if optionsJSON != "" {
		if err := mw.WriteField("options", optionsJSON); err != nil {
			t.Fatalf("write options: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, "/api/datasets/x/variablesets/import", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	return c
}

const minimalImportDoc = `{"metadata":{"version":"2.0"},"variableSets":[{"name":"Demographics","variables":[]}]}`

func TestParseImportRequestReadsOptionsPart(t *testing.T) {
	h := &VariablesetExportHandler{}

	c := multipartImportRequest(t, "export.json", "application/json", minimalImportDoc, `{"conflictResolution":"rename"}`)
	doc, options, err := h.parseImportRequest(c)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if options.ConflictResolution != domain.ConflictRename {
		t.Fatalf("conflictResolution = %q, want %q", options.ConflictResolution, domain.ConflictRename)
	}
	if len(doc.VariableSets) != 1 || doc.VariableSets[0].Name != "Demographics" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestParseImportRequestOptionsDefaults(t *testing.T) {
	h := &VariablesetExportHandler{}

	c := multipartImportRequest(t, "export.json", "application/json", minimalImportDoc, "")
	_, options, err := h.parseImportRequest(c)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if options.ConflictResolution != "" {
		t.Fatalf("conflictResolution = %q, want empty", options.ConflictResolution)
	}
}

func TestParseImportRequestRejectsBadOptions(t *testing.T) {
	h := &VariablesetExportHandler{}

	c := multipartImportRequest(t, "export.json", "application/json", minimalImportDoc, `not json`)
	if _, _, err := h.parseImportRequest(c); err == nil {
		t.Fatal("expected error for malformed options part")
	}
}

func TestParseImportRequestRejectsNonJSONFile(t *testing.T) {
	h := &VariablesetExportHandler{}

	c := multipartImportRequest(t, "export.csv", "text/csv", "a,b,c", "")
	_, _, err := h.parseImportRequest(c)
	if err == nil {
		t.Fatal("expected error for non-JSON upload")
	}
	if !strings.Contains(err.Error(), "JSON") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIsJSONUpload(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		want        bool
	}{
		{"json extension", "export.json", "", true},
		{"json content type", "export", "application/json", true},
		{"json content type with charset", "export", "application/json; charset=utf-8", true},
		{"octet-stream with json name", "export.JSON", "application/octet-stream", true},
		{"csv", "export.csv", "text/csv", false},
		{"no hints", "export", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isJSONUpload(tc.filename, tc.contentType); got != tc.want {
				t.Fatalf("isJSONUpload(%q, %q) = %v, want %v", tc.filename, tc.contentType, got, tc.want)
			}
		})
	}
}
