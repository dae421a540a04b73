package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hugh/leadhub/internal/api/dto"
	"github.com/hugh/leadhub/internal/api/middleware"
	"github.com/hugh/leadhub/internal/importer"
	"github.com/hugh/leadhub/internal/leads"
	"github.com/hugh/leadhub/pkg/config"
)

// The lead service doubles as the pipeline's store.
var _ importer.LeadStore = (*leads.Service)(nil)

type ImportHandler struct {
	pipeline *importer.Pipeline
	cfg      config.ImportConfig
	logger   *slog.Logger
}

func NewImportHandler(pipeline *importer.Pipeline, cfg config.ImportConfig, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{pipeline: pipeline, cfg: cfg, logger: logger}
}

// ImportResponse is the envelope for import pipeline results
type ImportResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// openUpload reads the uploaded file from the multipart form and parses
// it into a workbook. Form state is released before returning so the
// upload never outlives the request.
func (h *ImportHandler) openUpload(w http.ResponseWriter, r *http.Request) (*importer.Workbook, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "File exceeds the upload size limit"})
			return nil, false
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid multipart form"})
		return nil, false
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("failed to clean up uploaded file", "error", err)
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Missing file upload"})
		return nil, false
	}
	defer file.Close()

	kind, ok := importer.KindForFilename(header.Filename)
	if !ok {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Unsupported file type, expected .xlsx or .csv"})
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to read uploaded file"})
		return nil, false
	}

	wb, err := importer.OpenWorkbook(data, kind)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "File could not be read, it may be corrupt or in an unsupported format"})
		return nil, false
	}

	return wb, true
}

// Analyze handles POST /api/v1/leads/import/analyze
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	wb, ok := h.openUpload(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sheets": wb.Sheets(),
	})
}

// Mapping handles POST /api/v1/leads/import/mapping
func (h *ImportHandler) Mapping(w http.ResponseWriter, r *http.Request) {
	wb, ok := h.openUpload(w, r)
	if !ok {
		return
	}

	headers, err := wb.Headers(r.FormValue("sheet"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Sheet not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields":  h.pipeline.Fields(),
		"headers": headers,
		"mapping": importer.SuggestMapping(h.pipeline.Fields(), headers),
	})
}

// Preview handles POST /api/v1/leads/import/preview
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	wb, ok := h.openUpload(w, r)
	if !ok {
		return
	}

	mapping, ok := h.parseMapping(w, r)
	if !ok {
		return
	}

	rows, rowErrs, err := h.pipeline.Preview(wb, r.FormValue("sheet"), mapping, h.cfg.PreviewRows)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Sheet not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows":   rows,
		"errors": rowErrs,
	})
}

// Import handles POST /api/v1/leads/import
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	wb, ok := h.openUpload(w, r)
	if !ok {
		return
	}

	mapping, ok := h.parseMapping(w, r)
	if !ok {
		return
	}

	report, err := h.pipeline.Run(r.Context(), wb, r.FormValue("sheet"), mapping, middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Sheet not found"})
		return
	}

	message := "Import completed successfully"
	if !report.Succeeded() {
		message = "Import completed with errors"
	}

	writeJSON(w, http.StatusOK, ImportResponse{
		Success: report.Succeeded(),
		Message: message,
		Data:    report,
	})
}

// Template handles GET /api/v1/leads/import/template
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	data, err := importer.BuildTemplate(h.pipeline.Fields())
	if err != nil {
		h.logger.Error("failed to build import template", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to build template"})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="lead_import_template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ImportHandler) parseMapping(w http.ResponseWriter, r *http.Request) ([]importer.MappingEntry, bool) {
	raw := r.FormValue("mapping")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Missing column mapping"})
		return nil, false
	}

	var mapping []importer.MappingEntry
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid column mapping"})
		return nil, false
	}

	return mapping, true
}
