package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/hugh/leadhub/internal/api/dto"
	"github.com/hugh/leadhub/internal/api/middleware"
	"github.com/hugh/leadhub/internal/leads"
)

// AddNoteRequest represents the request to append a note to a lead
type AddNoteRequest struct {
	Content string `json:"content"`
}

func (r AddNoteRequest) Validate() map[string]string {
	errs := make(map[string]string)
	content := strings.TrimSpace(r.Content)
	if content == "" {
		errs["content"] = "Content is required"
	} else if len(content) > 1000 {
		errs["content"] = "Content must be at most 1000 characters"
	}
	return errs
}

// AddNote handles POST /api/v1/leads/:id/notes
func (h *LeadHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req AddNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	note, err := h.svc.AddNote(r.Context(), id, middleware.GetUserID(r.Context()), strings.TrimSpace(req.Content))
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to add note"})
		return
	}

	writeJSON(w, http.StatusCreated, note)
}

// ListNotes handles GET /api/v1/leads/:id/notes
func (h *LeadHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	notes, err := h.svc.Notes(r.Context(), id)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list notes"})
		return
	}

	writeJSON(w, http.StatusOK, notes)
}
