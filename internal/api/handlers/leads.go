package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/api/dto"
	"github.com/hugh/leadhub/internal/api/middleware"
	"github.com/hugh/leadhub/internal/api/validation"
	"github.com/hugh/leadhub/internal/database/models"
	"github.com/hugh/leadhub/internal/leads"
	"gorm.io/gorm"
)

type LeadHandler struct {
	db  *gorm.DB
	svc *leads.Service
}

func NewLeadHandler(db *gorm.DB, svc *leads.Service) *LeadHandler {
	return &LeadHandler{db: db, svc: svc}
}

// CreateLeadRequest represents the request to create a lead manually
type CreateLeadRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
}

func (r CreateLeadRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "Name is required"
	} else if !validation.IsValidName(r.Name) {
		errs["name"] = "Name must be between 2 and 100 characters"
	}
	if strings.TrimSpace(r.Email) == "" {
		errs["email"] = "Email is required"
	} else if !validation.IsValidEmail(strings.TrimSpace(r.Email)) {
		errs["email"] = "Invalid email format"
	}
	if strings.TrimSpace(r.Phone) == "" {
		errs["phone"] = "Phone is required"
	} else if !validation.IsValidPhone(strings.TrimSpace(r.Phone)) {
		errs["phone"] = "Phone must be 7-25 characters"
	}
	for field, value := range map[string]string{
		"company": r.Company, "position": r.Position, "location": r.Location,
	} {
		if len(value) > 100 {
			errs[field] = "Must be at most 100 characters"
		}
	}
	if r.Source != "" {
		if _, err := models.ParseLeadSource(r.Source); err != nil {
			errs["source"] = err.Error()
		}
	}
	if r.Status != "" {
		if _, err := models.ParseLeadStatus(r.Status); err != nil {
			errs["status"] = err.Error()
		}
	}
	if r.Priority != "" {
		if _, err := models.ParseLeadPriority(r.Priority); err != nil {
			errs["priority"] = err.Error()
		}
	}

	return errs
}

// UpdateLeadRequest carries the mutable profile fields. Status changes
// go through the dedicated status endpoint so scores stay derived.
type UpdateLeadRequest struct {
	Name     *string `json:"name,omitempty"`
	Company  *string `json:"company,omitempty"`
	Position *string `json:"position,omitempty"`
	Location *string `json:"location,omitempty"`
	Priority *string `json:"priority,omitempty"`
}

func (r UpdateLeadRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if r.Name != nil && !validation.IsValidName(*r.Name) {
		errs["name"] = "Name must be between 2 and 100 characters"
	}
	for field, value := range map[string]*string{
		"company": r.Company, "position": r.Position, "location": r.Location,
	} {
		if value != nil && len(*value) > 100 {
			errs[field] = "Must be at most 100 characters"
		}
	}
	if r.Priority != nil {
		if _, err := models.ParseLeadPriority(*r.Priority); err != nil {
			errs["priority"] = err.Error()
		}
	}

	return errs
}

// List handles GET /api/v1/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	// Parse pagination
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	// Parse filters
	status := r.URL.Query().Get("status")
	priority := r.URL.Query().Get("priority")
	source := r.URL.Query().Get("source")
	assignedTo := r.URL.Query().Get("assigned_to")
	search := r.URL.Query().Get("search")

	// Build query
	query := h.db.WithContext(r.Context()).Model(&models.Lead{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if source != "" {
		query = query.Where("source = ?", source)
	}
	if assignedTo != "" {
		id, err := uuid.Parse(assignedTo)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assigned_to ID"})
			return
		}
		query = query.Where("assigned_to = ?", id)
	}
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?",
			like, like, like,
		)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count leads"})
		return
	}

	// Get paginated results
	var results []models.Lead
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&results).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list leads"})
		return
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       results,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Create handles POST /api/v1/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	source := models.SourceManual
	if req.Source != "" {
		source, _ = models.ParseLeadSource(req.Source)
	}
	status := models.StatusNew
	if req.Status != "" {
		status, _ = models.ParseLeadStatus(req.Status)
	}
	priority := models.PriorityMedium
	if req.Priority != "" {
		priority, _ = models.ParseLeadPriority(req.Priority)
	}

	lead := &models.Lead{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Company:  strings.TrimSpace(req.Company),
		Position: strings.TrimSpace(req.Position),
		Location: strings.TrimSpace(req.Location),
		Source:   source,
		Status:   status,
		Priority: priority,
	}

	if err := h.svc.Create(r.Context(), lead); err != nil {
		if errors.Is(err, leads.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Lead with this email or phone already exists"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create lead"})
		return
	}

	writeJSON(w, http.StatusCreated, lead)
}

// Get handles GET /api/v1/leads/:id
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var lead models.Lead
	if err := h.db.WithContext(r.Context()).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get lead"})
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Update handles PUT /api/v1/leads/:id
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Company != nil {
		updates["company"] = strings.TrimSpace(*req.Company)
	}
	if req.Position != nil {
		updates["position"] = strings.TrimSpace(*req.Position)
	}
	if req.Location != nil {
		updates["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}

	result := h.db.WithContext(r.Context()).Model(&models.Lead{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update lead"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
		return
	}

	var lead models.Lead
	if err := h.db.WithContext(r.Context()).First(&lead, id).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get lead"})
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// UpdateStatusRequest represents the request to move a lead through the
// pipeline
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/v1/leads/:id/status
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	status, err := models.ParseLeadStatus(req.Status)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Details: map[string]string{"status": err.Error()},
		})
		return
	}

	lead, err := h.svc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update lead status"})
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// AssignRequest represents the request to assign a lead to a user
type AssignRequest struct {
	UserID *string `json:"user_id"` // null unassigns
}

// Assign handles POST /api/v1/leads/:id/assign
func (h *LeadHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	var assignee *uuid.UUID
	if req.UserID != nil && *req.UserID != "" {
		userID, err := uuid.Parse(*req.UserID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
			return
		}
		var user models.User
		if err := h.db.WithContext(r.Context()).First(&user, userID).Error; err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Assignee not found"})
			return
		}
		assignee = &userID
	}

	lead, err := h.svc.Assign(r.Context(), id, assignee, middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to assign lead"})
		return
	}

	writeJSON(w, http.StatusOK, lead)
}

// Delete handles DELETE /api/v1/leads/:id. Admin only, irreversible.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, leads.ErrLeadNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Lead not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to delete lead"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Lead deleted"})
}

func parseLeadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid lead ID"})
		return uuid.Nil, false
	}
	return id, true
}
