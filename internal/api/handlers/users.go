package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/api/dto"
	"github.com/hugh/leadhub/internal/api/middleware"
	"github.com/hugh/leadhub/internal/auth"
	"github.com/hugh/leadhub/internal/database/models"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	authService auth.Authenticator
}

func NewUserHandler(db *gorm.DB, authService auth.Authenticator) *UserHandler {
	return &UserHandler{db: db, authService: authService}
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get user"})
		return
	}

	writeJSON(w, http.StatusOK, userToDTO(user))
}

// List handles GET /api/v1/users (admin only)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	query := h.db.WithContext(r.Context()).Model(&models.User{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to count users"})
		return
	}

	var users []models.User
	if err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.PerPage).
		Find(&users).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list users"})
		return
	}

	dtos := make([]dto.UserDTO, len(users))
	for i := range users {
		dtos[i] = userToDTO(&users[i])
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// UpdateUserRequest represents the admin request to update a user account
type UpdateUserRequest struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (r UpdateUserRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.Role != nil && *r.Role != models.RoleAdmin && *r.Role != models.RoleUser {
		errs["role"] = "Role must be admin or user"
	}
	return errs
}

// Update handles PUT /api/v1/users/:id (admin only)
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	// Admins cannot demote or deactivate themselves
	if id == middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Cannot modify your own account"})
		return
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	result := h.db.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update user"})
		return
	}
	if result.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, id).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get user"})
		return
	}

	writeJSON(w, http.StatusOK, userToDTO(&user))
}
