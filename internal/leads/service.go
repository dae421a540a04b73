// Package leads is the storage service for lead records. It owns the
// uniqueness rules (email and phone are independent axes, enforced by
// the store's unique indexes) and the status-to-score derivation.
package leads

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	ErrDuplicate    = errors.New("lead with this email or phone already exists")
)

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// FindByEmail returns the lead with the given normalized email, or
// (nil, nil) when none exists.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// FindByPhone returns the lead with the given phone, or (nil, nil)
// when none exists.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&lead).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// Insert persists one lead. Unique-index violations pass through as
// gorm.ErrDuplicatedKey; the import pipeline relies on that.
func (s *Service) Insert(ctx context.Context, lead *models.Lead) error {
	lead.Email = strings.ToLower(lead.Email)
	return s.db.WithContext(ctx).Create(lead).Error
}

// Create persists a manually entered lead, mapping uniqueness
// violations to ErrDuplicate. A violating write is rejected, never a
// silent overwrite.
func (s *Service) Create(ctx context.Context, lead *models.Lead) error {
	lead.Email = strings.ToLower(lead.Email)
	if lead.Status == "" {
		lead.Status = models.StatusNew
	}
	lead.LeadScore = models.ScoreForStatus(lead.Status)
	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, err
	}
	return &lead, nil
}

// UpdateStatus moves a lead to a new pipeline stage and recomputes its
// score from the fixed status table.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error) {
	lead, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":     status,
		"lead_score": models.ScoreForStatus(status),
	}
	if err := s.db.WithContext(ctx).Model(lead).Updates(updates).Error; err != nil {
		return nil, err
	}

	lead.Status = status
	lead.LeadScore = models.ScoreForStatus(status)
	return lead, nil
}

// Assign sets the owning user of a lead and records who assigned it.
// A nil assignee unassigns the lead.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, assignee *uuid.UUID, assigner uuid.UUID) (*models.Lead, error) {
	lead, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"assigned_to": assignee,
		"assigned_by": assigner,
	}
	if err := s.db.WithContext(ctx).Model(lead).Updates(updates).Error; err != nil {
		return nil, err
	}

	lead.AssignedTo = assignee
	lead.AssignedBy = &assigner
	return lead, nil
}

// Delete removes a lead irreversibly, together with its notes.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Where("id = ?", id).Delete(&models.Lead{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLeadNotFound
		}
		return tx.Unscoped().Where("lead_id = ?", id).Delete(&models.LeadNote{}).Error
	})
}

// AddNote appends a note to a lead. Notes are append-only.
func (s *Service) AddNote(ctx context.Context, leadID, userID uuid.UUID, content string) (*models.LeadNote, error) {
	if _, err := s.GetByID(ctx, leadID); err != nil {
		return nil, err
	}

	note := &models.LeadNote{
		LeadID:  leadID,
		UserID:  userID,
		Content: content,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// Notes lists a lead's notes in creation order.
func (s *Service) Notes(ctx context.Context, leadID uuid.UUID) ([]models.LeadNote, error) {
	if _, err := s.GetByID(ctx, leadID); err != nil {
		return nil, err
	}

	var notes []models.LeadNote
	if err := s.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}
