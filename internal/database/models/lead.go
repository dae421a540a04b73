package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type LeadSource string

const (
	SourceWebsite       LeadSource = "Website"
	SourceSocialMedia   LeadSource = "Social Media"
	SourceReferral      LeadSource = "Referral"
	SourceImport        LeadSource = "Import"
	SourceManual        LeadSource = "Manual"
	SourceColdCall      LeadSource = "Cold Call"
	SourceEmailCampaign LeadSource = "Email Campaign"
)

type LeadStatus string

const (
	StatusNew           LeadStatus = "New"
	StatusContacted     LeadStatus = "Contacted"
	StatusInterested    LeadStatus = "Interested"
	StatusNotInterested LeadStatus = "Not Interested"
	StatusFollowUp      LeadStatus = "Follow-up"
	StatusQualified     LeadStatus = "Qualified"
	StatusProposalSent  LeadStatus = "Proposal Sent"
	StatusNegotiating   LeadStatus = "Negotiating"
	StatusClosedWon     LeadStatus = "Closed-Won"
	StatusClosedLost    LeadStatus = "Closed-Lost"
)

type LeadPriority string

const (
	PriorityHigh   LeadPriority = "High"
	PriorityMedium LeadPriority = "Medium"
	PriorityLow    LeadPriority = "Low"
)

// LeadSources lists the allowed sources in a stable order.
var LeadSources = []LeadSource{
	SourceWebsite, SourceSocialMedia, SourceReferral, SourceImport,
	SourceManual, SourceColdCall, SourceEmailCampaign,
}

// LeadStatuses lists the pipeline stages in lifecycle order.
var LeadStatuses = []LeadStatus{
	StatusNew, StatusContacted, StatusInterested, StatusNotInterested,
	StatusFollowUp, StatusQualified, StatusProposalSent, StatusNegotiating,
	StatusClosedWon, StatusClosedLost,
}

var LeadPriorities = []LeadPriority{PriorityHigh, PriorityMedium, PriorityLow}

// statusScores maps each pipeline stage to its fixed lead score.
var statusScores = map[LeadStatus]int{
	StatusNew:           20,
	StatusContacted:     30,
	StatusInterested:    50,
	StatusNotInterested: 10,
	StatusFollowUp:      40,
	StatusQualified:     70,
	StatusProposalSent:  80,
	StatusNegotiating:   90,
	StatusClosedWon:     100,
	StatusClosedLost:    0,
}

// ScoreForStatus returns the deterministic score for a status.
// Unknown statuses score as New.
func ScoreForStatus(s LeadStatus) int {
	if score, ok := statusScores[s]; ok {
		return score
	}
	return statusScores[StatusNew]
}

// ParseLeadSource validates an external string against the source enum.
// Matching is case-sensitive after trimming.
func ParseLeadSource(s string) (LeadSource, error) {
	v := LeadSource(strings.TrimSpace(s))
	for _, allowed := range LeadSources {
		if v == allowed {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid source %q, allowed values: %s", s, joinSources())
}

func ParseLeadStatus(s string) (LeadStatus, error) {
	v := LeadStatus(strings.TrimSpace(s))
	for _, allowed := range LeadStatuses {
		if v == allowed {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", s)
}

func ParseLeadPriority(s string) (LeadPriority, error) {
	v := LeadPriority(strings.TrimSpace(s))
	for _, allowed := range LeadPriorities {
		if v == allowed {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q, allowed values: High, Medium, Low", s)
}

func joinSources() string {
	parts := make([]string, len(LeadSources))
	for i, s := range LeadSources {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

type Lead struct {
	Base
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Phone string `gorm:"uniqueIndex;not null" json:"phone"`

	Company  string `json:"company,omitempty"`
	Position string `json:"position,omitempty"`
	Location string `json:"location,omitempty"`

	Source   LeadSource   `gorm:"not null;default:'Manual'" json:"source"`
	Status   LeadStatus   `gorm:"not null;default:'New';index" json:"status"`
	Priority LeadPriority `gorm:"not null;default:'Medium';index" json:"priority"`

	// Derived from Status, recomputed on every status change.
	LeadScore int `gorm:"default:20" json:"lead_score"`

	AssignedTo *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to,omitempty"`
	AssignedBy *uuid.UUID `gorm:"type:uuid" json:"assigned_by,omitempty"`

	// Relationships
	Assignee *User      `gorm:"foreignKey:AssignedTo" json:"assignee,omitempty"`
	Notes    []LeadNote `gorm:"foreignKey:LeadID" json:"notes,omitempty"`
}

func (Lead) TableName() string {
	return "leads"
}
