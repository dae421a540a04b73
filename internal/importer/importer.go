// Package importer implements the spreadsheet-to-lead import pipeline:
// workbook analysis, field mapping, per-row validation, duplicate
// resolution and batch execution. The pipeline holds no database state
// of its own; persistence goes through the injected LeadStore.
package importer

import (
	"context"
	"errors"

	"github.com/hugh/leadhub/internal/database/models"
)

// ErrUnreadableFile is returned when an uploaded buffer cannot be parsed
// in its declared format. It is fatal to the whole import: no row
// processing happens after it.
var ErrUnreadableFile = errors.New("file could not be read")

// LeadStore is the persistence surface the pipeline needs. FindByEmail
// and FindByPhone return (nil, nil) when no lead matches. Insert must
// surface unique-index violations as gorm.ErrDuplicatedKey so the store
// stays the final arbiter of email/phone uniqueness.
type LeadStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Lead, error)
	FindByPhone(ctx context.Context, phone string) (*models.Lead, error)
	Insert(ctx context.Context, lead *models.Lead) error
}

// RowError is a validation, duplicate or persistence failure scoped to a
// single input row. Row numbers are 1-based spreadsheet rows including
// the header, so the first data row reports as row 2.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Report is the outcome of one import batch.
// SuccessfulImports + FailedImports == TotalRows always holds; a row
// counts as failed if it produced at least one error at any phase.
type Report struct {
	TotalRows         int            `json:"totalRows"`
	SuccessfulImports int            `json:"successfulImports"`
	FailedImports     int            `json:"failedImports"`
	Errors            []RowError     `json:"errors"`
	Leads             []*models.Lead `json:"leads"`
}

// Succeeded reports whether the batch imported without a single row
// error. The transport-level 200 only means the pipeline ran.
func (r *Report) Succeeded() bool {
	return r.FailedImports == 0
}

// MappedRow is one input row after mapping: cell values keyed by lead
// field name, decoupled from the sheet's column layout.
type MappedRow struct {
	Number int               `json:"row"`
	Fields map[string]string `json:"fields"`
}
