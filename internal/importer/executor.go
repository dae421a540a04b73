package importer

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/database/models"
	"gorm.io/gorm"
)

// Pipeline runs one import batch end to end. It is stateless between
// runs; the import session lives only in its caller's request.
type Pipeline struct {
	store  LeadStore
	fields []FieldSpec
	logger *slog.Logger
}

func NewPipeline(store LeadStore, fields []FieldSpec, logger *slog.Logger) *Pipeline {
	return &Pipeline{store: store, fields: fields, logger: logger}
}

// Fields returns the active field catalog.
func (p *Pipeline) Fields() []FieldSpec {
	return p.fields
}

// Run processes a whole batch in one sequential pass: validate every
// row, resolve duplicates, then persist the survivors in row order.
// Row-level failures never abort the batch; rows created before a later
// failure stay created. importedBy is recorded as AssignedBy on every
// created lead; import never auto-assigns.
func (p *Pipeline) Run(ctx context.Context, wb *Workbook, sheetName string, mapping []MappingEntry, importedBy uuid.UUID) (*Report, error) {
	headers, err := wb.Headers(sheetName)
	if err != nil {
		return nil, err
	}
	rows, err := wb.DataRows(sheetName)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TotalRows: len(rows),
		Errors:    []RowError{},
		Leads:     []*models.Lead{},
	}

	var valid []MappedRow
	for _, row := range rows {
		mapped, errs := ValidateRow(p.fields, mapping, headers, row)
		if len(errs) > 0 {
			report.Errors = append(report.Errors, errs...)
			continue
		}
		valid = append(valid, mapped)
	}

	kept, dupErrs := p.resolveDuplicates(ctx, valid)
	report.Errors = append(report.Errors, dupErrs...)

	for _, row := range kept {
		lead := p.buildLead(row, importedBy)
		if err := p.store.Insert(ctx, lead); err != nil {
			// Late uniqueness violations happen when a concurrent write
			// slipped past the duplicate check; the store's constraint is
			// the final arbiter either way.
			msg := "failed to save lead"
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				msg = "lead with this email or phone already exists in database"
			}
			p.logger.Warn("import row rejected at persistence",
				"row", row.Number,
				"error", err,
			)
			report.Errors = append(report.Errors, RowError{
				Row:     row.Number,
				Field:   "email",
				Message: msg,
			})
			continue
		}
		report.Leads = append(report.Leads, lead)
	}

	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].Row < report.Errors[j].Row
	})

	report.FailedImports = countFailedRows(report.Errors)
	report.SuccessfulImports = report.TotalRows - report.FailedImports

	p.logger.Info("import batch completed",
		"sheet", sheetName,
		"total", report.TotalRows,
		"succeeded", report.SuccessfulImports,
		"failed", report.FailedImports,
	)

	return report, nil
}

// Preview validates the first n rows under the active mapping without
// touching the store, so the operator can inspect the outcome before
// executing the import.
func (p *Pipeline) Preview(wb *Workbook, sheetName string, mapping []MappingEntry, n int) ([]MappedRow, []RowError, error) {
	headers, err := wb.Headers(sheetName)
	if err != nil {
		return nil, nil, err
	}
	rows, err := wb.DataRows(sheetName)
	if err != nil {
		return nil, nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	var sample []MappedRow
	var errs []RowError
	for _, row := range rows {
		mapped, rowErrs := ValidateRow(p.fields, mapping, headers, row)
		if len(rowErrs) > 0 {
			errs = append(errs, rowErrs...)
			continue
		}
		sample = append(sample, mapped)
	}
	return sample, errs, nil
}

func (p *Pipeline) buildLead(row MappedRow, importedBy uuid.UUID) *models.Lead {
	source := models.SourceImport
	if v := row.Fields["source"]; v != "" {
		source = models.LeadSource(v)
	}
	priority := models.PriorityMedium
	if v := row.Fields["priority"]; v != "" {
		priority = models.LeadPriority(v)
	}

	lead := &models.Lead{
		Name:      row.Fields["name"],
		Email:     row.Fields["email"],
		Phone:     row.Fields["phone"],
		Company:   row.Fields["company"],
		Position:  row.Fields["position"],
		Location:  row.Fields["location"],
		Source:    source,
		Status:    models.StatusNew,
		Priority:  priority,
		LeadScore: models.ScoreForStatus(models.StatusNew),
	}
	if importedBy != uuid.Nil {
		lead.AssignedBy = &importedBy
	}
	return lead
}

// countFailedRows counts distinct failing rows; a row with several
// errors still fails once.
func countFailedRows(errs []RowError) int {
	rows := make(map[int]struct{}, len(errs))
	for _, e := range errs {
		rows[e.Row] = struct{}{}
	}
	return len(rows)
}
