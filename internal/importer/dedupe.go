package importer

import (
	"context"
	"fmt"
)

// resolveDuplicates runs the two-phase de-duplication: first within the
// batch, then against the store. Only surviving rows are returned; each
// rejected row contributes one RowError. Rows rejected in the batch
// phase do not reserve their email/phone for later rows, since they will
// never be imported.
func (p *Pipeline) resolveDuplicates(ctx context.Context, rows []MappedRow) ([]MappedRow, []RowError) {
	var kept []MappedRow
	var errs []RowError

	// Phase 1: intra-batch, first occurrence by row order wins.
	// Deduplication covers both uniqueness axes, email and phone.
	seenEmail := make(map[string]int)
	seenPhone := make(map[string]int)
	var survivors []MappedRow

	for _, row := range rows {
		email := row.Fields["email"]
		phone := row.Fields["phone"]

		if firstRow, dup := seenEmail[email]; dup {
			errs = append(errs, RowError{
				Row:     row.Number,
				Field:   "email",
				Message: fmt.Sprintf("duplicate email within file: %s (first seen at row %d)", email, firstRow),
			})
			continue
		}
		if firstRow, dup := seenPhone[phone]; dup {
			errs = append(errs, RowError{
				Row:     row.Number,
				Field:   "phone",
				Message: fmt.Sprintf("duplicate phone within file: %s (first seen at row %d)", phone, firstRow),
			})
			continue
		}

		seenEmail[email] = row.Number
		seenPhone[phone] = row.Number
		survivors = append(survivors, row)
	}

	// Phase 2: against existing leads. A store failure here is row-scoped,
	// not fatal: the remaining rows are still processed.
	for _, row := range survivors {
		existing, err := p.store.FindByEmail(ctx, row.Fields["email"])
		if err != nil {
			errs = append(errs, RowError{
				Row:     row.Number,
				Field:   "email",
				Message: "failed to check for existing lead",
			})
			continue
		}
		if existing != nil {
			errs = append(errs, RowError{
				Row:     row.Number,
				Field:   "email",
				Message: fmt.Sprintf("lead with email %s already exists in database", row.Fields["email"]),
			})
			continue
		}

		existing, err = p.store.FindByPhone(ctx, row.Fields["phone"])
		if err != nil {
			errs = append(errs, RowError{
				Row:     row.Number,
				Field:   "phone",
				Message: "failed to check for existing lead",
			})
			continue
		}
		if existing != nil {
			errs = append(errs, RowError{
				Row:     row.Number,
				Field:   "phone",
				Message: fmt.Sprintf("lead with phone %s already exists in database", row.Fields["phone"]),
			})
			continue
		}

		kept = append(kept, row)
	}

	return kept, errs
}
