package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeStore is an in-memory LeadStore for pipeline tests.
type fakeStore struct {
	byEmail   map[string]*models.Lead
	byPhone   map[string]*models.Lead
	inserted  []*models.Lead
	findErr   error
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byEmail: make(map[string]*models.Lead),
		byPhone: make(map[string]*models.Lead),
	}
}

func (s *fakeStore) seed(email, phone string) {
	lead := &models.Lead{Email: email, Phone: phone}
	s.byEmail[email] = lead
	s.byPhone[phone] = lead
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*models.Lead, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byEmail[email], nil
}

func (s *fakeStore) FindByPhone(_ context.Context, phone string) (*models.Lead, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byPhone[phone], nil
}

func (s *fakeStore) Insert(_ context.Context, lead *models.Lead) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.byEmail[lead.Email]; ok {
		return gorm.ErrDuplicatedKey
	}
	if _, ok := s.byPhone[lead.Phone]; ok {
		return gorm.ErrDuplicatedKey
	}
	s.byEmail[lead.Email] = lead
	s.byPhone[lead.Phone] = lead
	s.inserted = append(s.inserted, lead)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runImport(t *testing.T, store LeadStore, csvData string) *Report {
	t.Helper()

	wb, err := OpenWorkbook([]byte(csvData), KindCSV)
	require.NoError(t, err)

	headers, err := wb.Headers("Sheet1")
	require.NoError(t, err)

	pipeline := NewPipeline(store, DefaultLeadFields(), testLogger())
	mapping := SuggestMapping(pipeline.Fields(), headers)

	report, err := pipeline.Run(context.Background(), wb, "Sheet1", mapping, uuid.New())
	require.NoError(t, err)
	return report
}

func TestRunCleanBatch(t *testing.T) {
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,bob@example.com,+15550002\n"+
			"Carol,carol@example.com,+15550003\n")

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 3, report.SuccessfulImports)
	assert.Equal(t, 0, report.FailedImports)
	assert.Empty(t, report.Errors)
	assert.True(t, report.Succeeded())
	assert.Len(t, store.inserted, 3)
}

func TestRunDuplicateEmailWithinFile(t *testing.T) {
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,bob@example.com,+15550002\n"+
			"Carol,carol@example.com,+15550003\n"+
			"Alice Again,alice@example.com,+15550004\n")

	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 3, report.SuccessfulImports)
	assert.Equal(t, 1, report.FailedImports)
	assert.False(t, report.Succeeded())

	require.Len(t, report.Errors, 1)
	assert.Equal(t, 5, report.Errors[0].Row)
	assert.Equal(t, "email", report.Errors[0].Field)
	assert.Equal(t, "duplicate email within file: alice@example.com (first seen at row 2)", report.Errors[0].Message)

	// First occurrence won.
	require.Len(t, store.inserted, 3)
	assert.Equal(t, "+15550001", store.byEmail["alice@example.com"].Phone)
}

func TestRunDuplicatePhoneWithinFile(t *testing.T) {
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,bob@example.com,+15550001\n")

	assert.Equal(t, 1, report.FailedImports)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "phone", report.Errors[0].Field)
	assert.Equal(t, "duplicate phone within file: +15550001 (first seen at row 2)", report.Errors[0].Message)
}

func TestRunValidationFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,bob@example.com,\n"+
			"Carol,carol@example.com,+15550003\n")

	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 2, report.SuccessfulImports)
	assert.Equal(t, 1, report.FailedImports)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Equal(t, "Phone is required", report.Errors[0].Message)
	assert.Len(t, store.inserted, 2)
}

func TestRunInvalidEnumReportsAllowedValues(t *testing.T) {
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone,Source\n"+
			"Alice,alice@example.com,+15550001,Bogus\n")

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "source", report.Errors[0].Field)
	assert.Contains(t, report.Errors[0].Message, `invalid source "Bogus"`)
	assert.Contains(t, report.Errors[0].Message, "Website, Social Media, Referral, Import, Manual, Cold Call, Email Campaign")
	assert.Empty(t, store.inserted)
}

func TestRunExistingLeadInDatabase(t *testing.T) {
	store := newFakeStore()
	store.seed("alice@example.com", "+15559999")

	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,bob@example.com,+15550002\n")

	assert.Equal(t, 1, report.SuccessfulImports)
	assert.Equal(t, 1, report.FailedImports)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Equal(t, "lead with email alice@example.com already exists in database", report.Errors[0].Message)
}

func TestRunExistingPhoneInDatabase(t *testing.T) {
	store := newFakeStore()
	store.seed("other@example.com", "+15550001")

	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n")

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "phone", report.Errors[0].Field)
	assert.Equal(t, "lead with phone +15550001 already exists in database", report.Errors[0].Message)
}

func TestRunIdempotentReimport(t *testing.T) {
	store := newFakeStore()
	data := "Name,Email,Phone\n" +
		"Alice,alice@example.com,+15550001\n" +
		"Bob,bob@example.com,+15550002\n"

	first := runImport(t, store, data)
	assert.Equal(t, 2, first.SuccessfulImports)

	second := runImport(t, store, data)
	assert.Equal(t, 2, second.TotalRows)
	assert.Equal(t, 0, second.SuccessfulImports)
	assert.Equal(t, 2, second.FailedImports)
	assert.Len(t, store.inserted, 2)
}

func TestRunRejectedRowDoesNotReserveValues(t *testing.T) {
	// Row 3 collides with row 2 on email and is rejected. Row 4 collides
	// only with the rejected row 3 on phone, so it still imports.
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Dup,alice@example.com,+15550002\n"+
			"Bob,bob@example.com,+15550002\n")

	assert.Equal(t, 2, report.SuccessfulImports)
	assert.Equal(t, 1, report.FailedImports)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Len(t, store.inserted, 2)
}

func TestRunLateUniqueViolation(t *testing.T) {
	store := newFakeStore()
	store.insertErr = gorm.ErrDuplicatedKey

	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n")

	assert.Equal(t, 0, report.SuccessfulImports)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "lead with this email or phone already exists in database", report.Errors[0].Message)
}

func TestRunStoreReadFailureIsRowScoped(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("connection reset")

	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,bob@example.com,+15550002\n")

	assert.Equal(t, 2, report.FailedImports)
	require.Len(t, report.Errors, 2)
	for _, e := range report.Errors {
		assert.Equal(t, "failed to check for existing lead", e.Message)
	}
}

func TestRunErrorsSortedByRow(t *testing.T) {
	store := newFakeStore()
	store.seed("carol@example.com", "+15559999")

	report := runImport(t, store,
		"Name,Email,Phone\n"+
			"Alice,,+15550001\n"+
			"Bob,bob@example.com,+15550002\n"+
			"Carol,carol@example.com,+15550003\n")

	require.Len(t, report.Errors, 2)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Equal(t, 4, report.Errors[1].Row)
}

func TestRunReportAccounting(t *testing.T) {
	store := newFakeStore()
	report := runImport(t, store,
		"Name,Email,Phone,Source\n"+
			"Alice,broken,,Bogus\n"+
			"Bob,bob@example.com,+15550002,Referral\n")

	// Row 2 produced three errors but fails exactly once.
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.FailedImports)
	assert.Equal(t, 1, report.SuccessfulImports)
	assert.Equal(t, report.TotalRows, report.SuccessfulImports+report.FailedImports)
	assert.Len(t, report.Errors, 3)
}

func TestRunBuildsLeadWithImportDefaults(t *testing.T) {
	store := newFakeStore()
	importedBy := uuid.New()

	wb, err := OpenWorkbook([]byte(
		"Name,Email,Phone\n"+
			"Alice,Alice@Example.COM,+15550001\n"), KindCSV)
	require.NoError(t, err)

	pipeline := NewPipeline(store, DefaultLeadFields(), testLogger())
	headers, err := wb.Headers("Sheet1")
	require.NoError(t, err)

	report, err := pipeline.Run(context.Background(), wb, "Sheet1", SuggestMapping(pipeline.Fields(), headers), importedBy)
	require.NoError(t, err)
	require.Len(t, report.Leads, 1)

	lead := report.Leads[0]
	assert.Equal(t, "alice@example.com", lead.Email)
	assert.Equal(t, models.SourceImport, lead.Source)
	assert.Equal(t, models.StatusNew, lead.Status)
	assert.Equal(t, models.PriorityMedium, lead.Priority)
	assert.Equal(t, models.ScoreForStatus(models.StatusNew), lead.LeadScore)
	require.NotNil(t, lead.AssignedBy)
	assert.Equal(t, importedBy, *lead.AssignedBy)
	assert.Nil(t, lead.AssignedTo)
}

func TestPreviewDoesNotTouchStore(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("must not be called")

	wb, err := OpenWorkbook([]byte(
		"Name,Email,Phone\n"+
			"Alice,alice@example.com,+15550001\n"+
			"Bob,broken,+15550002\n"+
			"Carol,carol@example.com,+15550003\n"), KindCSV)
	require.NoError(t, err)

	pipeline := NewPipeline(store, DefaultLeadFields(), testLogger())
	headers, err := wb.Headers("Sheet1")
	require.NoError(t, err)

	rows, errs, err := pipeline.Preview(wb, "Sheet1", SuggestMapping(pipeline.Fields(), headers), 2)
	require.NoError(t, err)

	assert.Len(t, rows, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, 3, errs[0].Row)
	assert.Empty(t, store.inserted)
}
