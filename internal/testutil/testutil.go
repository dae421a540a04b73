// Package testutil provides shared helpers for handler and service tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/leadhub/internal/auth"
	"github.com/hugh/leadhub/internal/database"
	"github.com/hugh/leadhub/internal/database/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const TestJWTSecret = "test-secret-key-for-tests-only"

// NewTestDB returns an isolated in-memory database with the full schema
// migrated. TranslateError keeps unique violations consistent with the
// postgres driver used in production.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db))

	return db
}

// NewTestLogger returns a logger that discards output.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestJWTService returns a token service with the shared test secret.
func NewTestJWTService() *auth.JWTService {
	return auth.NewJWTService(TestJWTSecret, time.Hour)
}

// CreateTestUser inserts a user with a known password ("password123").
func CreateTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

// CreateTestLead inserts a lead with sane defaults. Email and phone must
// be unique per database.
func CreateTestLead(t *testing.T, db *gorm.DB, email, phone string) *models.Lead {
	t.Helper()

	lead := &models.Lead{
		Name:      "Test Lead",
		Email:     email,
		Phone:     phone,
		Company:   "Acme Corp",
		Source:    models.SourceManual,
		Status:    models.StatusNew,
		Priority:  models.PriorityMedium,
		LeadScore: models.ScoreForStatus(models.StatusNew),
	}
	require.NoError(t, db.Create(lead).Error)

	return lead
}

// TokenFor issues a valid token for the given user.
func TokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := NewTestJWTService().GenerateToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	return token
}

// AuthenticatedRequest builds a JSON request carrying the user's bearer
// token.
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, user *models.User) *http.Request {
	t.Helper()

	req := UnauthenticatedRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+TokenFor(t, user))

	return req
}

// UnauthenticatedRequest builds a JSON request without credentials.
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	return req.WithContext(context.Background())
}

// ParseJSONResponse decodes the recorded response body into dest.
func ParseJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dest))
}
