package report

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
)

func setupTest(t *testing.T) (*gorm.DB, *mux.Router) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.User{}, &models.Role{}, &models.UserRole{},
		&models.Post{}, &models.Comment{}, &models.Report{},
	))

	router := mux.NewRouter()
	NewHandler(database).RegisterRoutes(router)
	return database, router
}

func createUser(t *testing.T, database *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, database.Create(&user).Error)
	return user
}

func doRequest(t *testing.T, router *mux.Router, method, path string, user models.User, roles []string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	token, err := utils.IssueToken(user.ID, user.Username, roles)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func asUser(t *testing.T, router *mux.Router, method, path string, user models.User, body interface{}) *httptest.ResponseRecorder {
	return doRequest(t, router, method, path, user, []string{models.RoleUser}, body)
}

func asAdmin(t *testing.T, router *mux.Router, method, path string, user models.User, body interface{}) *httptest.ResponseRecorder {
	return doRequest(t, router, method, path, user, []string{models.RoleAdmin}, body)
}

func TestSubmitReport(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")
	reporter := createUser(t, database, "reporter")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	rec := asUser(t, router, "POST", "/reports", reporter, map[string]interface{}{
		"reported_type": "post",
		"reported_id":   post.ID,
		"reason":        "spam",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report models.Report
	require.NoError(t, database.First(&report).Error)
	assert.Equal(t, models.ReportStatusPending, report.Status)
	assert.Equal(t, reporter.ID, report.ReporterUserID)
	assert.Nil(t, report.ReviewedBy)
}

func TestSubmitReportValidation(t *testing.T) {
	database, router := setupTest(t)
	reporter := createUser(t, database, "reporter")

	rec := asUser(t, router, "POST", "/reports", reporter, map[string]interface{}{
		"reported_type": "widget",
		"reported_id":   0,
		"reason":        "",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error struct {
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error.Details, "reported_type")
	assert.Contains(t, body.Error.Details, "reported_id")
	assert.Contains(t, body.Error.Details, "reason")
}

func TestSubmitReportTargetMustExist(t *testing.T) {
	database, router := setupTest(t)
	reporter := createUser(t, database, "reporter")

	rec := asUser(t, router, "POST", "/reports", reporter, map[string]interface{}{
		"reported_type": "post",
		"reported_id":   12345,
		"reason":        "spam",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDuplicateReportRejectedRegardlessOfStatus(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")
	reporter := createUser(t, database, "reporter")
	other := createUser(t, database, "other")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	payload := map[string]interface{}{
		"reported_type": "post",
		"reported_id":   post.ID,
		"reason":        "spam",
	}

	rec := asUser(t, router, "POST", "/reports", reporter, payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = asUser(t, router, "POST", "/reports", reporter, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Even after the original report was resolved.
	now := time.Now()
	require.NoError(t, database.Model(&models.Report{}).
		Where("reporter_user_id = ?", reporter.ID).
		Updates(map[string]interface{}{"status": models.ReportStatusRejected, "reviewed_at": now}).Error)

	rec = asUser(t, router, "POST", "/reports", reporter, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A different reporter is free to report the same target.
	rec = asUser(t, router, "POST", "/reports", other, payload)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestReportListingAdminOnly(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "user")
	admin := createUser(t, database, "admin")

	rec := asUser(t, router, "GET", "/reports", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = asAdmin(t, router, "GET", "/reports", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReportListingPendingFirst(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")
	admin := createUser(t, database, "admin")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	resolved := models.Report{
		ReporterUserID: author.ID, ReportedType: "post", ReportedID: post.ID,
		Reason: "old", Status: models.ReportStatusRejected,
	}
	require.NoError(t, database.Create(&resolved).Error)
	pending := models.Report{
		ReporterUserID: admin.ID, ReportedType: "post", ReportedID: post.ID,
		Reason: "new", Status: models.ReportStatusPending,
	}
	require.NoError(t, database.Create(&pending).Error)

	rec := asAdmin(t, router, "GET", "/reports", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Reports []models.Report `json:"reports"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Reports, 2)
	assert.Equal(t, models.ReportStatusPending, body.Data.Reports[0].Status)
}

func TestReportStatusFilter(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")
	admin := createUser(t, database, "admin")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)
	require.NoError(t, database.Create(&models.Report{
		ReporterUserID: author.ID, ReportedType: "post", ReportedID: post.ID,
		Reason: "spam", Status: models.ReportStatusPending,
	}).Error)

	rec := asAdmin(t, router, "GET", "/reports?status=approved", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Reports []models.Report `json:"reports"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Data.Reports)

	rec = asAdmin(t, router, "GET", "/reports?status=bogus", admin, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
