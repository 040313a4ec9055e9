package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
)

func setupTest(t *testing.T) (*gorm.DB, *mux.Router) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(
		&models.User{}, &models.Role{}, &models.UserRole{},
	))

	router := mux.NewRouter()
	NewHandler(database).RegisterRoutes(router)
	return database, router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterCreatesUserWithDefaultRole(t *testing.T) {
	database, router := setupTest(t)

	rec := doJSON(t, router, "POST", "/auth/register", map[string]string{
		"username":     "alice",
		"email":        "alice@example.com",
		"password":     "hunter2222",
		"display_name": "Alice",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.True(t, body["success"].(bool))
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	var user models.User
	require.NoError(t, database.Preload("Roles").Where("username = ?", "alice").First(&user).Error)
	assert.NotEqual(t, "hunter2222", user.PasswordHash)
	require.Len(t, user.Roles, 1)
	assert.Equal(t, models.RoleUser, user.Roles[0].RoleName)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	_, router := setupTest(t)

	payload := map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "hunter2222",
	}
	rec := doJSON(t, router, "POST", "/auth/register", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, "POST", "/auth/register", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeBody(t, rec)
	assert.False(t, body["success"].(bool))
}

func TestRegisterValidation(t *testing.T) {
	_, router := setupTest(t)

	rec := doJSON(t, router, "POST", "/auth/register", map[string]string{
		"username": "ab",
		"email":    "ab@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody(t, rec)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "VALIDATION_ERROR", errObj["code"])
	details := errObj["details"].(map[string]interface{})
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "password")
}

func TestLoginReturnsTokenAndRoles(t *testing.T) {
	database, router := setupTest(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{Username: "bob", PasswordHash: string(hash), IsActive: true}
	require.NoError(t, database.Create(&user).Error)

	rec := doJSON(t, router, "POST", "/auth/login", map[string]string{
		"username": "bob",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	database, router := setupTest(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, database.Create(&models.User{
		Username: "bob", PasswordHash: string(hash), IsActive: true,
	}).Error)

	rec := doJSON(t, router, "POST", "/auth/login", map[string]string{
		"username": "bob",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsDeactivatedUser(t *testing.T) {
	database, router := setupTest(t)

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, database.Create(&models.User{
		Username: "mallory", PasswordHash: string(hash), IsActive: false,
	}).Error)

	rec := doJSON(t, router, "POST", "/auth/login", map[string]string{
		"username": "mallory",
		"password": "hunter22",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	_, router := setupTest(t)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
