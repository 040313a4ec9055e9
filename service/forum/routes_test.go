package forum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

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
		&models.Post{}, &models.Comment{},
		&models.Notification{}, &models.ActivityLog{},
		&models.Game{},
	))

	router := mux.NewRouter()
	NewHandler(database, nil).RegisterRoutes(router)
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

func authHeader(t *testing.T, user models.User, roles ...string) string {
	t.Helper()
	if roles == nil {
		roles = []string{models.RoleUser}
	}
	token, err := utils.IssueToken(user.ID, user.Username, roles)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, router *mux.Router, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePostRequiresAuth(t *testing.T) {
	_, router := setupTest(t)

	rec := doRequest(t, router, "POST", "/posts", "", map[string]string{
		"title": "Hello", "content": "World",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreatePostAndFetch(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	rec := doRequest(t, router, "POST", "/posts", authHeader(t, user), map[string]string{
		"title":   "First post",
		"content": "Some content",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var post models.Post
	require.NoError(t, database.First(&post).Error)
	assert.Equal(t, "discussion", post.Category)
	assert.Equal(t, user.ID, post.UserID)

	rec = doRequest(t, router, "GET", fmt.Sprintf("/posts/%d", post.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reads bump the view counter outside any transaction.
	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 1, post.ViewCount)
}

func TestCreatePostRejectsInvalidCategory(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	rec := doRequest(t, router, "POST", "/posts", authHeader(t, user), map[string]string{
		"title":    "Bad",
		"content":  "Bad",
		"category": "not-a-category",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePostOwnership(t *testing.T) {
	database, router := setupTest(t)
	owner := createUser(t, database, "owner")
	stranger := createUser(t, database, "stranger")
	admin := createUser(t, database, "admin")

	post := models.Post{UserID: owner.ID, Title: "Mine", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	update := map[string]string{"title": "Edited", "content": "Body"}
	path := fmt.Sprintf("/posts/%d", post.ID)

	rec := doRequest(t, router, "PUT", path, authHeader(t, stranger), update)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, "PUT", path, authHeader(t, owner), update)
	assert.Equal(t, http.StatusOK, rec.Code)

	update["title"] = "Admin edit"
	rec = doRequest(t, router, "PUT", path, authHeader(t, admin, models.RoleAdmin), update)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeletePostHidesFromPublicReads(t *testing.T) {
	database, router := setupTest(t)
	owner := createUser(t, database, "owner")

	post := models.Post{UserID: owner.ID, Title: "Gone soon", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	path := fmt.Sprintf("/posts/%d", post.ID)
	rec := doRequest(t, router, "DELETE", path, authHeader(t, owner), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "GET", path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The row survives for moderation reads.
	var stored models.Post
	require.NoError(t, database.First(&stored, post.ID).Error)
	assert.True(t, stored.IsDeleted)
	assert.NotNil(t, stored.DeletedAt)

	// Listings exclude it too.
	rec = doRequest(t, router, "GET", "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Pagination utils.Pagination `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body.Data.Pagination.TotalItems)
}

func TestAddCommentIncrementsCount(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")
	commenter := createUser(t, database, "commenter")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	rec := doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/comments", post.ID),
		authHeader(t, commenter), map[string]string{"content": "Nice one"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 1, post.CommentCount)

	// Commenting on someone else's post leaves a notification.
	var notification models.Notification
	require.NoError(t, database.Where("user_id = ?", author.ID).First(&notification).Error)
	assert.Equal(t, "comment", notification.Type)
}

func TestAddCommentOnOwnPostSkipsNotification(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	rec := doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/comments", post.ID),
		authHeader(t, author), map[string]string{"content": "Replying to myself"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var count int64
	database.Model(&models.Notification{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestAddCommentValidatesParent(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	postA := models.Post{UserID: user.ID, Title: "A", Content: "Body", Category: "discussion"}
	postB := models.Post{UserID: user.ID, Title: "B", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&postA).Error)
	require.NoError(t, database.Create(&postB).Error)

	parent := models.Comment{PostID: postA.ID, UserID: user.ID, Content: "Parent"}
	require.NoError(t, database.Create(&parent).Error)

	// Parent belongs to a different post.
	rec := doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/comments", postB.ID),
		authHeader(t, user), map[string]interface{}{
			"content":           "Reply",
			"parent_comment_id": parent.ID,
		})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown parent.
	rec = doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/comments", postA.ID),
		authHeader(t, user), map[string]interface{}{
			"content":           "Reply",
			"parent_comment_id": 9999,
		})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Valid reply.
	rec = doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/comments", postA.ID),
		authHeader(t, user), map[string]interface{}{
			"content":           "Reply",
			"parent_comment_id": parent.ID,
		})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestDeleteCommentDecrementsCount(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion", CommentCount: 1}
	require.NoError(t, database.Create(&post).Error)
	comment := models.Comment{PostID: post.ID, UserID: user.ID, Content: "Bye"}
	require.NoError(t, database.Create(&comment).Error)

	rec := doRequest(t, router, "DELETE", fmt.Sprintf("/comments/%d", comment.ID),
		authHeader(t, user), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 0, post.CommentCount)

	// Deleting again answers 404; the count never goes negative.
	rec = doRequest(t, router, "DELETE", fmt.Sprintf("/comments/%d", comment.ID),
		authHeader(t, user), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 0, post.CommentCount)
}

func TestGetPostsFilters(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	require.NoError(t, database.Create(&models.Post{
		UserID: user.ID, Title: "Guide to things", Content: "Body", Category: "guide",
	}).Error)
	require.NoError(t, database.Create(&models.Post{
		UserID: user.ID, Title: "Chatter", Content: "Body", Category: "discussion",
	}).Error)

	rec := doRequest(t, router, "GET", "/posts?category=guide", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Posts      []models.Post    `json:"posts"`
			Pagination utils.Pagination `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Posts, 1)
	assert.Equal(t, "Guide to things", body.Data.Posts[0].Title)
	assert.EqualValues(t, 1, body.Data.Pagination.TotalItems)
}
