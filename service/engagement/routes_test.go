package engagement

import (
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
		&models.PostLike{}, &models.CommentLike{}, &models.PostBookmark{},
		&models.Notification{}, &models.ActivityLog{},
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

func doRequest(t *testing.T, router *mux.Router, method, path string, user models.User) *httptest.ResponseRecorder {
	t.Helper()
	token, err := utils.IssueToken(user.ID, user.Username, []string{models.RoleUser})
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestLikePostIdempotentReject(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")
	liker := createUser(t, database, "liker")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	path := fmt.Sprintf("/posts/%d/like", post.ID)

	rec := doRequest(t, router, "POST", path, liker)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 1, post.LikeCount)

	// The second like is rejected and the counter stays put.
	rec = doRequest(t, router, "POST", path, liker)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_LIKED", errorCode(t, rec))

	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 1, post.LikeCount)

	// Liking someone else's post leaves a notification.
	var notification models.Notification
	require.NoError(t, database.Where("user_id = ?", author.ID).First(&notification).Error)
	assert.Equal(t, "like", notification.Type)
}

func TestLikeOwnPostSkipsNotification(t *testing.T) {
	database, router := setupTest(t)
	author := createUser(t, database, "author")

	post := models.Post{UserID: author.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	rec := doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/like", post.ID), author)
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	database.Model(&models.Notification{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestUnlikePostWithoutLike(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	rec := doRequest(t, router, "DELETE", fmt.Sprintf("/posts/%d/like", post.ID), user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_LIKED", errorCode(t, rec))
}

func TestLikeCounterFloorsAtZero(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	// A drifted counter must not go negative on unlike.
	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion", LikeCount: 0}
	require.NoError(t, database.Create(&post).Error)
	require.NoError(t, database.Create(&models.PostLike{PostID: post.ID, UserID: user.ID}).Error)

	rec := doRequest(t, router, "DELETE", fmt.Sprintf("/posts/%d/like", post.ID), user)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 0, post.LikeCount)
}

func TestLikeDeletedPostNotFound(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion", IsDeleted: true}
	require.NoError(t, database.Create(&post).Error)

	rec := doRequest(t, router, "POST", fmt.Sprintf("/posts/%d/like", post.ID), user)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentLikeRoundTrip(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)
	comment := models.Comment{PostID: post.ID, UserID: user.ID, Content: "Hi"}
	require.NoError(t, database.Create(&comment).Error)

	path := fmt.Sprintf("/comments/%d/like", comment.ID)

	var body struct {
		Data struct {
			Liked     bool `json:"liked"`
			LikeCount int  `json:"like_count"`
		} `json:"data"`
	}

	rec := doRequest(t, router, "POST", path, user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, database.First(&comment, comment.ID).Error)
	assert.Equal(t, 1, comment.LikeCount)

	// The comment responses carry like_count just as the post ones do.
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Liked)
	assert.Equal(t, 1, body.Data.LikeCount)

	rec = doRequest(t, router, "GET", path, user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Liked)
	assert.Equal(t, 1, body.Data.LikeCount)

	rec = doRequest(t, router, "POST", path, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, "DELETE", path, user)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, database.First(&comment, comment.ID).Error)
	assert.Equal(t, 0, comment.LikeCount)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.Liked)
	assert.Equal(t, 0, body.Data.LikeCount)
}

func TestBookmarkToggle(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	path := fmt.Sprintf("/bookmarks/%d", post.ID)

	rec := doRequest(t, router, "POST", path, user)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "POST", path, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ALREADY_BOOKMARKED", errorCode(t, rec))

	// Bookmarks never touch the like counter.
	require.NoError(t, database.First(&post, post.ID).Error)
	assert.Equal(t, 0, post.LikeCount)

	rec = doRequest(t, router, "GET", "/bookmarks", user)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Bookmarks []models.Post `json:"bookmarks"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Bookmarks, 1)

	rec = doRequest(t, router, "DELETE", path, user)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, "DELETE", path, user)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_BOOKMARKED", errorCode(t, rec))
}

func TestLikeStatus(t *testing.T) {
	database, router := setupTest(t)
	user := createUser(t, database, "alice")

	post := models.Post{UserID: user.ID, Title: "Post", Content: "Body", Category: "discussion"}
	require.NoError(t, database.Create(&post).Error)

	path := fmt.Sprintf("/posts/%d/like", post.ID)

	rec := doRequest(t, router, "GET", path, user)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Liked bool `json:"liked"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Data.Liked)

	doRequest(t, router, "POST", path, user)

	rec = doRequest(t, router, "GET", path, user)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Liked)
}
