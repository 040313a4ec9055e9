package forum

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
	"github.com/playsquare/playsquare-server/db"
)

const (
	maxTitleLen       = 200
	maxPostContentLen = 50000
	maxCommentLen     = 5000

	listCacheTTL = 30 * time.Second
)

type Handler struct {
	db    *gorm.DB
	cache *db.Cache
}

func NewHandler(database *gorm.DB, cache *db.Cache) *Handler {
	return &Handler{db: database, cache: cache}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/posts", utils.RequireAuth(h.CreatePost)).Methods("POST")
	router.HandleFunc("/posts", h.GetPosts).Methods("GET")
	router.HandleFunc("/posts/{id}", h.GetPost).Methods("GET")
	router.HandleFunc("/posts/{id}", utils.RequireAuth(h.UpdatePost)).Methods("PUT")
	router.HandleFunc("/posts/{id}", utils.RequireAuth(h.DeletePost)).Methods("DELETE")

	router.HandleFunc("/posts/{id}/comments", h.GetComments).Methods("GET")
	router.HandleFunc("/posts/{id}/comments", utils.RequireAuth(h.AddComment)).Methods("POST")
	router.HandleFunc("/comments/{id}", h.GetComment).Methods("GET")
	router.HandleFunc("/comments/{id}", utils.RequireAuth(h.UpdateComment)).Methods("PUT")
	router.HandleFunc("/comments/{id}", utils.RequireAuth(h.DeleteComment)).Methods("DELETE")
}

// PostFilters is the parameterized replacement for ad hoc per-request SQL
// assembly; one query-construction function consumes it.
type PostFilters struct {
	Category    string
	GameID      uint
	Search      string
	PinnedFirst bool
}

func parsePostFilters(r *http.Request) PostFilters {
	f := PostFilters{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	if gameID, err := strconv.ParseUint(r.URL.Query().Get("game_id"), 10, 64); err == nil {
		f.GameID = uint(gameID)
	}
	if _, ok := r.URL.Query()["pinned_first"]; ok {
		f.PinnedFirst = true
	}
	return f
}

func (f PostFilters) empty() bool {
	return f.Category == "" && f.GameID == 0 && f.Search == "" && !f.PinnedFirst
}

// buildPostQuery applies the filters to the public (non-deleted) post set.
func (h *Handler) buildPostQuery(f PostFilters) *gorm.DB {
	query := h.db.Model(&models.Post{}).Where("is_deleted = ?", false)
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.GameID != 0 {
		query = query.Where("game_id = ?", f.GameID)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}
	return query
}

func validatePostInput(title, content, category string) (string, bool) {
	if title == "" || content == "" {
		return "Title and content are required", false
	}
	if len([]rune(title)) > maxTitleLen {
		return fmt.Sprintf("Title is too long (max %d characters)", maxTitleLen), false
	}
	if len([]rune(content)) > maxPostContentLen {
		return fmt.Sprintf("Content is too long (max %d characters)", maxPostContentLen), false
	}
	if category != "" && !models.ValidCategory(category) {
		return "Invalid category", false
	}
	return "", true
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var input struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
		GameID   *uint  `json:"game_id"`
		Tags     string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if msg, ok := validatePostInput(input.Title, input.Content, input.Category); !ok {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	category := input.Category
	if category == "" {
		category = "discussion"
	}

	post := models.Post{
		UserID:   claims.UserID,
		Title:    input.Title,
		Content:  input.Content,
		Category: category,
		GameID:   input.GameID,
		Tags:     input.Tags,
	}

	if err := h.db.Create(&post).Error; err != nil {
		utils.WriteServerError(w, "Failed to create post", err)
		return
	}

	h.logActivity(r, claims.UserID, "post_create", "posts", post.ID)
	h.cache.Invalidate(r.Context(), "posts:*")

	h.db.Preload("User").First(&post, post.ID)
	utils.WriteSuccess(w, http.StatusCreated, post, "Post created successfully")
}

func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r)
	filters := parsePostFilters(r)

	type postPage struct {
		Posts      []models.Post    `json:"posts"`
		Pagination utils.Pagination `json:"pagination"`
	}

	cacheKey := fmt.Sprintf("posts:page:%d:limit:%d", page, limit)
	if filters.empty() {
		var cached postPage
		if h.cache.Get(r.Context(), cacheKey, &cached) {
			utils.WriteSuccess(w, http.StatusOK, cached, "Posts retrieved successfully")
			return
		}
	}

	var total int64
	if err := h.buildPostQuery(filters).Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch posts", err)
		return
	}

	order := "created_at DESC"
	if filters.PinnedFirst {
		order = "is_pinned DESC, created_at DESC"
	}

	var posts []models.Post
	if err := h.buildPostQuery(filters).Preload("User").Preload("Game").
		Order(order).Offset((page - 1) * limit).Limit(limit).Find(&posts).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch posts", err)
		return
	}

	result := postPage{Posts: posts, Pagination: utils.NewPagination(page, limit, total)}
	if filters.empty() {
		h.cache.Set(r.Context(), cacheKey, result, listCacheTTL)
	}

	utils.WriteSuccess(w, http.StatusOK, result, "Posts retrieved successfully")
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.Preload("User").Preload("Game").
		Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	// Best-effort, outside any transaction.
	h.db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))

	utils.WriteSuccess(w, http.StatusOK, post, "Post retrieved successfully")
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	postID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	if !utils.CanModify(post.UserID, claims) {
		utils.WriteForbidden(w, "You do not have permission to edit this post")
		return
	}

	var input struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
		GameID   *uint  `json:"game_id"`
		Tags     string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if msg, ok := validatePostInput(input.Title, input.Content, input.Category); !ok {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
		return
	}

	post.Title = input.Title
	post.Content = input.Content
	if input.Category != "" {
		post.Category = input.Category
	}
	if input.GameID != nil {
		post.GameID = input.GameID
	}
	post.Tags = input.Tags

	if err := h.db.Save(&post).Error; err != nil {
		utils.WriteServerError(w, "Failed to update post", err)
		return
	}

	h.cache.Invalidate(r.Context(), "posts:*")
	h.db.Preload("User").First(&post, post.ID)
	utils.WriteSuccess(w, http.StatusOK, post, "Post updated successfully")
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	postID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	if !utils.CanModify(post.UserID, claims) {
		utils.WriteForbidden(w, "You do not have permission to delete this post")
		return
	}

	if err := models.SoftDeletePost(h.db, postID); err != nil {
		utils.WriteServerError(w, "Failed to delete post", err)
		return
	}

	h.cache.Invalidate(r.Context(), "posts:*")
	utils.WriteSuccess(w, http.StatusOK, nil, "Post deleted successfully")
}

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	postID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var comments []models.Comment
	if err := h.db.Preload("User").
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch comments", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, comments, "Comments retrieved successfully")
}

func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := h.db.Preload("User").
		Where("id = ? AND is_deleted = ?", commentID, false).First(&comment).Error; err != nil {
		utils.WriteNotFound(w, "Comment not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, comment, "Comment retrieved successfully")
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	postID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var input struct {
		Content         string `json:"content"`
		ParentCommentID *uint  `json:"parent_comment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if input.Content == "" {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Content is required")
		return
	}
	if len([]rune(input.Content)) > maxCommentLen {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			fmt.Sprintf("Content is too long (max %d characters)", maxCommentLen))
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	if input.ParentCommentID != nil {
		var parent models.Comment
		if err := h.db.Where("id = ? AND is_deleted = ?", *input.ParentCommentID, false).First(&parent).Error; err != nil {
			utils.WriteNotFound(w, "Parent comment not found")
			return
		}
		if parent.PostID != postID {
			utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Parent comment does not belong to the same post")
			return
		}
	}

	comment := models.Comment{
		PostID:          postID,
		UserID:          claims.UserID,
		ParentCommentID: input.ParentCommentID,
		Content:         input.Content,
	}

	tx := h.db.Begin()

	if err := tx.Create(&comment).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to create comment", err)
		return
	}

	if err := tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("comment_count", gorm.Expr("comment_count + ?", 1)).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to create comment", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to create comment", err)
		return
	}

	if post.UserID != claims.UserID {
		h.db.Create(models.CommentNotification(post.UserID, claims.Username, post.ID, post.Title))
	}
	h.logActivity(r, claims.UserID, "comment", "comments", comment.ID)

	h.db.Preload("User").First(&comment, comment.ID)
	utils.WriteSuccess(w, http.StatusCreated, comment, "Comment created successfully")
}

func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	commentID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := h.db.Where("id = ? AND is_deleted = ?", commentID, false).First(&comment).Error; err != nil {
		utils.WriteNotFound(w, "Comment not found")
		return
	}

	if !utils.CanModify(comment.UserID, claims) {
		utils.WriteForbidden(w, "You do not have permission to edit this comment")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if input.Content == "" {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Content is required")
		return
	}
	if len([]rune(input.Content)) > maxCommentLen {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST",
			fmt.Sprintf("Content is too long (max %d characters)", maxCommentLen))
		return
	}

	comment.Content = input.Content
	if err := h.db.Save(&comment).Error; err != nil {
		utils.WriteServerError(w, "Failed to update comment", err)
		return
	}

	h.db.Preload("User").First(&comment, comment.ID)
	utils.WriteSuccess(w, http.StatusOK, comment, "Comment updated successfully")
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	commentID, err := parseID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := h.db.Where("id = ? AND is_deleted = ?", commentID, false).First(&comment).Error; err != nil {
		utils.WriteNotFound(w, "Comment not found")
		return
	}

	if !utils.CanModify(comment.UserID, claims) {
		utils.WriteForbidden(w, "You do not have permission to delete this comment")
		return
	}

	tx := h.db.Begin()
	if err := models.SoftDeleteComment(tx, commentID); err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to delete comment", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to delete comment", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Comment deleted successfully")
}

func (h *Handler) logActivity(r *http.Request, userID uint, action, table string, recordID uint) {
	entry := models.ActivityLog{
		UserID:     &userID,
		ActionType: action,
		TableName:  table,
		RecordID:   &recordID,
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
	}
	h.db.Create(&entry)
}

func parseID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err
}
