package engagement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
)

// The toggle relations share one shape: check-then-act as a fast path, a
// composite unique index as the authoritative duplicate guard, and for
// likes a counter update in the same transaction as the relation row.

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/posts/{id}/like", utils.RequireAuth(h.LikePost)).Methods("POST")
	router.HandleFunc("/posts/{id}/like", utils.RequireAuth(h.UnlikePost)).Methods("DELETE")
	router.HandleFunc("/posts/{id}/like", utils.RequireAuth(h.PostLikeStatus)).Methods("GET")

	router.HandleFunc("/comments/{id}/like", utils.RequireAuth(h.LikeComment)).Methods("POST")
	router.HandleFunc("/comments/{id}/like", utils.RequireAuth(h.UnlikeComment)).Methods("DELETE")
	router.HandleFunc("/comments/{id}/like", utils.RequireAuth(h.CommentLikeStatus)).Methods("GET")

	router.HandleFunc("/bookmarks", utils.RequireAuth(h.GetBookmarks)).Methods("GET")
	router.HandleFunc("/bookmarks/{id}", utils.RequireAuth(h.Bookmark)).Methods("POST")
	router.HandleFunc("/bookmarks/{id}", utils.RequireAuth(h.Unbookmark)).Methods("DELETE")
	router.HandleFunc("/bookmarks/{id}", utils.RequireAuth(h.BookmarkStatus)).Methods("GET")
}

func counterDecrement(column string) interface{} {
	return gorm.Expr("CASE WHEN " + column + " > 0 THEN " + column + " - 1 ELSE 0 END")
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	postID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	tx := h.db.Begin()

	var existing models.PostLike
	if err := tx.Where("post_id = ? AND user_id = ?", postID, claims.UserID).First(&existing).Error; err == nil {
		tx.Rollback()
		utils.WriteError(w, http.StatusBadRequest, "ALREADY_LIKED", "You have already liked this post")
		return
	}

	like := models.PostLike{PostID: postID, UserID: claims.UserID}
	if err := tx.Create(&like).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteError(w, http.StatusBadRequest, "ALREADY_LIKED", "You have already liked this post")
			return
		}
		utils.WriteServerError(w, "Failed to like post", err)
		return
	}

	if err := tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to like post", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to like post", err)
		return
	}

	if post.UserID != claims.UserID {
		h.db.Create(models.LikeNotification(post.UserID, claims.Username, post.ID, post.Title))
	}
	h.logActivity(r, claims.UserID, "post_like", "post_likes", like.ID)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"liked":      true,
		"like_count": h.postLikeCount(postID),
	}, "Post liked successfully")
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	postID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	tx := h.db.Begin()

	result := tx.Where("post_id = ? AND user_id = ?", postID, claims.UserID).Delete(&models.PostLike{})
	if result.Error != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to unlike post", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		utils.WriteError(w, http.StatusBadRequest, "NOT_LIKED", "You have not liked this post")
		return
	}

	if err := tx.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("like_count", counterDecrement("like_count")).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to unlike post", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to unlike post", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"liked":      false,
		"like_count": h.postLikeCount(postID),
	}, "Post unliked successfully")
}

func (h *Handler) PostLikeStatus(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	postID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var count int64
	h.db.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, claims.UserID).Count(&count)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"liked":      count > 0,
		"like_count": h.postLikeCount(postID),
	}, "Like status retrieved successfully")
}

func (h *Handler) LikeComment(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	commentID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := h.db.Where("id = ? AND is_deleted = ?", commentID, false).First(&comment).Error; err != nil {
		utils.WriteNotFound(w, "Comment not found")
		return
	}

	tx := h.db.Begin()

	var existing models.CommentLike
	if err := tx.Where("comment_id = ? AND user_id = ?", commentID, claims.UserID).First(&existing).Error; err == nil {
		tx.Rollback()
		utils.WriteError(w, http.StatusBadRequest, "ALREADY_LIKED", "You have already liked this comment")
		return
	}

	like := models.CommentLike{CommentID: commentID, UserID: claims.UserID}
	if err := tx.Create(&like).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteError(w, http.StatusBadRequest, "ALREADY_LIKED", "You have already liked this comment")
			return
		}
		utils.WriteServerError(w, "Failed to like comment", err)
		return
	}

	if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", 1)).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to like comment", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to like comment", err)
		return
	}

	h.logActivity(r, claims.UserID, "comment_like", "comment_likes", like.ID)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"liked":      true,
		"like_count": h.commentLikeCount(commentID),
	}, "Comment liked successfully")
}

func (h *Handler) UnlikeComment(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	commentID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	tx := h.db.Begin()

	result := tx.Where("comment_id = ? AND user_id = ?", commentID, claims.UserID).Delete(&models.CommentLike{})
	if result.Error != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to unlike comment", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		utils.WriteError(w, http.StatusBadRequest, "NOT_LIKED", "You have not liked this comment")
		return
	}

	if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
		UpdateColumn("like_count", counterDecrement("like_count")).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to unlike comment", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to unlike comment", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"liked":      false,
		"like_count": h.commentLikeCount(commentID),
	}, "Comment unliked successfully")
}

func (h *Handler) CommentLikeStatus(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	commentID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	var count int64
	h.db.Model(&models.CommentLike{}).
		Where("comment_id = ? AND user_id = ?", commentID, claims.UserID).Count(&count)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"liked":      count > 0,
		"like_count": h.commentLikeCount(commentID),
	}, "Like status retrieved successfully")
}

// Bookmarks follow the same toggle shape but carry no counter.
func (h *Handler) Bookmark(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	postID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND is_deleted = ?", postID, false).First(&post).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	var existing models.PostBookmark
	if err := h.db.Where("post_id = ? AND user_id = ?", postID, claims.UserID).First(&existing).Error; err == nil {
		utils.WriteError(w, http.StatusBadRequest, "ALREADY_BOOKMARKED", "You have already bookmarked this post")
		return
	}

	bookmark := models.PostBookmark{PostID: postID, UserID: claims.UserID}
	if err := h.db.Create(&bookmark).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteError(w, http.StatusBadRequest, "ALREADY_BOOKMARKED", "You have already bookmarked this post")
			return
		}
		utils.WriteServerError(w, "Failed to bookmark post", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"bookmarked": true,
	}, "Post bookmarked successfully")
}

func (h *Handler) Unbookmark(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	postID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	result := h.db.Where("post_id = ? AND user_id = ?", postID, claims.UserID).Delete(&models.PostBookmark{})
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to remove bookmark", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteError(w, http.StatusBadRequest, "NOT_BOOKMARKED", "You have not bookmarked this post")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"bookmarked": false,
	}, "Bookmark removed successfully")
}

func (h *Handler) BookmarkStatus(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	postID, err := targetID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var count int64
	h.db.Model(&models.PostBookmark{}).
		Where("post_id = ? AND user_id = ?", postID, claims.UserID).Count(&count)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"bookmarked": count > 0,
	}, "Bookmark status retrieved successfully")
}

func (h *Handler) GetBookmarks(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	page, limit := utils.ParsePagination(r)

	base := h.db.Model(&models.Post{}).
		Joins("JOIN post_bookmarks ON post_bookmarks.post_id = posts.id").
		Where("post_bookmarks.user_id = ? AND posts.is_deleted = ?", claims.UserID, false)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch bookmarks", err)
		return
	}

	var posts []models.Post
	if err := base.
		Preload("User").
		Order("post_bookmarks.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch bookmarks", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"bookmarks":  posts,
		"pagination": utils.NewPagination(page, limit, total),
	}, "Bookmarks retrieved successfully")
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

func (h *Handler) postLikeCount(postID uint) int {
	var post models.Post
	if err := h.db.Select("like_count").First(&post, postID).Error; err != nil {
		return 0
	}
	return post.LikeCount
}

func (h *Handler) commentLikeCount(commentID uint) int {
	var comment models.Comment
	if err := h.db.Select("like_count").First(&comment, commentID).Error; err != nil {
		return 0
	}
	return comment.LikeCount
}

func targetID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err
}
