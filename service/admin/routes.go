package admin

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/admin/users", utils.RequireAdmin(h.GetUsers)).Methods("GET")
	router.HandleFunc("/admin/users/{id}", utils.RequireAdmin(h.GetUser)).Methods("GET")
	router.HandleFunc("/admin/users/{id}", utils.RequireAdmin(h.UpdateUser)).Methods("PUT")
	router.HandleFunc("/admin/users/{id}", utils.RequireAdmin(h.DeactivateUser)).Methods("DELETE")

	router.HandleFunc("/admin/posts", utils.RequireAdmin(h.GetPosts)).Methods("GET")
	router.HandleFunc("/admin/posts/{id}", utils.RequireAdmin(h.UpdatePost)).Methods("PUT")
	router.HandleFunc("/admin/posts/{id}", utils.RequireAdmin(h.DeletePost)).Methods("DELETE")

	router.HandleFunc("/admin/comments", utils.RequireAdmin(h.GetComments)).Methods("GET")
	router.HandleFunc("/admin/comments/{id}", utils.RequireAdmin(h.DeleteComment)).Methods("DELETE")

	router.HandleFunc("/admin/reports/{id}/resolve", utils.RequireAdmin(h.ResolveReport)).Methods("PUT")
	router.HandleFunc("/admin/reports/{id}", utils.RequireAdmin(h.DeleteReport)).Methods("DELETE")
}

func (h *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.User{})
	if search := r.URL.Query().Get("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("username LIKE ? OR display_name LIKE ?", pattern, pattern)
	}
	if active := r.URL.Query().Get("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true" || active == "1")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch users", err)
		return
	}

	var users []models.User
	if err := query.
		Preload("Roles").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&users).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch users", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"users":      users,
		"pagination": utils.NewPagination(page, limit, total),
	}, "Users retrieved successfully")
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.Preload("Roles").First(&user, id).Error; err != nil {
		utils.WriteNotFound(w, "User not found")
		return
	}

	var grants []models.UserRole
	h.db.Where("user_id = ?", id).Find(&grants)

	var postCount, commentCount int64
	h.db.Model(&models.Post{}).Where("user_id = ? AND is_deleted = ?", id, false).Count(&postCount)
	h.db.Model(&models.Comment{}).Where("user_id = ? AND is_deleted = ?", id, false).Count(&commentCount)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user":        user,
		"role_grants": grants,
		"stats": map[string]int64{
			"posts":    postCount,
			"comments": commentCount,
		},
	}, "User retrieved successfully")
}

type updateUserPayload struct {
	IsActive    *bool   `json:"is_active"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		utils.WriteNotFound(w, "User not found")
		return
	}

	var payload updateUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}
	if payload.DisplayName != nil {
		updates["display_name"] = *payload.DisplayName
	}
	if payload.Bio != nil {
		updates["bio"] = *payload.Bio
	}
	if len(updates) == 0 {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"body": "No updatable fields provided",
		})
		return
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		utils.WriteServerError(w, "Failed to update user", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, user, "User updated successfully")
}

// Deactivation stands in for deletion so the user's content and audit
// trail stay intact.
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid user ID")
		return
	}
	if uint(id) == claims.UserID {
		utils.WriteError(w, http.StatusBadRequest, "SELF_DEACTIVATION", "You cannot deactivate your own account")
		return
	}

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		utils.WriteNotFound(w, "User not found")
		return
	}

	if err := h.db.Model(&user).UpdateColumn("is_active", false).Error; err != nil {
		utils.WriteServerError(w, "Failed to deactivate user", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "User deactivated successfully")
}

func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Post{})
	if deleted := r.URL.Query().Get("is_deleted"); deleted != "" {
		query = query.Where("is_deleted = ?", deleted == "true" || deleted == "1")
	}
	if pinned := r.URL.Query().Get("is_pinned"); pinned != "" {
		query = query.Where("is_pinned = ?", pinned == "true" || pinned == "1")
	}
	if category := r.URL.Query().Get("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch posts", err)
		return
	}

	var posts []models.Post
	if err := query.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch posts", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"posts":      posts,
		"pagination": utils.NewPagination(page, limit, total),
	}, "Posts retrieved successfully")
}

type updatePostPayload struct {
	IsPinned *bool `json:"is_pinned"`
	IsLocked *bool `json:"is_locked"`
}

func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.First(&post, id).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	var payload updatePostPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if payload.IsPinned != nil {
		updates["is_pinned"] = *payload.IsPinned
	}
	if payload.IsLocked != nil {
		updates["is_locked"] = *payload.IsLocked
	}
	if len(updates) == 0 {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"body": "No updatable fields provided",
		})
		return
	}

	if err := h.db.Model(&post).Updates(updates).Error; err != nil {
		utils.WriteServerError(w, "Failed to update post", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, post, "Post updated successfully")
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.First(&post, id).Error; err != nil {
		utils.WriteNotFound(w, "Post not found")
		return
	}

	tx := h.db.Begin()
	if err := models.SoftDeletePost(tx, uint(id)); err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to delete post", err)
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to delete post", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Post deleted successfully")
}

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Comment{})
	if deleted := r.URL.Query().Get("is_deleted"); deleted != "" {
		query = query.Where("is_deleted = ?", deleted == "true" || deleted == "1")
	}
	if postID := r.URL.Query().Get("post_id"); postID != "" {
		query = query.Where("post_id = ?", postID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch comments", err)
		return
	}

	var comments []models.Comment
	if err := query.
		Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&comments).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch comments", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"comments":   comments,
		"pagination": utils.NewPagination(page, limit, total),
	}, "Comments retrieved successfully")
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid comment ID")
		return
	}

	var comment models.Comment
	if err := h.db.First(&comment, id).Error; err != nil {
		utils.WriteNotFound(w, "Comment not found")
		return
	}

	tx := h.db.Begin()
	if err := models.SoftDeleteComment(tx, uint(id)); err != nil {
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

type resolveReportPayload struct {
	Status string `json:"status"`
}

// ResolveReport records the verdict and, when the report is approved,
// soft-deletes the reported content in the same transaction so a verdict
// can never land without its remediation. Setting the status back to
// pending reopens the report without touching content.
func (h *Handler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid report ID")
		return
	}

	var payload resolveReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if !models.ValidReportStatus(payload.Status) {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"status": "Must be 'pending', 'approved' or 'rejected'",
		})
		return
	}

	var report models.Report
	if err := h.db.First(&report, id).Error; err != nil {
		utils.WriteNotFound(w, "Report not found")
		return
	}

	now := time.Now()
	tx := h.db.Begin()

	if err := tx.Model(&report).Updates(map[string]interface{}{
		"status":      payload.Status,
		"reviewed_by": claims.UserID,
		"reviewed_at": now,
	}).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to resolve report", err)
		return
	}

	if payload.Status == models.ReportStatusApproved {
		var cascadeErr error
		switch report.ReportedType {
		case models.ReportedTypePost:
			cascadeErr = models.SoftDeletePost(tx, report.ReportedID)
		case models.ReportedTypeComment:
			cascadeErr = models.SoftDeleteComment(tx, report.ReportedID)
		}
		if cascadeErr != nil && !errors.Is(cascadeErr, gorm.ErrRecordNotFound) {
			tx.Rollback()
			utils.WriteServerError(w, "Failed to resolve report", cascadeErr)
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to resolve report", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, report, "Report resolved successfully")
}

func (h *Handler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid report ID")
		return
	}

	result := h.db.Delete(&models.Report{}, id)
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to delete report", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteNotFound(w, "Report not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Report deleted successfully")
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}
