package profile

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
)

const (
	maxDisplayNameLen = 100
	maxBioLen         = 500
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/profile", utils.RequireAuth(h.GetProfile)).Methods("GET")
	router.HandleFunc("/profile", utils.RequireAuth(h.UpdateProfile)).Methods("PUT")
	router.HandleFunc("/profile/posts", utils.RequireAuth(h.GetOwnPosts)).Methods("GET")
	router.HandleFunc("/profile/comments", utils.RequireAuth(h.GetOwnComments)).Methods("GET")
	router.HandleFunc("/profile/likes", utils.RequireAuth(h.GetOwnLikes)).Methods("GET")
	router.HandleFunc("/profile/reports", utils.RequireAuth(h.GetOwnReports)).Methods("GET")
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var user models.User
	if err := h.db.Preload("Roles").First(&user, claims.UserID).Error; err != nil {
		utils.WriteNotFound(w, "User not found")
		return
	}

	var postCount, commentCount, likesGiven, likesReceived int64
	h.db.Model(&models.Post{}).Where("user_id = ? AND is_deleted = ?", user.ID, false).Count(&postCount)
	h.db.Model(&models.Comment{}).Where("user_id = ? AND is_deleted = ?", user.ID, false).Count(&commentCount)
	h.db.Model(&models.PostLike{}).Where("user_id = ?", user.ID).Count(&likesGiven)
	h.db.Model(&models.PostLike{}).
		Joins("JOIN posts ON posts.id = post_likes.post_id").
		Where("posts.user_id = ? AND posts.is_deleted = ?", user.ID, false).
		Count(&likesReceived)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user": user,
		"stats": map[string]int64{
			"posts":          postCount,
			"comments":       commentCount,
			"likes_given":    likesGiven,
			"likes_received": likesReceived,
		},
	}, "Profile retrieved successfully")
}

type updateProfilePayload struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var user models.User
	if err := h.db.First(&user, claims.UserID).Error; err != nil {
		utils.WriteNotFound(w, "User not found")
		return
	}

	var payload updateProfilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	details := map[string]string{}
	updates := map[string]interface{}{}
	if payload.DisplayName != nil {
		name := strings.TrimSpace(*payload.DisplayName)
		if len([]rune(name)) > maxDisplayNameLen {
			details["display_name"] = "Display name must be at most 100 characters"
		} else {
			updates["display_name"] = name
		}
	}
	if payload.Bio != nil {
		if len([]rune(*payload.Bio)) > maxBioLen {
			details["bio"] = "Bio must be at most 500 characters"
		} else {
			updates["bio"] = *payload.Bio
		}
	}
	if payload.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*payload.AvatarURL)
	}
	if len(details) > 0 {
		utils.WriteValidationError(w, "Validation failed", details)
		return
	}
	if len(updates) == 0 {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"body": "No updatable fields provided",
		})
		return
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		utils.WriteServerError(w, "Failed to update profile", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, user, "Profile updated successfully")
}

func (h *Handler) GetOwnPosts(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Post{}).
		Where("user_id = ? AND is_deleted = ?", claims.UserID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch posts", err)
		return
	}

	var posts []models.Post
	if err := query.
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

func (h *Handler) GetOwnComments(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Comment{}).
		Where("user_id = ? AND is_deleted = ?", claims.UserID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch comments", err)
		return
	}

	var comments []models.Comment
	if err := query.
		Preload("Post").
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

func (h *Handler) GetOwnLikes(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Post{}).
		Joins("JOIN post_likes ON post_likes.post_id = posts.id").
		Where("post_likes.user_id = ? AND posts.is_deleted = ?", claims.UserID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch liked posts", err)
		return
	}

	var posts []models.Post
	if err := query.
		Preload("User").
		Order("post_likes.created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&posts).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch liked posts", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"posts":      posts,
		"pagination": utils.NewPagination(page, limit, total),
	}, "Liked posts retrieved successfully")
}

func (h *Handler) GetOwnReports(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Report{}).Where("reporter_user_id = ?", claims.UserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch reports", err)
		return
	}

	var reports []models.Report
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&reports).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch reports", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"reports":    reports,
		"pagination": utils.NewPagination(page, limit, total),
	}, "Reports retrieved successfully")
}
