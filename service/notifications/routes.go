package notifications

import (
	"net/http"
	"strconv"

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
	router.HandleFunc("/notifications", utils.RequireAuth(h.GetNotifications)).Methods("GET")
	router.HandleFunc("/notifications/unread-count", utils.RequireAuth(h.GetUnreadCount)).Methods("GET")
	router.HandleFunc("/notifications/read-all", utils.RequireAuth(h.MarkAllRead)).Methods("PUT")
	router.HandleFunc("/notifications/{id}/read", utils.RequireAuth(h.MarkRead)).Methods("PUT")
	router.HandleFunc("/notifications/{id}", utils.RequireAuth(h.DeleteNotification)).Methods("DELETE")
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Notification{}).Where("user_id = ?", claims.UserID)
	if unread := r.URL.Query().Get("unread"); unread == "true" || unread == "1" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch notifications", err)
		return
	}

	var items []models.Notification
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&items).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch notifications", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"notifications": items,
		"pagination":    utils.NewPagination(page, limit, total),
	}, "Notifications retrieved successfully")
}

func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var count int64
	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", claims.UserID, false).
		Count(&count).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch unread count", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"unread_count": count,
	}, "Unread count retrieved successfully")
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid notification ID")
		return
	}

	result := h.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, claims.UserID).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to mark notification read", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteNotFound(w, "Notification not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Notification marked as read")
}

func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	if err := h.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", claims.UserID, false).
		UpdateColumn("is_read", true).Error; err != nil {
		utils.WriteServerError(w, "Failed to mark notifications read", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "All notifications marked as read")
}

func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid notification ID")
		return
	}

	result := h.db.Where("id = ? AND user_id = ?", id, claims.UserID).
		Delete(&models.Notification{})
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to delete notification", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteNotFound(w, "Notification not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Notification deleted successfully")
}
