package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
)

const maxReasonLen = 255

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/reports", utils.RequireAuth(h.SubmitReport)).Methods("POST")
	router.HandleFunc("/reports", utils.RequireAdmin(h.GetReports)).Methods("GET")
	router.HandleFunc("/reports/{id}", utils.RequireAdmin(h.GetReport)).Methods("GET")
}

type submitReportPayload struct {
	ReportedType string `json:"reported_type"`
	ReportedID   uint   `json:"reported_id"`
	Reason       string `json:"reason"`
	Description  string `json:"description"`
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var payload submitReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	payload.Reason = strings.TrimSpace(payload.Reason)

	details := map[string]string{}
	if !models.ValidReportedType(payload.ReportedType) {
		details["reported_type"] = "Must be 'post' or 'comment'"
	}
	if payload.ReportedID == 0 {
		details["reported_id"] = "A target ID is required"
	}
	if payload.Reason == "" {
		details["reason"] = "A reason is required"
	} else if len([]rune(payload.Reason)) > maxReasonLen {
		details["reason"] = "Reason must be at most 255 characters"
	}
	if len(details) > 0 {
		utils.WriteValidationError(w, "Validation failed", details)
		return
	}

	if !h.targetExists(payload.ReportedType, payload.ReportedID) {
		utils.WriteNotFound(w, "Reported content not found")
		return
	}

	// One report per reporter per target, regardless of how an earlier
	// report was resolved.
	var existing models.Report
	if err := h.db.Where(
		"reporter_user_id = ? AND reported_type = ? AND reported_id = ?",
		claims.UserID, payload.ReportedType, payload.ReportedID,
	).First(&existing).Error; err == nil {
		utils.WriteError(w, http.StatusBadRequest, "ALREADY_REPORTED", "You have already reported this content")
		return
	}

	report := models.Report{
		ReporterUserID: claims.UserID,
		ReportedType:   payload.ReportedType,
		ReportedID:     payload.ReportedID,
		Reason:         payload.Reason,
		Description:    payload.Description,
		Status:         models.ReportStatusPending,
	}
	if err := h.db.Create(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteError(w, http.StatusBadRequest, "ALREADY_REPORTED", "You have already reported this content")
			return
		}
		utils.WriteServerError(w, "Failed to submit report", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, report, "Report submitted successfully")
}

func (h *Handler) GetReports(w http.ResponseWriter, r *http.Request) {
	page, limit := utils.ParsePagination(r)

	query := h.db.Model(&models.Report{})
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.ValidReportStatus(status) {
			utils.WriteValidationError(w, "Validation failed", map[string]string{
				"status": "Must be 'pending', 'approved' or 'rejected'",
			})
			return
		}
		query = query.Where("status = ?", status)
	}
	if reportedType := r.URL.Query().Get("reported_type"); reportedType != "" {
		if !models.ValidReportedType(reportedType) {
			utils.WriteValidationError(w, "Validation failed", map[string]string{
				"reported_type": "Must be 'post' or 'comment'",
			})
			return
		}
		query = query.Where("reported_type = ?", reportedType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch reports", err)
		return
	}

	var reports []models.Report
	if err := query.
		Preload("Reporter").
		Preload("Reviewer").
		Order("CASE WHEN status = 'pending' THEN 0 ELSE 1 END, created_at DESC").
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

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid report ID")
		return
	}

	var report models.Report
	if err := h.db.Preload("Reporter").Preload("Reviewer").First(&report, uint(id)).Error; err != nil {
		utils.WriteNotFound(w, "Report not found")
		return
	}

	data := map[string]interface{}{"report": report}
	switch report.ReportedType {
	case models.ReportedTypePost:
		var post models.Post
		if err := h.db.Preload("User").First(&post, report.ReportedID).Error; err == nil {
			data["reported_content"] = post
		}
	case models.ReportedTypeComment:
		var comment models.Comment
		if err := h.db.Preload("User").First(&comment, report.ReportedID).Error; err == nil {
			data["reported_content"] = comment
		}
	}

	utils.WriteSuccess(w, http.StatusOK, data, "Report retrieved successfully")
}

func (h *Handler) targetExists(reportedType string, id uint) bool {
	var count int64
	switch reportedType {
	case models.ReportedTypePost:
		h.db.Model(&models.Post{}).Where("id = ? AND is_deleted = ?", id, false).Count(&count)
	case models.ReportedTypeComment:
		h.db.Model(&models.Comment{}).Where("id = ? AND is_deleted = ?", id, false).Count(&count)
	}
	return count > 0
}
