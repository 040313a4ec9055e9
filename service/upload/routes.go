package upload

import (
	"net/http"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
)

const maxUploadMemory = 10 << 20

type Handler struct {
	db    *gorm.DB
	store utils.ImageStore
}

func NewHandler(db *gorm.DB, store utils.ImageStore) *Handler {
	return &Handler{db: db, store: store}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/upload/image", utils.RequireAdmin(h.UploadImage)).Methods("POST")
	router.HandleFunc("/upload/image/{publicId}", utils.RequireAdmin(h.DeleteImage)).Methods("DELETE")
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"image": "An image file is required",
		})
		return
	}
	defer file.Close()

	result, err := h.store.Save(file, header)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "UPLOAD_FAILED", err.Error())
		return
	}

	record := models.UploadedImage{
		UploadedBy:       claims.UserID,
		OriginalFilename: header.Filename,
		PublicID:         result.PublicID,
		URL:              result.URL,
		FileSize:         header.Size,
		MimeType:         header.Header.Get("Content-Type"),
		Width:            result.Width,
		Height:           result.Height,
	}
	if err := h.db.Create(&record).Error; err != nil {
		utils.WriteServerError(w, "Failed to record upload", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, record, "Image uploaded successfully")
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	publicID := mux.Vars(r)["publicId"]

	var record models.UploadedImage
	if err := h.db.Where("public_id = ?", publicID).First(&record).Error; err != nil {
		utils.WriteNotFound(w, "Image not found")
		return
	}

	if err := h.store.Delete(publicID); err != nil {
		utils.WriteServerError(w, "Failed to delete image", err)
		return
	}

	if err := h.db.Delete(&record).Error; err != nil {
		utils.WriteServerError(w, "Failed to delete image", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Image deleted successfully")
}
