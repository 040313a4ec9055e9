package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/cmd/utils"
	"github.com/playsquare/playsquare-server/db"
)

const gamesCacheTTL = 5 * time.Minute

type Handler struct {
	db    *gorm.DB
	cache *db.Cache
}

func NewHandler(database *gorm.DB, cache *db.Cache) *Handler {
	return &Handler{db: database, cache: cache}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/games", h.GetGames).Methods("GET")
	router.HandleFunc("/games", utils.RequireAdmin(h.CreateGame)).Methods("POST")
	router.HandleFunc("/games/{id}", h.GetGame).Methods("GET")
	router.HandleFunc("/games/{id}", utils.RequireAdmin(h.UpdateGame)).Methods("PUT")
	router.HandleFunc("/games/{id}", utils.RequireAdmin(h.DeleteGame)).Methods("DELETE")

	router.HandleFunc("/games/{id}/versions", h.GetVersions).Methods("GET")
	router.HandleFunc("/games/{id}/versions", utils.RequireAdmin(h.CreateVersion)).Methods("POST")
	router.HandleFunc("/versions/{id}", h.GetVersion).Methods("GET")
	router.HandleFunc("/versions/{id}", utils.RequireAdmin(h.UpdateVersion)).Methods("PUT")
	router.HandleFunc("/versions/{id}", utils.RequireAdmin(h.DeleteVersion)).Methods("DELETE")

	router.HandleFunc("/events", h.GetEvents).Methods("GET")
	router.HandleFunc("/events", utils.RequireAdmin(h.CreateEvent)).Methods("POST")
	router.HandleFunc("/events/{id}", utils.RequireAdmin(h.UpdateEvent)).Methods("PUT")
	router.HandleFunc("/events/{id}", utils.RequireAdmin(h.DeleteEvent)).Methods("DELETE")

	router.HandleFunc("/announcements", h.GetAnnouncements).Methods("GET")
	router.HandleFunc("/announcements", utils.RequireAdmin(h.CreateAnnouncement)).Methods("POST")
	router.HandleFunc("/announcements/{id}", utils.RequireAdmin(h.UpdateAnnouncement)).Methods("PUT")
	router.HandleFunc("/announcements/{id}", utils.RequireAdmin(h.DeleteAnnouncement)).Methods("DELETE")
}

func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var games []models.Game
	if h.cache.Get(ctx, "games:all", &games) {
		utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{"games": games}, "Games retrieved successfully")
		return
	}

	if err := h.db.Order("game_name ASC").Find(&games).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch games", err)
		return
	}

	h.cache.Set(ctx, "games:all", games, gamesCacheTTL)
	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{"games": games}, "Games retrieved successfully")
}

func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid game ID")
		return
	}

	var game models.Game
	if err := h.db.First(&game, id).Error; err != nil {
		utils.WriteNotFound(w, "Game not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, game, "Game retrieved successfully")
}

type gamePayload struct {
	GameName    string `json:"game_name"`
	Platform    string `json:"platform"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
}

func (h *Handler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var payload gamePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	payload.GameName = strings.TrimSpace(payload.GameName)
	if payload.GameName == "" {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"game_name": "A game name is required",
		})
		return
	}

	game := models.Game{
		GameName:    payload.GameName,
		Platform:    payload.Platform,
		Genre:       payload.Genre,
		Description: payload.Description,
		CoverURL:    payload.CoverURL,
	}
	if err := h.db.Create(&game).Error; err != nil {
		utils.WriteServerError(w, "Failed to create game", err)
		return
	}

	h.cache.Invalidate(r.Context(), "games:*")
	utils.WriteSuccess(w, http.StatusCreated, game, "Game created successfully")
}

func (h *Handler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid game ID")
		return
	}

	var game models.Game
	if err := h.db.First(&game, id).Error; err != nil {
		utils.WriteNotFound(w, "Game not found")
		return
	}

	var payload gamePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if name := strings.TrimSpace(payload.GameName); name != "" {
		game.GameName = name
	}
	if payload.Platform != "" {
		game.Platform = payload.Platform
	}
	if payload.Genre != "" {
		game.Genre = payload.Genre
	}
	if payload.Description != "" {
		game.Description = payload.Description
	}
	if payload.CoverURL != "" {
		game.CoverURL = payload.CoverURL
	}

	if err := h.db.Save(&game).Error; err != nil {
		utils.WriteServerError(w, "Failed to update game", err)
		return
	}

	h.cache.Invalidate(r.Context(), "games:*")
	utils.WriteSuccess(w, http.StatusOK, game, "Game updated successfully")
}

func (h *Handler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid game ID")
		return
	}

	result := h.db.Delete(&models.Game{}, id)
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to delete game", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteNotFound(w, "Game not found")
		return
	}

	h.cache.Invalidate(r.Context(), "games:*")
	utils.WriteSuccess(w, http.StatusOK, nil, "Game deleted successfully")
}

func (h *Handler) GetVersions(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid game ID")
		return
	}

	var versions []models.GameVersion
	if err := h.db.
		Where("game_id = ?", gameID).
		Preload("Items").
		Order("created_at DESC").
		Find(&versions).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch versions", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
	}, "Versions retrieved successfully")
}

type versionPayload struct {
	VersionNumber string     `json:"version_number"`
	Title         string     `json:"title"`
	ReleaseDate   *time.Time `json:"release_date"`
	Notes         string     `json:"notes"`
	Items         []struct {
		ItemType string `json:"item_type"`
		Content  string `json:"content"`
	} `json:"items"`
}

func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid game ID")
		return
	}

	var game models.Game
	if err := h.db.First(&game, gameID).Error; err != nil {
		utils.WriteNotFound(w, "Game not found")
		return
	}

	var payload versionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if strings.TrimSpace(payload.VersionNumber) == "" {
		utils.WriteValidationError(w, "Validation failed", map[string]string{
			"version_number": "A version number is required",
		})
		return
	}

	version := models.GameVersion{
		GameID:        uint(gameID),
		VersionNumber: strings.TrimSpace(payload.VersionNumber),
		Title:         payload.Title,
		ReleaseDate:   payload.ReleaseDate,
		Notes:         payload.Notes,
	}
	for _, item := range payload.Items {
		if strings.TrimSpace(item.Content) == "" {
			continue
		}
		version.Items = append(version.Items, models.VersionItem{
			ItemType: item.ItemType,
			Content:  item.Content,
		})
	}

	if err := h.db.Create(&version).Error; err != nil {
		utils.WriteServerError(w, "Failed to create version", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, version, "Version created successfully")
}

func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid version ID")
		return
	}

	var version models.GameVersion
	if err := h.db.Preload("Items").First(&version, id).Error; err != nil {
		utils.WriteNotFound(w, "Version not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, version, "Version retrieved successfully")
}

func (h *Handler) UpdateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid version ID")
		return
	}

	var version models.GameVersion
	if err := h.db.First(&version, id).Error; err != nil {
		utils.WriteNotFound(w, "Version not found")
		return
	}

	var payload versionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if number := strings.TrimSpace(payload.VersionNumber); number != "" {
		version.VersionNumber = number
	}
	if payload.Title != "" {
		version.Title = payload.Title
	}
	if payload.ReleaseDate != nil {
		version.ReleaseDate = payload.ReleaseDate
	}
	if payload.Notes != "" {
		version.Notes = payload.Notes
	}

	if err := h.db.Save(&version).Error; err != nil {
		utils.WriteServerError(w, "Failed to update version", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, version, "Version updated successfully")
}

func (h *Handler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid version ID")
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("version_id = ?", id).Delete(&models.VersionItem{}).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to delete version", err)
		return
	}
	result := tx.Delete(&models.GameVersion{}, id)
	if result.Error != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to delete version", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		utils.WriteNotFound(w, "Version not found")
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to delete version", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Version deleted successfully")
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	query := h.db.Model(&models.CalendarEvent{})
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			query = query.Where("starts_at >= ?", t)
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			query = query.Where("starts_at <= ?", t)
		}
	}
	if gameID := r.URL.Query().Get("game_id"); gameID != "" {
		query = query.Where("game_id = ?", gameID)
	}

	var events []models.CalendarEvent
	if err := query.Order("starts_at ASC").Find(&events).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch events", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"events": events,
	}, "Events retrieved successfully")
}

type eventPayload struct {
	GameID      *uint      `json:"game_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EventType   string     `json:"event_type"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	details := map[string]string{}
	if strings.TrimSpace(payload.Title) == "" {
		details["title"] = "A title is required"
	}
	if payload.StartsAt == nil {
		details["starts_at"] = "A start time is required"
	}
	if len(details) > 0 {
		utils.WriteValidationError(w, "Validation failed", details)
		return
	}

	event := models.CalendarEvent{
		GameID:      payload.GameID,
		Title:       strings.TrimSpace(payload.Title),
		Description: payload.Description,
		EventType:   payload.EventType,
		StartsAt:    *payload.StartsAt,
		EndsAt:      payload.EndsAt,
	}
	if err := h.db.Create(&event).Error; err != nil {
		utils.WriteServerError(w, "Failed to create event", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, event, "Event created successfully")
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid event ID")
		return
	}

	var event models.CalendarEvent
	if err := h.db.First(&event, id).Error; err != nil {
		utils.WriteNotFound(w, "Event not found")
		return
	}

	var payload eventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if title := strings.TrimSpace(payload.Title); title != "" {
		event.Title = title
	}
	if payload.Description != "" {
		event.Description = payload.Description
	}
	if payload.EventType != "" {
		event.EventType = payload.EventType
	}
	if payload.StartsAt != nil {
		event.StartsAt = *payload.StartsAt
	}
	if payload.EndsAt != nil {
		event.EndsAt = payload.EndsAt
	}
	if payload.GameID != nil {
		event.GameID = payload.GameID
	}

	if err := h.db.Save(&event).Error; err != nil {
		utils.WriteServerError(w, "Failed to update event", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, event, "Event updated successfully")
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid event ID")
		return
	}

	result := h.db.Delete(&models.CalendarEvent{}, id)
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to delete event", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteNotFound(w, "Event not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Event deleted successfully")
}

func (h *Handler) GetAnnouncements(w http.ResponseWriter, r *http.Request) {
	var announcements []models.Announcement
	if err := h.db.
		Where("is_published = ?", true).
		Order("created_at DESC").
		Find(&announcements).Error; err != nil {
		utils.WriteServerError(w, "Failed to fetch announcements", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"announcements": announcements,
	}, "Announcements retrieved successfully")
}

type announcementPayload struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	IsPublished *bool  `json:"is_published"`
}

func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var payload announcementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	details := map[string]string{}
	if strings.TrimSpace(payload.Title) == "" {
		details["title"] = "A title is required"
	}
	if strings.TrimSpace(payload.Content) == "" {
		details["content"] = "Content is required"
	}
	if len(details) > 0 {
		utils.WriteValidationError(w, "Validation failed", details)
		return
	}

	announcement := models.Announcement{
		UserID:      claims.UserID,
		Title:       strings.TrimSpace(payload.Title),
		Content:     payload.Content,
		IsPublished: payload.IsPublished == nil || *payload.IsPublished,
	}
	if err := h.db.Create(&announcement).Error; err != nil {
		utils.WriteServerError(w, "Failed to create announcement", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, announcement, "Announcement created successfully")
}

func (h *Handler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid announcement ID")
		return
	}

	var announcement models.Announcement
	if err := h.db.First(&announcement, id).Error; err != nil {
		utils.WriteNotFound(w, "Announcement not found")
		return
	}

	var payload announcementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if title := strings.TrimSpace(payload.Title); title != "" {
		announcement.Title = title
	}
	if payload.Content != "" {
		announcement.Content = payload.Content
	}
	if payload.IsPublished != nil {
		announcement.IsPublished = *payload.IsPublished
	}

	if err := h.db.Save(&announcement).Error; err != nil {
		utils.WriteServerError(w, "Failed to update announcement", err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, announcement, "Announcement updated successfully")
}

func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid announcement ID")
		return
	}

	result := h.db.Delete(&models.Announcement{}, id)
	if result.Error != nil {
		utils.WriteServerError(w, "Failed to delete announcement", result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.WriteNotFound(w, "Announcement not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, nil, "Announcement deleted successfully")
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}
