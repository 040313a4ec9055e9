package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
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
	router.HandleFunc("/auth/register", h.handleRegister).Methods("POST")
	router.HandleFunc("/auth/login", h.handleLogin).Methods("POST")
	router.HandleFunc("/auth/logout", h.handleLogout).Methods("POST")
	router.HandleFunc("/auth/me", utils.RequireAuth(h.handleMe)).Methods("GET")
}

type userPayload struct {
	UserID      uint     `json:"user_id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	IsAdmin     bool     `json:"is_admin"`
}

func isAdminRole(roles []string) bool {
	for _, r := range roles {
		if r == models.RoleAdmin || r == models.RoleSuperAdmin {
			return true
		}
	}
	return false
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var registerRequest struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON input")
		return
	}

	details := map[string]string{}
	switch n := len(registerRequest.Username); {
	case n == 0:
		details["username"] = "This field is required"
	case n < 3 || n > 50:
		details["username"] = "Username must be between 3 and 50 characters"
	}
	if registerRequest.Email == "" {
		details["email"] = "This field is required"
	}
	switch n := len(registerRequest.Password); {
	case n == 0:
		details["password"] = "This field is required"
	case n < 8:
		details["password"] = "Password must be at least 8 characters"
	}
	if len(details) > 0 {
		utils.WriteValidationError(w, "Validation failed", details)
		return
	}

	var existing models.User
	if result := h.db.Where("username = ?", registerRequest.Username).First(&existing); !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if result.Error != nil {
			utils.WriteServerError(w, "Failed to create user", result.Error)
			return
		}
		utils.WriteValidationError(w, "Username already exists", map[string]string{
			"username": "This username is already taken",
		})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(registerRequest.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteServerError(w, "Failed to create user", err)
		return
	}

	displayName := registerRequest.DisplayName
	if displayName == "" {
		displayName = registerRequest.Username
	}

	user := models.User{
		Username:     registerRequest.Username,
		Email:        registerRequest.Email,
		PasswordHash: string(passwordHash),
		DisplayName:  displayName,
		IsActive:     true,
	}

	tx := h.db.Begin()

	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.WriteValidationError(w, "Username already exists", map[string]string{
				"username": "This username is already taken",
			})
			return
		}
		utils.WriteServerError(w, "Failed to create user", err)
		return
	}

	// Default role grant; the role row is seeded at migration time but
	// created here as well so a fresh database still registers.
	var role models.Role
	if err := tx.Where("role_name = ?", models.RoleUser).FirstOrCreate(&role, models.Role{RoleName: models.RoleUser}).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to create user", err)
		return
	}
	if err := tx.Create(&models.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
		tx.Rollback()
		utils.WriteServerError(w, "Failed to create user", err)
		return
	}

	if err := tx.Commit().Error; err != nil {
		utils.WriteServerError(w, "Failed to create user", err)
		return
	}

	token, err := utils.IssueToken(user.ID, user.Username, []string{models.RoleUser})
	if err != nil {
		utils.WriteServerError(w, "Error generating token", err)
		return
	}

	utils.WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"token": token,
		"user": userPayload{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Roles:       []string{models.RoleUser},
			IsAdmin:     false,
		},
	}, "Registration successful")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&loginRequest); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid JSON input")
		return
	}

	if loginRequest.Username == "" || loginRequest.Password == "" {
		utils.WriteValidationError(w, "Username and password are required", map[string]string{
			"username": requiredIfEmpty(loginRequest.Username),
			"password": requiredIfEmpty(loginRequest.Password),
		})
		return
	}

	var user models.User
	result := h.db.Preload("Roles").Where("username = ? AND is_active = ?", loginRequest.Username, true).First(&user)
	if result.Error != nil {
		utils.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginRequest.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	roles := user.RoleNames()

	token, err := utils.IssueToken(user.ID, user.Username, roles)
	if err != nil {
		utils.WriteServerError(w, "Error generating token", err)
		return
	}

	now := time.Now()
	h.db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("last_login", now)

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": userPayload{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Roles:       roles,
			IsAdmin:     isAdminRole(roles),
		},
	}, "Login successful")
}

// Tokens are stateless, so logout is a client-side discard.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccess(w, http.StatusOK, nil, "Logout successful")
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := utils.ClaimsFromContext(r.Context())

	var user models.User
	if err := h.db.Preload("Roles").Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
		utils.WriteNotFound(w, "User not found")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"user": user,
	}, "User information retrieved successfully")
}

func requiredIfEmpty(v string) string {
	if v == "" {
		return "This field is required"
	}
	return ""
}
