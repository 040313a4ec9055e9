package api

import (
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/utils"
	"github.com/playsquare/playsquare-server/db"
	"github.com/playsquare/playsquare-server/service/admin"
	"github.com/playsquare/playsquare-server/service/auth"
	"github.com/playsquare/playsquare-server/service/catalog"
	"github.com/playsquare/playsquare-server/service/engagement"
	"github.com/playsquare/playsquare-server/service/forum"
	"github.com/playsquare/playsquare-server/service/notifications"
	"github.com/playsquare/playsquare-server/service/profile"
	"github.com/playsquare/playsquare-server/service/report"
	"github.com/playsquare/playsquare-server/service/upload"
)

type APIServer struct {
	address string
	db      *gorm.DB
	cache   *db.Cache
}

func NewApiServer(address string, database *gorm.DB, cache *db.Cache) *APIServer {
	return &APIServer{
		address: address,
		db:      database,
		cache:   cache,
	}
}

func (s *APIServer) Run() error {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	authHandler := auth.NewHandler(s.db)
	authHandler.RegisterRoutes(subrouter)

	forumHandler := forum.NewHandler(s.db, s.cache)
	forumHandler.RegisterRoutes(subrouter)

	engagementHandler := engagement.NewHandler(s.db)
	engagementHandler.RegisterRoutes(subrouter)

	reportHandler := report.NewHandler(s.db)
	reportHandler.RegisterRoutes(subrouter)

	adminHandler := admin.NewHandler(s.db)
	adminHandler.RegisterRoutes(subrouter)

	profileHandler := profile.NewHandler(s.db)
	profileHandler.RegisterRoutes(subrouter)

	catalogHandler := catalog.NewHandler(s.db, s.cache)
	catalogHandler.RegisterRoutes(subrouter)

	notificationsHandler := notifications.NewHandler(s.db)
	notificationsHandler.RegisterRoutes(subrouter)

	uploadHandler := upload.NewHandler(s.db, utils.NewLocalImageStore())
	uploadHandler.RegisterRoutes(subrouter)

	router.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir("uploads/images"))))

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(router)

	log.Println("Server running at", s.address)
	return http.ListenAndServe(s.address, corsHandler)
}
