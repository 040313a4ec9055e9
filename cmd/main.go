package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gorm.io/gorm"

	"github.com/playsquare/playsquare-server/cmd/api"
	"github.com/playsquare/playsquare-server/cmd/models"
	"github.com/playsquare/playsquare-server/db"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			runMigrations()
			return
		case "clear-db":
			runDatabaseClear()
			return
		default:
			log.Fatalf("Unknown command: %s", os.Args[1])
		}
	}

	startServer()
}

func runMigrations() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database for migrations")

	if err := performMigrations(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}
	log.Println("Migrations completed successfully")
}

func performMigrations(DB *gorm.DB) error {
	migrations := map[interface{}]string{
		&models.User{}:          "User",
		&models.Role{}:          "Role",
		&models.UserRole{}:      "UserRole",
		&models.Post{}:          "Post",
		&models.Comment{}:       "Comment",
		&models.PostLike{}:      "PostLike",
		&models.CommentLike{}:   "CommentLike",
		&models.PostBookmark{}:  "PostBookmark",
		&models.Report{}:        "Report",
		&models.Game{}:          "Game",
		&models.GameVersion{}:   "GameVersion",
		&models.VersionItem{}:   "VersionItem",
		&models.CalendarEvent{}: "CalendarEvent",
		&models.Announcement{}:  "Announcement",
		&models.Notification{}:  "Notification",
		&models.ActivityLog{}:   "ActivityLog",
		&models.UploadedImage{}: "UploadedImage",
	}

	log.Println("Starting database migrations...")
	for model, name := range migrations {
		log.Printf("Migrating %s table...", name)
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", name, err)
		}
		log.Printf("%s migration successful", name)
	}

	if err := seedRoles(DB); err != nil {
		return fmt.Errorf("error seeding roles: %w", err)
	}

	directories := []string{
		"uploads/images",
	}
	for _, dir := range directories {
		if err := createDirectoryIfNotExist(dir); err != nil {
			log.Fatalf("Error creating directory %s: %v", dir, err)
		}
		log.Printf("Directory %s created/verified", dir)
	}

	log.Println("All migrations and directory setup completed successfully")
	return nil
}

func seedRoles(DB *gorm.DB) error {
	for _, name := range []string{models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin} {
		role := models.Role{RoleName: name}
		if err := DB.Where("role_name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}
	return nil
}

func createDirectoryIfNotExist(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", path, err)
		}
	}
	return nil
}

func startServer() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()
	log.Println("Connected to the database")

	cache := db.NewCache()
	if cache == nil {
		log.Println("Redis unavailable, continuing without cache")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	server := api.NewApiServer(":"+port, DB, cache)

	go func() {
		if err := server.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()
	log.Printf("Server running on port %s", port)

	<-quit
	log.Println("Shutting down server...")
}

func clearDatabase(DB *gorm.DB, tables []interface{}) error {
	if len(tables) == 0 {
		tables = []interface{}{
			&models.PostLike{},
			&models.CommentLike{},
			&models.PostBookmark{},
			&models.Comment{},
			&models.Report{},
			&models.Notification{},
			&models.ActivityLog{},
			&models.UploadedImage{},
			&models.Post{},
			&models.VersionItem{},
			&models.GameVersion{},
			&models.CalendarEvent{},
			&models.Announcement{},
			&models.Game{},
			&models.UserRole{},
			&models.Role{},
			&models.User{},
		}
	}

	log.Println("Dropping tables...")
	for _, table := range tables {
		if err := DB.Migrator().DropTable(table); err != nil {
			log.Printf("Warning dropping table %T: %v", table, err)
		} else {
			log.Printf("Table %T dropped", table)
		}
	}

	return nil
}

func runDatabaseClear() {
	DB, err := db.NewPSQLStorage()
	if err != nil {
		log.Fatalf("Database initialization error: %v", err)
	}
	defer func() {
		sqlDB, _ := DB.DB()
		sqlDB.Close()
		log.Println("Database connection closed")
	}()

	log.Println("Preparing to clear database...")

	var confirmation string
	fmt.Print("Are you sure you want to clear the database? (yes/no): ")
	fmt.Scanln(&confirmation)

	if confirmation != "yes" {
		log.Println("Database clearing cancelled.")
		return
	}

	var tableNames string
	fmt.Print("Enter table names to clear (comma separated) or leave blank to clear all: ")
	fmt.Scanln(&tableNames)

	var tables []interface{}
	if tableNames != "" {
		for _, table := range splitTableNames(tableNames) {
			switch strings.TrimSpace(table) {
			case "User":
				tables = append(tables, &models.User{})
			case "Role":
				tables = append(tables, &models.Role{})
			case "UserRole":
				tables = append(tables, &models.UserRole{})
			case "Post":
				tables = append(tables, &models.Post{})
			case "Comment":
				tables = append(tables, &models.Comment{})
			case "PostLike":
				tables = append(tables, &models.PostLike{})
			case "CommentLike":
				tables = append(tables, &models.CommentLike{})
			case "PostBookmark":
				tables = append(tables, &models.PostBookmark{})
			case "Report":
				tables = append(tables, &models.Report{})
			case "Game":
				tables = append(tables, &models.Game{})
			case "GameVersion":
				tables = append(tables, &models.GameVersion{})
			case "VersionItem":
				tables = append(tables, &models.VersionItem{})
			case "CalendarEvent":
				tables = append(tables, &models.CalendarEvent{})
			case "Announcement":
				tables = append(tables, &models.Announcement{})
			case "Notification":
				tables = append(tables, &models.Notification{})
			case "ActivityLog":
				tables = append(tables, &models.ActivityLog{})
			case "UploadedImage":
				tables = append(tables, &models.UploadedImage{})
			default:
				log.Printf("Unknown table: %s", table)
			}
		}
	}

	if err := clearDatabase(DB, tables); err != nil {
		log.Fatalf("Error clearing database: %v", err)
	}

	log.Println("Database cleared successfully")
}

func splitTableNames(tableNames string) []string {
	return strings.Split(tableNames, ",")
}
