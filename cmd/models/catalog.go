package models

import (
	"time"
)

type Game struct {
	ID          uint      `gorm:"primaryKey" json:"game_id"`
	GameName    string    `gorm:"column:game_name;size:200;not null" json:"game_name"`
	Platform    string    `gorm:"column:platform;size:100" json:"platform,omitempty"`
	Genre       string    `gorm:"column:genre;size:100" json:"genre,omitempty"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	CoverURL    string    `gorm:"column:cover_url;size:500" json:"cover_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type GameVersion struct {
	ID            uint       `gorm:"primaryKey" json:"version_id"`
	GameID        uint       `gorm:"column:game_id;not null;index" json:"game_id"`
	VersionNumber string     `gorm:"column:version_number;size:50;not null" json:"version_number"`
	Title         string     `gorm:"column:title;size:200" json:"title,omitempty"`
	ReleaseDate   *time.Time `gorm:"column:release_date" json:"release_date,omitempty"`
	Notes         string     `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Items []VersionItem `gorm:"foreignKey:VersionID" json:"items,omitempty"`
}

type VersionItem struct {
	ID        uint      `gorm:"primaryKey" json:"item_id"`
	VersionID uint      `gorm:"column:version_id;not null;index" json:"version_id"`
	ItemType  string    `gorm:"column:item_type;size:50" json:"item_type,omitempty"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CalendarEvent struct {
	ID          uint      `gorm:"primaryKey" json:"event_id"`
	GameID      *uint     `gorm:"column:game_id;index" json:"game_id,omitempty"`
	Title       string    `gorm:"column:title;size:200;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	EventType   string    `gorm:"column:event_type;size:50" json:"event_type,omitempty"`
	StartsAt    time.Time `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt      *time.Time `gorm:"column:ends_at" json:"ends_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Announcement struct {
	ID          uint      `gorm:"primaryKey" json:"announcement_id"`
	UserID      uint      `gorm:"column:user_id;not null" json:"user_id"`
	Title       string    `gorm:"column:title;size:200;not null" json:"title"`
	Content     string    `gorm:"column:content;type:text;not null" json:"content"`
	IsPublished bool      `gorm:"column:is_published" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (GameVersion) TableName() string { return "game_versions" }
