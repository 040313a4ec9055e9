package models

import (
	"time"
)

var PostCategories = []string{"discussion", "guide", "news", "question", "humor", "fanart"}

type Post struct {
	ID           uint       `gorm:"primaryKey" json:"post_id"`
	UserID       uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	Title        string     `gorm:"column:title;size:200;not null" json:"title"`
	Content      string     `gorm:"column:content;type:text;not null" json:"content"`
	Category     string     `gorm:"column:category;size:50;default:discussion" json:"category"`
	GameID       *uint      `gorm:"column:game_id;index" json:"game_id,omitempty"`
	Tags         string     `gorm:"column:tags;size:500" json:"tags,omitempty"`
	LikeCount    int        `gorm:"column:like_count;default:0" json:"like_count"`
	CommentCount int        `gorm:"column:comment_count;default:0" json:"comment_count"`
	ViewCount    int        `gorm:"column:view_count;default:0" json:"view_count"`
	IsPinned     bool       `gorm:"column:is_pinned;default:false" json:"is_pinned"`
	IsLocked     bool       `gorm:"column:is_locked;default:false" json:"is_locked"`
	IsDeleted    bool       `gorm:"column:is_deleted;default:false;index" json:"is_deleted"`
	DeletedAt    *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Game *Game `gorm:"foreignKey:GameID" json:"game,omitempty"`
}

type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"comment_id"`
	PostID          uint       `gorm:"column:post_id;not null;index" json:"post_id"`
	UserID          uint       `gorm:"column:user_id;not null;index" json:"user_id"`
	ParentCommentID *uint      `gorm:"column:parent_comment_id" json:"parent_comment_id,omitempty"`
	Content         string     `gorm:"column:content;type:text;not null" json:"content"`
	LikeCount       int        `gorm:"column:like_count;default:0" json:"like_count"`
	IsDeleted       bool       `gorm:"column:is_deleted;default:false;index" json:"is_deleted"`
	DeletedAt       *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post *Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

// PostLike rows are guarded by the composite unique index; the
// check-then-insert in handlers is only a fast path.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"like_id"`
	PostID    uint      `gorm:"column:post_id;not null;uniqueIndex:idx_post_like_pair" json:"post_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_post_like_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"like_id"`
	CommentID uint      `gorm:"column:comment_id;not null;uniqueIndex:idx_comment_like_pair" json:"comment_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_comment_like_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PostBookmark struct {
	ID        uint      `gorm:"primaryKey" json:"bookmark_id"`
	PostID    uint      `gorm:"column:post_id;not null;uniqueIndex:idx_post_bookmark_pair" json:"post_id"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex:idx_post_bookmark_pair" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func ValidCategory(category string) bool {
	for _, c := range PostCategories {
		if c == category {
			return true
		}
	}
	return false
}
