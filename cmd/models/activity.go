package models

import (
	"strconv"
	"time"
)

type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"notification_id"`
	UserID    uint      `gorm:"column:user_id;not null;index" json:"user_id"`
	Type      string    `gorm:"column:type;size:50;not null" json:"type"`
	Title     string    `gorm:"column:title;size:200;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text" json:"content,omitempty"`
	LinkURL   string    `gorm:"column:link_url;size:500" json:"link_url,omitempty"`
	IsRead    bool      `gorm:"column:is_read;default:false;index" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeNotification builds the row for "X liked your post".
func LikeNotification(postAuthorID uint, likerName string, postID uint, postTitle string) *Notification {
	return &Notification{
		UserID:  postAuthorID,
		Type:    "like",
		Title:   "New like",
		Content: likerName + " liked '" + postTitle + "'",
		LinkURL: "/community_post.html?id=" + itoa(postID),
	}
}

// CommentNotification builds the row for "X commented on your post".
func CommentNotification(postAuthorID uint, commenterName string, postID uint, postTitle string) *Notification {
	return &Notification{
		UserID:  postAuthorID,
		Type:    "comment",
		Title:   "New comment",
		Content: commenterName + " commented on '" + postTitle + "'",
		LinkURL: "/community_post.html?id=" + itoa(postID),
	}
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

// ActivityLog rows are best-effort; writes never fail a request.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"log_id"`
	UserID     *uint     `gorm:"column:user_id;index" json:"user_id,omitempty"`
	ActionType string    `gorm:"column:action_type;size:50;not null" json:"action_type"`
	TableName  string    `gorm:"column:table_name;size:50" json:"table_name,omitempty"`
	RecordID   *uint     `gorm:"column:record_id" json:"record_id,omitempty"`
	IPAddress  string    `gorm:"column:ip_address;size:45" json:"ip_address,omitempty"`
	UserAgent  string    `gorm:"column:user_agent;size:500" json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type UploadedImage struct {
	ID               uint      `gorm:"primaryKey" json:"image_id"`
	UploadedBy       uint      `gorm:"column:uploaded_by;not null" json:"uploaded_by"`
	OriginalFilename string    `gorm:"column:original_filename;size:255" json:"original_filename"`
	PublicID         string    `gorm:"column:public_id;size:255;uniqueIndex" json:"public_id"`
	URL              string    `gorm:"column:url;size:500;not null" json:"url"`
	FileSize         int64     `gorm:"column:file_size" json:"file_size"`
	MimeType         string    `gorm:"column:mime_type;size:100" json:"mime_type,omitempty"`
	Width            int       `gorm:"column:width" json:"width,omitempty"`
	Height           int       `gorm:"column:height" json:"height,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
