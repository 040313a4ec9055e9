package models

import (
	"time"

	"gorm.io/gorm"
)

// SoftDeletePost hides a post from public reads while keeping the row
// queryable for admin and moderation paths. Idempotent.
func SoftDeletePost(tx *gorm.DB, postID uint) error {
	now := time.Now()
	return tx.Model(&Post{}).
		Where("id = ? AND is_deleted = ?", postID, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}

// SoftDeleteComment hides a comment and keeps the parent post's
// comment_count equal to its non-deleted comment rows, floored at zero.
// Replies are left alone. Idempotent.
func SoftDeleteComment(tx *gorm.DB, commentID uint) error {
	var comment Comment
	if err := tx.First(&comment, commentID).Error; err != nil {
		return err
	}
	if comment.IsDeleted {
		return nil
	}

	now := time.Now()
	result := tx.Model(&Comment{}).
		Where("id = ? AND is_deleted = ?", commentID, false).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return nil
	}

	return tx.Model(&Post{}).Where("id = ?", comment.PostID).
		UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count > 0 THEN comment_count - 1 ELSE 0 END")).Error
}
