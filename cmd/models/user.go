package models

import (
	"time"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"user_id"`
	Username     string     `gorm:"column:username;size:50;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"column:email;size:255;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	DisplayName  string     `gorm:"column:display_name;size:100" json:"display_name"`
	AvatarURL    string     `gorm:"column:avatar_url;size:500" json:"avatar_url,omitempty"`
	Bio          string     `gorm:"column:bio;type:text" json:"bio,omitempty"`
	// No default tag: GORM would drop an explicit false from inserts.
	IsActive bool `gorm:"column:is_active" json:"is_active"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

type Role struct {
	ID       uint   `gorm:"primaryKey" json:"role_id"`
	RoleName string `gorm:"column:role_name;size:50;uniqueIndex;not null" json:"role_name"`
}

// UserRole is the grant relation behind the users<->roles many2many.
type UserRole struct {
	UserID    uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	RoleID    uint      `gorm:"column:role_id;primaryKey" json:"role_id"`
	GrantedAt time.Time `gorm:"column:granted_at;autoCreateTime" json:"granted_at"`
}

func (Role) TableName() string     { return "roles" }
func (UserRole) TableName() string { return "user_roles" }

// RoleNames flattens the loaded role rows into claim strings.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}
