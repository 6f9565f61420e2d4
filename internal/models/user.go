package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an authenticated actor. Accounts are provisioned by a separate
// identity service; this backend only references them.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name         string         `gorm:"size:50;not null" json:"name"`
	ProfileImage string         `gorm:"type:text" json:"profile_image"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// UserBrief is the embedded actor identity used in joined responses.
type UserBrief struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profile_image"`
}

func (u *User) Brief() UserBrief {
	return UserBrief{ID: u.ID, Name: u.Name, Email: u.Email, ProfileImage: u.ProfileImage}
}
