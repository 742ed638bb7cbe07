package model

import (
	"net/url"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	ProfilePic   string    `gorm:"size:512" json:"profilePic"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultProfilePic returns the generated avatar used until the user uploads one.
func DefaultProfilePic(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(username) + "&background=0084ff&color=fff&size=128"
}
