package model

import "time"

// MoodEntry is one sentiment sample taken from a chat turn.
type MoodEntry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Score       int       `gorm:"not null" json:"score"`
	Comparative float64   `json:"comparative"`
	Hint        string    `gorm:"size:255" json:"hint"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}
