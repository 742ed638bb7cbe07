package model

import "time"

type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAI
}

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Role      Role      `gorm:"size:8;not null" json:"type"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}
