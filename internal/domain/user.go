package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null" json:"-"`
	DailyLimit   int       `gorm:"column:daily_limit;not null" json:"daily_limit"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }

// Profile is the usage snapshot returned by the profile endpoint.
type Profile struct {
	UserID              uuid.UUID `json:"user_id"`
	Email               string    `json:"email"`
	RecommendationCount int       `json:"recommendation_count"`
	DailyLimit          int       `json:"daily_limit"`
	UsedToday           int       `json:"used_today"`
}

// Remaining returns how many generations are left today.
func (p Profile) Remaining() int {
	if p.DailyLimit <= 0 {
		return 0
	}
	if p.UsedToday >= p.DailyLimit {
		return 0
	}
	return p.DailyLimit - p.UsedToday
}
