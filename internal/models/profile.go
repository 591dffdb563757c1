package models

import "time"

// Profile is the public face of a user. FollowersCount and FollowingCount
// are maintained alongside follow edges; the edges remain authoritative.
type Profile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	Username       string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	FullName       string    `gorm:"size:100" json:"full_name"`
	AvatarURL      string    `json:"avatar_url"`
	Bio            string    `gorm:"size:500" json:"bio"`
	Location       string    `gorm:"size:100" json:"location"`
	FollowersCount int64     `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int64     `gorm:"not null;default:0" json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Profile) TableName() string {
	return "profiles"
}

// ProfileSummary is the slice of a profile embedded in follow listings.
type ProfileSummary struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}
