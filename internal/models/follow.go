package models

import "time"

// Follow is a directed edge: FollowerID observes FollowingID. Both are user IDs.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	Follower  *ProfileSummary `gorm:"-" json:"follower,omitempty"`
	Following *ProfileSummary `gorm:"-" json:"following,omitempty"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// FollowPage is one page of followers or followings.
type FollowPage struct {
	Items []Follow `json:"items"`
	Total int64    `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

// FollowStats are computed from the follow table, not from profile counters.
type FollowStats struct {
	FollowersCount int64 `json:"followers_count"`
	FollowingCount int64 `json:"following_count"`
	IsFollowing    bool  `json:"is_following"`
}
