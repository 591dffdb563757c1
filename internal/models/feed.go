package models

import "time"

// FeedItem is a materialised feed row: photo PhotoID by CreatorID, visible to UserID.
type FeedItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_feed_items_recipient_photo;index:idx_feed_items_recipient_created,priority:1" json:"user_id"`
	PhotoID   uint      `gorm:"not null;uniqueIndex:idx_feed_items_recipient_photo;index" json:"photo_id"`
	CreatorID uint      `gorm:"not null;index" json:"creator_id"`
	CreatedAt time.Time `gorm:"not null;index:idx_feed_items_recipient_created,priority:2" json:"created_at"`

	Photo *Photo `gorm:"-" json:"photo"`
}

// TableName specifies the table name for GORM
func (FeedItem) TableName() string {
	return "feed_items"
}

// FeedPage is a cursor-paginated slice of a user's feed.
type FeedPage struct {
	Items      []FeedItem `json:"items"`
	HasMore    bool       `json:"has_more"`
	NextCursor *string    `json:"next_cursor"`
}

// OutboxStatus tracks a deferred fan-out.
type OutboxStatus int

const (
	OutboxPending    OutboxStatus = 0
	OutboxDone       OutboxStatus = 1
	OutboxFailed     OutboxStatus = 2
	OutboxDispatched OutboxStatus = 3
)

// FeedOutbox records fan-out work left over after the synchronous batch.
// AfterFollowerID is the last follower already written.
type FeedOutbox struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	PhotoID         uint         `gorm:"not null;index" json:"photo_id"`
	CreatorID       uint         `gorm:"not null" json:"creator_id"`
	AfterFollowerID uint         `gorm:"not null;default:0" json:"after_follower_id"`
	Status          OutboxStatus `gorm:"not null;default:0;index:idx_feed_outbox_status" json:"status"`
	Retry           int          `gorm:"not null;default:0" json:"retry"`
	LastError       string       `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (FeedOutbox) TableName() string {
	return "feed_outbox"
}

// FanoutMessage is the queue payload for a deferred fan-out.
type FanoutMessage struct {
	OutboxID  uint `json:"outbox_id"`
	PhotoID   uint `json:"photo_id"`
	CreatorID uint `json:"creator_id"`
}
