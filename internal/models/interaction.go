package models

import "time"

// PhotoLike records a user's like on a photo.
// The combination of PhotoID and UserID must be unique.
type PhotoLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PhotoID   uint      `gorm:"not null;uniqueIndex:idx_photo_likes_pair" json:"photo_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_photo_likes_pair;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PhotoLike) TableName() string {
	return "photo_likes"
}

// PhotoComment is an append-only comment on a photo.
type PhotoComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PhotoID   uint      `gorm:"not null;index" json:"photo_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PhotoComment) TableName() string {
	return "photo_comments"
}

// InteractionSummary is the per-photo result of a batch interaction lookup.
type InteractionSummary struct {
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
	IsLikedByUser bool  `json:"is_liked_by_user"`
}

// PhotoInteractions is the full interaction view of one photo.
type PhotoInteractions struct {
	InteractionSummary
	Comments []PhotoComment `json:"comments"`
}
