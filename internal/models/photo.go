package models

import "time"

// Photo is uploaded media metadata. Bytes live in the blob store.
type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_photos_user_uploaded,priority:1" json:"user_id"`
	Filename     string    `gorm:"not null" json:"filename"`
	OriginalName string    `gorm:"not null" json:"original_name"`
	MimeType     string    `gorm:"size:64;not null" json:"mime_type"`
	Size         int64     `gorm:"not null" json:"size"`
	URL          string    `gorm:"not null" json:"url"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PreviewURL   string    `json:"preview_url"`
	Description  string    `gorm:"type:text" json:"description"`
	UploadedAt   time.Time `gorm:"not null;index:idx_photos_user_uploaded,priority:2" json:"uploaded_at"`

	Hashtags []string `gorm:"-" json:"hashtags"`
}

// TableName specifies the table name for GORM
func (Photo) TableName() string {
	return "photos"
}

// PhotoHashtag indexes a photo under one normalised tag (lowercase, no '#').
type PhotoHashtag struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	PhotoID uint   `gorm:"not null;uniqueIndex:idx_photo_hashtags_pair" json:"photo_id"`
	Tag     string `gorm:"size:100;not null;uniqueIndex:idx_photo_hashtags_pair;index" json:"tag"`
}

// TableName specifies the table name for GORM
func (PhotoHashtag) TableName() string {
	return "photo_hashtags"
}

// PhotoSearchItem is a search hit with its uploader and interaction counts.
type PhotoSearchItem struct {
	Photo
	Username      string `json:"username"`
	LikesCount    int64  `json:"likes_count"`
	CommentsCount int64  `json:"comments_count"`
}

// PhotoSearchPage is one page of search results.
type PhotoSearchPage struct {
	Items      []PhotoSearchItem `json:"items"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

// HashtagCount is a tag and how many photos carry it.
type HashtagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}
