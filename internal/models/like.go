package models

import (
	"encoding/json"
	"time"
)

// Like records that a user liked an xweet. A (user, xweet) pair is liked at most once.
type Like struct {
	LikeID    uint       `gorm:"column:like_id;primaryKey"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_likes_user_xweet"`
	XweetID   uint       `gorm:"not null;uniqueIndex:idx_likes_user_xweet;index"`
	User      User       `gorm:"foreignKey:UserID;references:UserID"`
	Xweet     Xweet      `gorm:"foreignKey:XweetID;references:XweetID"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string { return "likes" }

// MarshalJSON renders the like with the public field names and timestamp layout.
func (l Like) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		LikeID    uint    `json:"like_id"`
		UserID    uint    `json:"user_id"`
		XweetID   uint    `json:"xweet_id"`
		CreatedAt string  `json:"created_at"`
		UpdatedAt *string `json:"updated_at"`
	}{
		LikeID:    l.LikeID,
		UserID:    l.UserID,
		XweetID:   l.XweetID,
		CreatedAt: FormatTimestamp(l.CreatedAt),
		UpdatedAt: formatOptionalTimestamp(l.UpdatedAt),
	})
}
