// Package models contains data structures for the application's domain models.
package models

import "time"

// User is the read-only view of an account that replies and likes point at.
// The user lifecycle lives in another service; only the columns needed for
// reply enrichment are mapped.
type User struct {
	UserID     uint      `gorm:"column:user_id;primaryKey" json:"user_id"`
	Username   string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	FullName   string    `gorm:"size:128" json:"full_name"`
	ProfilePic *string   `json:"profile_pic"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Xweet is the parent post of replies and likes.
type Xweet struct {
	XweetID   uint      `gorm:"column:xweet_id;primaryKey" json:"xweet_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;references:UserID" json:"-"`
	Body      string    `gorm:"size:140;not null" json:"body"`
	Media     *string   `json:"media"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Xweet.
func (Xweet) TableName() string { return "xweets" }
