package models

import (
	"encoding/json"
	"time"
)

// MaxReplyBodyLength is the column width of replies.body.
const MaxReplyBodyLength = 140

// TimestampLayout is how reply timestamps are rendered in API payloads.
const TimestampLayout = "2006-01-02 15:04:05"

// Reply is a short answer to an xweet. Body may be empty only when Media is set.
type Reply struct {
	ReplyID   uint       `gorm:"column:reply_id;primaryKey"`
	UserID    uint       `gorm:"not null;index"`
	User      User       `gorm:"foreignKey:UserID;references:UserID"`
	XweetID   uint       `gorm:"not null;index"`
	Xweet     Xweet      `gorm:"foreignKey:XweetID;references:XweetID"`
	Body      string     `gorm:"size:140;not null"`
	Media     *string    `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null;index"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

// TableName returns the database table name for Reply.
func (Reply) TableName() string { return "replies" }

// HasContent reports whether the reply satisfies the body-or-media invariant.
func (r *Reply) HasContent() bool {
	return r.Body != "" || (r.Media != nil && *r.Media != "")
}

type replyJSON struct {
	ReplyID   uint    `json:"reply_id"`
	UserID    uint    `json:"user_id"`
	XweetID   uint    `json:"xweet_id"`
	Body      string  `json:"body"`
	Media     *string `json:"media"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

func (r Reply) toJSON() replyJSON {
	return replyJSON{
		ReplyID:   r.ReplyID,
		UserID:    r.UserID,
		XweetID:   r.XweetID,
		Body:      r.Body,
		Media:     r.Media,
		CreatedAt: FormatTimestamp(r.CreatedAt),
		UpdatedAt: formatOptionalTimestamp(r.UpdatedAt),
	}
}

// MarshalJSON renders the reply with the public field names and timestamp layout.
func (r Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.toJSON())
}

// EnrichedReply is a reply joined with its author and the parent xweet and its author.
type EnrichedReply struct {
	ReplyID      uint       `gorm:"column:reply_id"`
	UserID       uint       `gorm:"column:user_id"`
	XweetID      uint       `gorm:"column:xweet_id"`
	Body         string     `gorm:"column:body"`
	Media        *string    `gorm:"column:media"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    *time.Time `gorm:"column:updated_at"`
	Username     string     `gorm:"column:username"`
	FullName     string     `gorm:"column:full_name"`
	ProfilePic   *string    `gorm:"column:profile_pic"`
	OgUserID     uint       `gorm:"column:og_user_id"`
	OgUsername   string     `gorm:"column:og_username"`
	OgFullName   string     `gorm:"column:og_full_name"`
	OgProfilePic *string    `gorm:"column:og_profile_pic"`
	OgBody       string     `gorm:"column:og_body"`
	OgMedia      *string    `gorm:"column:og_media"`
}

// Reply returns the persisted part of the enriched row.
func (e EnrichedReply) Reply() Reply {
	return Reply{
		ReplyID:   e.ReplyID,
		UserID:    e.UserID,
		XweetID:   e.XweetID,
		Body:      e.Body,
		Media:     e.Media,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// MarshalJSON flattens the reply and enrichment fields into one object.
func (e EnrichedReply) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		replyJSON
		Username     string  `json:"username"`
		FullName     string  `json:"full_name"`
		ProfilePic   *string `json:"profile_pic"`
		OgUserID     uint    `json:"og_user_id"`
		OgUsername   string  `json:"og_username"`
		OgFullName   string  `json:"og_full_name"`
		OgProfilePic *string `json:"og_profile_pic"`
		OgBody       string  `json:"og_body"`
		OgMedia      *string `json:"og_media"`
	}{
		replyJSON:    e.Reply().toJSON(),
		Username:     e.Username,
		FullName:     e.FullName,
		ProfilePic:   e.ProfilePic,
		OgUserID:     e.OgUserID,
		OgUsername:   e.OgUsername,
		OgFullName:   e.OgFullName,
		OgProfilePic: e.OgProfilePic,
		OgBody:       e.OgBody,
		OgMedia:      e.OgMedia,
	})
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}
