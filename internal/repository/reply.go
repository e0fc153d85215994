// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"xweeter/internal/models"
	"xweeter/internal/observability"

	"gorm.io/gorm"
)

// ReplyRepository defines persistence operations for replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	Update(ctx context.Context, reply *models.Reply) error
	Delete(ctx context.Context, id uint) error
	ListEnrichedByXweet(ctx context.Context, xweetID uint) ([]models.EnrichedReply, error)
	ListEnrichedByUser(ctx context.Context, userID uint) ([]models.EnrichedReply, error)
	GetEnrichedByID(ctx context.Context, id uint) (*models.EnrichedReply, error)
	LatestEnrichedByXweet(ctx context.Context, xweetID uint) (*models.EnrichedReply, error)
}

// enrichedReplyColumns selects a reply, its author (replier) and the parent
// xweet with that xweet's author (og).
const enrichedReplyColumns = "replies.reply_id, replies.user_id, replies.xweet_id, replies.body, replies.media, " +
	"replies.created_at, replies.updated_at, " +
	"replier.username AS username, replier.full_name AS full_name, replier.profile_pic AS profile_pic, " +
	"xweets.user_id AS og_user_id, og.username AS og_username, og.full_name AS og_full_name, " +
	"og.profile_pic AS og_profile_pic, xweets.body AS og_body, xweets.media AS og_media"

type replyRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReplyRepository creates a new ReplyRepository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db, log: observability.NewRepoLogger("replies")}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	defer observability.TrackQuery("create", "replies")()

	if err := r.db.WithContext(ctx).Omit("User", "Xweet", "UpdatedAt").Create(reply).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return err
	}
	r.log.LogCreate(ctx, map[string]interface{}{"reply_id": reply.ReplyID, "xweet_id": reply.XweetID})
	return nil
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	defer observability.TrackQuery("get", "replies")()

	var reply models.Reply
	if err := r.db.WithContext(ctx).First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// Update writes body, media and updated_at of an existing reply in one statement.
func (r *replyRepository) Update(ctx context.Context, reply *models.Reply) error {
	defer observability.TrackQuery("update", "replies")()

	result := r.db.WithContext(ctx).
		Model(&models.Reply{}).
		Where("reply_id = ?", reply.ReplyID).
		Updates(map[string]interface{}{
			"body":       reply.Body,
			"media":      reply.Media,
			"updated_at": reply.UpdatedAt,
		})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "update")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"reply_id": reply.ReplyID})
	return nil
}

func (r *replyRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "replies")()

	result := r.db.WithContext(ctx).Delete(&models.Reply{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogDelete(ctx, map[string]interface{}{"reply_id": id})
	return nil
}

func (r *replyRepository) enriched(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("replies").
		Select(enrichedReplyColumns).
		Joins("JOIN xweets ON xweets.xweet_id = replies.xweet_id").
		Joins("JOIN users AS replier ON replier.user_id = replies.user_id").
		Joins("JOIN users AS og ON og.user_id = xweets.user_id")
}

// ListEnrichedByXweet returns every reply of an xweet, oldest first.
func (r *replyRepository) ListEnrichedByXweet(ctx context.Context, xweetID uint) ([]models.EnrichedReply, error) {
	defer observability.TrackQuery("list_by_xweet", "replies")()

	rows := []models.EnrichedReply{}
	err := r.enriched(ctx).
		Where("replies.xweet_id = ?", xweetID).
		Order("replies.created_at ASC, replies.reply_id ASC").
		Scan(&rows).Error
	if err != nil {
		r.log.LogError(ctx, err, "list_by_xweet")
		return nil, err
	}
	r.log.LogRead(ctx, map[string]interface{}{"xweet_id": xweetID, "count": len(rows)})
	return rows, nil
}

// ListEnrichedByUser returns every reply written by a user, newest first.
func (r *replyRepository) ListEnrichedByUser(ctx context.Context, userID uint) ([]models.EnrichedReply, error) {
	defer observability.TrackQuery("list_by_user", "replies")()

	rows := []models.EnrichedReply{}
	err := r.enriched(ctx).
		Where("replies.user_id = ?", userID).
		Order("replies.created_at DESC, replies.reply_id DESC").
		Scan(&rows).Error
	if err != nil {
		r.log.LogError(ctx, err, "list_by_user")
		return nil, err
	}
	r.log.LogRead(ctx, map[string]interface{}{"user_id": userID, "count": len(rows)})
	return rows, nil
}

func (r *replyRepository) GetEnrichedByID(ctx context.Context, id uint) (*models.EnrichedReply, error) {
	defer observability.TrackQuery("get_enriched", "replies")()

	return firstEnriched(r.enriched(ctx).Where("replies.reply_id = ?", id))
}

// LatestEnrichedByXweet returns the most recently created reply of an xweet.
func (r *replyRepository) LatestEnrichedByXweet(ctx context.Context, xweetID uint) (*models.EnrichedReply, error) {
	defer observability.TrackQuery("latest_by_xweet", "replies")()

	return firstEnriched(r.enriched(ctx).
		Where("replies.xweet_id = ?", xweetID).
		Order("replies.created_at DESC, replies.reply_id DESC"))
}

func firstEnriched(q *gorm.DB) (*models.EnrichedReply, error) {
	var rows []models.EnrichedReply
	if err := q.Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}
