package repository

import (
	"context"

	"xweeter/internal/models"
	"xweeter/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Create inserts the like unless the (user, xweet) pair already exists, in
	// which case like is filled with the stored row and created is false.
	Create(ctx context.Context, like *models.Like) (created bool, err error)
	GetByID(ctx context.Context, id uint) (*models.Like, error)
	GetByUserAndXweet(ctx context.Context, userID, xweetID uint) (*models.Like, error)
	Delete(ctx context.Context, id uint) error
	ListByXweet(ctx context.Context, xweetID uint) ([]models.Like, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Like, error)
	CountByXweet(ctx context.Context, xweetID uint) (int64, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) (bool, error) {
	defer observability.TrackQuery("create", "likes")()

	result := r.db.WithContext(ctx).
		Omit("User", "Xweet").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "xweet_id"}},
			DoNothing: true,
		}).
		Create(like)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "create")
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		r.log.LogCreate(ctx, map[string]interface{}{"like_id": like.LikeID, "xweet_id": like.XweetID})
		return true, nil
	}

	existing, err := r.GetByUserAndXweet(ctx, like.UserID, like.XweetID)
	if err != nil {
		return false, err
	}
	*like = *existing
	return false, nil
}

func (r *likeRepository) GetByID(ctx context.Context, id uint) (*models.Like, error) {
	defer observability.TrackQuery("get", "likes")()

	var like models.Like
	if err := r.db.WithContext(ctx).First(&like, id).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *likeRepository) GetByUserAndXweet(ctx context.Context, userID, xweetID uint) (*models.Like, error) {
	defer observability.TrackQuery("get_by_pair", "likes")()

	var like models.Like
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND xweet_id = ?", userID, xweetID).
		First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "likes")()

	result := r.db.WithContext(ctx).Delete(&models.Like{}, id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.log.LogDelete(ctx, map[string]interface{}{"like_id": id})
	return nil
}

func (r *likeRepository) ListByXweet(ctx context.Context, xweetID uint) ([]models.Like, error) {
	defer observability.TrackQuery("list_by_xweet", "likes")()

	likes := []models.Like{}
	err := r.db.WithContext(ctx).
		Where("xweet_id = ?", xweetID).
		Order("created_at ASC, like_id ASC").
		Find(&likes).Error
	return likes, err
}

func (r *likeRepository) ListByUser(ctx context.Context, userID uint) ([]models.Like, error) {
	defer observability.TrackQuery("list_by_user", "likes")()

	likes := []models.Like{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, like_id DESC").
		Find(&likes).Error
	return likes, err
}

func (r *likeRepository) CountByXweet(ctx context.Context, xweetID uint) (int64, error) {
	defer observability.TrackQuery("count_by_xweet", "likes")()

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("xweet_id = ?", xweetID).Count(&count).Error
	return count, err
}
