package service

import (
	"context"
	"time"

	"xweeter/internal/models"
	"xweeter/internal/observability"
	"xweeter/internal/repository"
)

// LikeService records which users liked which xweets. A like carries no content.
type LikeService struct {
	likeRepo repository.LikeRepository
	now      func() time.Time
}

type LikeInput struct {
	UserID  uint `validate:"required"`
	XweetID uint `validate:"required"`
}

func NewLikeService(likeRepo repository.LikeRepository) *LikeService {
	return &LikeService{likeRepo: likeRepo, now: time.Now}
}

// Like stores the like unless it already exists. created reports whether a new row was written.
func (s *LikeService) Like(ctx context.Context, in LikeInput) (like *models.Like, created bool, err error) {
	defer func() { observability.LikeEvents.WithLabelValues("like", observability.Outcome(err)).Inc() }()

	if err := validate.Struct(in); err != nil {
		return nil, false, validationError(err)
	}

	like = &models.Like{UserID: in.UserID, XweetID: in.XweetID, CreatedAt: s.now().UTC()}
	created, err = s.likeRepo.Create(ctx, like)
	if err != nil {
		return nil, false, models.NewStoreError("failed to create like", err)
	}
	return like, created, nil
}

// Unlike removes the like of xweetID by userID and returns it.
func (s *LikeService) Unlike(ctx context.Context, in LikeInput) (like *models.Like, err error) {
	defer func() { observability.LikeEvents.WithLabelValues("unlike", observability.Outcome(err)).Inc() }()

	like, err = s.likeRepo.GetByUserAndXweet(ctx, in.UserID, in.XweetID)
	if err != nil {
		return nil, storeError("Like", "load", err)
	}
	if err := s.likeRepo.Delete(ctx, like.LikeID); err != nil {
		return nil, storeError("Like", "delete", err)
	}
	return like, nil
}

// DeleteLike removes likeID on behalf of userID, who must own it.
func (s *LikeService) DeleteLike(ctx context.Context, userID, likeID uint) (like *models.Like, err error) {
	defer func() { observability.LikeEvents.WithLabelValues("delete", observability.Outcome(err)).Inc() }()

	like, err = s.likeRepo.GetByID(ctx, likeID)
	if err != nil {
		return nil, storeError("Like", "load", err)
	}
	if like.UserID != userID {
		return nil, models.NewForbiddenError("Like belongs to another user")
	}
	if err := s.likeRepo.Delete(ctx, likeID); err != nil {
		return nil, storeError("Like", "delete", err)
	}
	return like, nil
}

func (s *LikeService) GetLike(ctx context.Context, likeID uint) (*models.Like, error) {
	like, err := s.likeRepo.GetByID(ctx, likeID)
	if err != nil {
		return nil, storeError("Like", "load", err)
	}
	return like, nil
}

func (s *LikeService) ListLikesForPost(ctx context.Context, xweetID uint) ([]models.Like, error) {
	likes, err := s.likeRepo.ListByXweet(ctx, xweetID)
	if err != nil {
		return nil, storeError("likes", "list", err)
	}
	return likes, nil
}

func (s *LikeService) ListLikesByUser(ctx context.Context, userID uint) ([]models.Like, error) {
	likes, err := s.likeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError("likes", "list", err)
	}
	return likes, nil
}

func (s *LikeService) CountLikesForPost(ctx context.Context, xweetID uint) (int64, error) {
	count, err := s.likeRepo.CountByXweet(ctx, xweetID)
	if err != nil {
		return 0, storeError("likes", "count", err)
	}
	return count, nil
}
