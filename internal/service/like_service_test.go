package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"xweeter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// likeRepoStub is a stub for repository.LikeRepository.
type likeRepoStub struct {
	createFn            func(context.Context, *models.Like) (bool, error)
	getByIDFn           func(context.Context, uint) (*models.Like, error)
	getByUserAndXweetFn func(context.Context, uint, uint) (*models.Like, error)
	deleteFn            func(context.Context, uint) error
	listByXweetFn       func(context.Context, uint) ([]models.Like, error)
	listByUserFn        func(context.Context, uint) ([]models.Like, error)
	countByXweetFn      func(context.Context, uint) (int64, error)
}

func (s *likeRepoStub) Create(ctx context.Context, like *models.Like) (bool, error) {
	return s.createFn(ctx, like)
}
func (s *likeRepoStub) GetByID(ctx context.Context, id uint) (*models.Like, error) {
	return s.getByIDFn(ctx, id)
}
func (s *likeRepoStub) GetByUserAndXweet(ctx context.Context, userID, xweetID uint) (*models.Like, error) {
	return s.getByUserAndXweetFn(ctx, userID, xweetID)
}
func (s *likeRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *likeRepoStub) ListByXweet(ctx context.Context, xweetID uint) ([]models.Like, error) {
	return s.listByXweetFn(ctx, xweetID)
}
func (s *likeRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Like, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *likeRepoStub) CountByXweet(ctx context.Context, xweetID uint) (int64, error) {
	return s.countByXweetFn(ctx, xweetID)
}

func notFoundLikeRepo() *likeRepoStub {
	missing := func(context.Context, uint) (*models.Like, error) { return nil, gorm.ErrRecordNotFound }
	return &likeRepoStub{
		createFn:            func(_ context.Context, l *models.Like) (bool, error) { l.LikeID = 1; return true, nil },
		getByIDFn:           missing,
		getByUserAndXweetFn: func(context.Context, uint, uint) (*models.Like, error) { return nil, gorm.ErrRecordNotFound },
		deleteFn:            func(context.Context, uint) error { return gorm.ErrRecordNotFound },
		listByXweetFn:       func(context.Context, uint) ([]models.Like, error) { return []models.Like{}, nil },
		listByUserFn:        func(context.Context, uint) ([]models.Like, error) { return []models.Like{}, nil },
		countByXweetFn:      func(context.Context, uint) (int64, error) { return 0, nil },
	}
}

func TestLikeService_Like(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		repo := notFoundLikeRepo()
		repo.createFn = func(context.Context, *models.Like) (bool, error) {
			t.Fatal("create must not be called")
			return false, nil
		}
		_, _, err := NewLikeService(repo).Like(ctx, LikeInput{UserID: 1})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("new like", func(t *testing.T) {
		t.Parallel()
		like, created, err := NewLikeService(notFoundLikeRepo()).Like(ctx, LikeInput{UserID: 1, XweetID: 2})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, uint(1), like.LikeID)
		assert.False(t, like.CreatedAt.IsZero())
		assert.Nil(t, like.UpdatedAt)
	})

	t.Run("existing like is returned", func(t *testing.T) {
		t.Parallel()
		repo := notFoundLikeRepo()
		existingAt := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		repo.createFn = func(_ context.Context, l *models.Like) (bool, error) {
			l.LikeID = 9
			l.CreatedAt = existingAt
			return false, nil
		}
		like, created, err := NewLikeService(repo).Like(ctx, LikeInput{UserID: 1, XweetID: 2})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, uint(9), like.LikeID)
		assert.Equal(t, existingAt, like.CreatedAt)
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()
		repo := notFoundLikeRepo()
		repo.createFn = func(context.Context, *models.Like) (bool, error) { return false, errors.New("fk violation") }
		_, _, err := NewLikeService(repo).Like(ctx, LikeInput{UserID: 1, XweetID: 2})
		assertAppErrorCode(t, err, models.CodeStore)
	})
}

func TestLikeService_Unlike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("not liked", func(t *testing.T) {
		t.Parallel()
		_, err := NewLikeService(notFoundLikeRepo()).Unlike(ctx, LikeInput{UserID: 1, XweetID: 2})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("removes the pair", func(t *testing.T) {
		t.Parallel()
		repo := notFoundLikeRepo()
		repo.getByUserAndXweetFn = func(_ context.Context, userID, xweetID uint) (*models.Like, error) {
			return &models.Like{LikeID: 4, UserID: userID, XweetID: xweetID}, nil
		}
		var deleted uint
		repo.deleteFn = func(_ context.Context, id uint) error { deleted = id; return nil }

		like, err := NewLikeService(repo).Unlike(ctx, LikeInput{UserID: 1, XweetID: 2})
		require.NoError(t, err)
		assert.Equal(t, uint(4), like.LikeID)
		assert.Equal(t, uint(4), deleted)
	})
}

func TestLikeService_DeleteLike(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := NewLikeService(notFoundLikeRepo()).DeleteLike(ctx, 7, 3)
	assertAppErrorCode(t, err, models.CodeNotFound)

	repo := notFoundLikeRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Like, error) {
		return &models.Like{LikeID: id, UserID: 7}, nil
	}
	deletes := 0
	repo.deleteFn = func(context.Context, uint) error { deletes++; return errors.New("disk full") }
	_, err = NewLikeService(repo).DeleteLike(ctx, 7, 3)
	assertAppErrorCode(t, err, models.CodeStore)

	_, err = NewLikeService(repo).DeleteLike(ctx, 8, 3)
	assertAppErrorCode(t, err, models.CodeForbidden)
	assert.Equal(t, 1, deletes)

	repo.deleteFn = func(context.Context, uint) error { return nil }
	like, err := NewLikeService(repo).DeleteLike(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(3), like.LikeID)
}

func TestLikeService_Reads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := notFoundLikeRepo()
	repo.listByXweetFn = func(_ context.Context, xweetID uint) ([]models.Like, error) {
		return []models.Like{{LikeID: 1, XweetID: xweetID}, {LikeID: 2, XweetID: xweetID}}, nil
	}
	repo.countByXweetFn = func(context.Context, uint) (int64, error) { return 2, nil }
	repo.listByUserFn = func(context.Context, uint) ([]models.Like, error) { return nil, errors.New("timeout") }
	svc := NewLikeService(repo)

	likes, err := svc.ListLikesForPost(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, likes, 2)

	count, err := svc.CountLikesForPost(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	_, err = svc.ListLikesByUser(ctx, 1)
	assertAppErrorCode(t, err, models.CodeStore)

	_, err = svc.GetLike(ctx, 1)
	assertAppErrorCode(t, err, models.CodeNotFound)
}
