package seed

import (
	"context"
	"fmt"
	"log/slog"

	"xweeter/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumXweets       int
	RepliesPerXweet int
	LikesPerXweet   int
	MaxDays         int
	Seed            int64
	ShouldClean     bool
}

// DefaultOptions is a small data set that makes every list endpoint paginate.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		NumXweets:       30,
		RepliesPerXweet: 15,
		LikesPerXweet:   8,
		MaxDays:         30,
		Seed:            42,
	}
}

// Summary counts what Run inserted.
type Summary struct {
	Users   int
	Xweets  int
	Replies int
	Likes   int
}

const batchSize = 200

// Run fills the database with fake users, xweets, replies and likes.
func Run(ctx context.Context, db *gorm.DB, opts Options, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.NumUsers <= 0 || opts.NumXweets < 0 {
		return Summary{}, fmt.Errorf("seed needs at least one user")
	}

	var sum Summary
	f := NewFactory(opts.Seed, opts.MaxDays)
	tx := db.WithContext(ctx)

	if opts.ShouldClean {
		if err := Clean(ctx, db); err != nil {
			return sum, err
		}
		logger.InfoContext(ctx, "seed: cleaned existing data")
	}

	err := tx.Transaction(func(tx *gorm.DB) error {
		users := make([]models.User, 0, opts.NumUsers)
		for i := 0; i < opts.NumUsers; i++ {
			users = append(users, f.BuildUser())
		}
		if err := tx.CreateInBatches(&users, batchSize).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		sum.Users = len(users)

		xweets := make([]models.Xweet, 0, opts.NumXweets)
		for i := 0; i < opts.NumXweets; i++ {
			xweets = append(xweets, f.BuildXweet(users[f.faker.Number(0, len(users)-1)]))
		}
		if len(xweets) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(&xweets, batchSize).Error; err != nil {
				return fmt.Errorf("seed xweets: %w", err)
			}
		}
		sum.Xweets = len(xweets)

		var replies []models.Reply
		var likes []models.Like
		for _, x := range xweets {
			for i := 0; i < opts.RepliesPerXweet; i++ {
				replies = append(replies, f.BuildReply(users[f.faker.Number(0, len(users)-1)], x))
			}
			// each user likes a post at most once
			perm := f.faker.Rand.Perm(len(users))
			for i := 0; i < opts.LikesPerXweet && i < len(perm); i++ {
				likes = append(likes, f.BuildLike(users[perm[i]], x))
			}
		}

		if len(replies) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(&replies, batchSize).Error; err != nil {
				return fmt.Errorf("seed replies: %w", err)
			}
		}
		sum.Replies = len(replies)

		if len(likes) > 0 {
			if err := tx.Omit(clause.Associations).CreateInBatches(&likes, batchSize).Error; err != nil {
				return fmt.Errorf("seed likes: %w", err)
			}
		}
		sum.Likes = len(likes)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	logger.InfoContext(ctx, "seed: complete",
		slog.Int("users", sum.Users),
		slog.Int("xweets", sum.Xweets),
		slog.Int("replies", sum.Replies),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

// Clean removes all seeded tables' rows, children first.
func Clean(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Like{}, &models.Reply{}, &models.Xweet{}, &models.User{}} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clean %T: %w", m, err)
		}
	}
	return nil
}
