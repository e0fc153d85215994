package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"xweeter/internal/media"
	"xweeter/internal/models"
	"xweeter/internal/notifications"
	"xweeter/internal/observability"
	"xweeter/internal/repository"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
)

var errEmptyReply = models.NewValidationError("Reply must have a body or media")

type ReplyService struct {
	replyRepo repository.ReplyRepository
	uploader  media.Uploader
	publisher notifications.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

type CreateReplyInput struct {
	UserID  uint   `validate:"required"`
	XweetID uint   `validate:"required"`
	Body    string `validate:"max=140"`
	Media   string
}

type UpdateReplyInput struct {
	ReplyID uint   `validate:"required"`
	Body    string `validate:"max=140"`
	Media   string
}

// ReplyServiceOption customises a ReplyService.
type ReplyServiceOption func(*ReplyService)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) ReplyServiceOption {
	return func(s *ReplyService) { s.now = now }
}

// WithLogger sets the logger used for publish failures.
func WithLogger(l *slog.Logger) ReplyServiceOption {
	return func(s *ReplyService) { s.logger = l }
}

func NewReplyService(
	replyRepo repository.ReplyRepository,
	uploader media.Uploader,
	publisher notifications.Publisher,
	opts ...ReplyServiceOption,
) *ReplyService {
	s := &ReplyService{
		replyRepo: replyRepo,
		uploader:  uploader,
		publisher: publisher,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListRepliesForPost returns the enriched replies of a post, oldest first, sliced
// to [start, start+size). Out of range bounds yield an empty slice.
func (s *ReplyService) ListRepliesForPost(ctx context.Context, xweetID uint, start, size int) ([]models.EnrichedReply, error) {
	replies, err := s.replyRepo.ListEnrichedByXweet(ctx, xweetID)
	if err != nil {
		return nil, storeError("replies", "list", err)
	}
	if start < 0 {
		start = 0
	}
	if size <= 0 {
		return []models.EnrichedReply{}, nil
	}
	end := len(replies)
	if start < end && size < end-start {
		end = start + size
	}
	return lo.Slice(replies, start, end), nil
}

// ListRepliesByUser returns every reply written by userID, newest first.
func (s *ReplyService) ListRepliesByUser(ctx context.Context, userID uint) ([]models.EnrichedReply, error) {
	replies, err := s.replyRepo.ListEnrichedByUser(ctx, userID)
	if err != nil {
		return nil, storeError("replies", "list", err)
	}
	if replies == nil {
		replies = []models.EnrichedReply{}
	}
	return replies, nil
}

func (s *ReplyService) GetReply(ctx context.Context, replyID uint) (*models.Reply, error) {
	reply, err := s.replyRepo.GetByID(ctx, replyID)
	if err != nil {
		return nil, storeError("Reply", "load", err)
	}
	return reply, nil
}

// LatestReplyForPost returns the most recent enriched reply of a post.
func (s *ReplyService) LatestReplyForPost(ctx context.Context, xweetID uint) (*models.EnrichedReply, error) {
	reply, err := s.replyRepo.LatestEnrichedByXweet(ctx, xweetID)
	if err != nil {
		return nil, storeError("Reply", "load", err)
	}
	return reply, nil
}

func (s *ReplyService) CreateReply(ctx context.Context, in CreateReplyInput) (reply *models.Reply, err error) {
	ctx, span := observability.StartSpan(ctx, "reply_service", "create",
		attribute.Int64("xweet.id", int64(in.XweetID)),
		attribute.Int64("user.id", int64(in.UserID)),
	)
	defer func() {
		span.End(err)
		observability.ReplyEvents.WithLabelValues("create", observability.Outcome(err)).Inc()
	}()

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	var mediaURL *string
	if in.Media != "" {
		url, err := s.upload(ctx, in.Media)
		if err != nil {
			return nil, err
		}
		mediaURL = &url
	}

	reply = &models.Reply{
		UserID:    in.UserID,
		XweetID:   in.XweetID,
		Body:      in.Body,
		Media:     mediaURL,
		CreatedAt: s.now().UTC(),
	}
	if !reply.HasContent() {
		return nil, errEmptyReply
	}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		return nil, models.NewStoreError("failed to create reply", err)
	}

	s.publishCreated(ctx, reply.ReplyID)
	return reply, nil
}

func (s *ReplyService) UpdateReply(ctx context.Context, in UpdateReplyInput) (reply *models.Reply, err error) {
	ctx, span := observability.StartSpan(ctx, "reply_service", "update",
		attribute.Int64("reply.id", int64(in.ReplyID)),
	)
	defer func() {
		span.End(err)
		observability.ReplyEvents.WithLabelValues("update", observability.Outcome(err)).Inc()
	}()

	reply, err = s.replyRepo.GetByID(ctx, in.ReplyID)
	if err != nil {
		return nil, storeError("Reply", "load", err)
	}

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	var mediaURL *string
	switch {
	case in.Media == "":
	case reply.Media != nil && *reply.Media == in.Media:
		mediaURL = reply.Media
	default:
		url, err := s.upload(ctx, in.Media)
		if err != nil {
			return nil, err
		}
		mediaURL = &url
	}

	updated := *reply
	updated.Body = in.Body
	updated.Media = mediaURL
	if !updated.HasContent() {
		return nil, errEmptyReply
	}
	now := s.now().UTC()
	updated.UpdatedAt = &now

	if err := s.replyRepo.Update(ctx, &updated); err != nil {
		return nil, storeError("Reply", "update", err)
	}
	return &updated, nil
}

// DeleteReply removes a reply and returns its last state.
func (s *ReplyService) DeleteReply(ctx context.Context, replyID uint) (reply *models.Reply, err error) {
	ctx, span := observability.StartSpan(ctx, "reply_service", "delete",
		attribute.Int64("reply.id", int64(replyID)),
	)
	defer func() {
		span.End(err)
		observability.ReplyEvents.WithLabelValues("delete", observability.Outcome(err)).Inc()
	}()

	reply, err = s.replyRepo.GetByID(ctx, replyID)
	if err != nil {
		return nil, storeError("Reply", "load", err)
	}
	if err := s.replyRepo.Delete(ctx, replyID); err != nil {
		return nil, storeError("Reply", "delete", err)
	}
	return reply, nil
}

func (s *ReplyService) upload(ctx context.Context, source string) (string, error) {
	if s.uploader == nil {
		return "", models.NewUploadError(errors.New("media uploads are not configured"))
	}
	url, err := s.uploader.Upload(ctx, source)
	if err != nil {
		return "", models.NewUploadError(err)
	}
	if url == "" {
		return "", models.NewUploadError(errors.New("uploader returned no url"))
	}
	return url, nil
}

// publishCreated broadcasts the enriched form of a new reply. Failures only get logged.
func (s *ReplyService) publishCreated(ctx context.Context, replyID uint) {
	if s.publisher == nil {
		return
	}
	enriched, err := s.replyRepo.GetEnrichedByID(ctx, replyID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load reply for broadcast",
			slog.Uint64("reply_id", uint64(replyID)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.publisher.Publish(ctx, notifications.TopicAddToReplies, enriched)
}
