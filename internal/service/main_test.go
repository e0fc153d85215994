package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"xweeter/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memReplyRepo is an in-memory repository.ReplyRepository.
type memReplyRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.Reply

	createErr error
	updateErr error
	deleteErr error

	creates int
	updates int
	deletes int
}

func newMemReplyRepo() *memReplyRepo {
	return &memReplyRepo{rows: make(map[uint]models.Reply)}
}

func (r *memReplyRepo) Create(_ context.Context, reply *models.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	reply.ReplyID = r.nextID
	r.rows[reply.ReplyID] = *reply
	return nil
}

func (r *memReplyRepo) GetByID(_ context.Context, id uint) (*models.Reply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *memReplyRepo) Update(_ context.Context, reply *models.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.rows[reply.ReplyID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.rows[reply.ReplyID] = *reply
	return nil
}

func (r *memReplyRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memReplyRepo) enriched(filter func(models.Reply) bool, desc bool) []models.EnrichedReply {
	out := []models.EnrichedReply{}
	for _, row := range r.rows {
		if filter(row) {
			out = append(out, enrich(row))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if desc {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ReplyID < b.ReplyID
	})
	return out
}

func (r *memReplyRepo) ListEnrichedByXweet(_ context.Context, xweetID uint) ([]models.EnrichedReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enriched(func(row models.Reply) bool { return row.XweetID == xweetID }, false), nil
}

func (r *memReplyRepo) ListEnrichedByUser(_ context.Context, userID uint) ([]models.EnrichedReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enriched(func(row models.Reply) bool { return row.UserID == userID }, true), nil
}

func (r *memReplyRepo) GetEnrichedByID(_ context.Context, id uint) (*models.EnrichedReply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	e := enrich(row)
	return &e, nil
}

func (r *memReplyRepo) LatestEnrichedByXweet(ctx context.Context, xweetID uint) (*models.EnrichedReply, error) {
	list, _ := r.ListEnrichedByXweet(ctx, xweetID)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[len(list)-1], nil
}

func enrich(row models.Reply) models.EnrichedReply {
	return models.EnrichedReply{
		ReplyID:    row.ReplyID,
		UserID:     row.UserID,
		XweetID:    row.XweetID,
		Body:       row.Body,
		Media:      row.Media,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
		Username:   fmt.Sprintf("user%d", row.UserID),
		OgUserID:   99,
		OgUsername: "author",
		OgBody:     fmt.Sprintf("xweet %d", row.XweetID),
	}
}

// uploaderStub is a stub for media.Uploader that counts calls.
type uploaderStub struct {
	mu       sync.Mutex
	calls    []string
	uploadFn func(context.Context, string) (string, error)
}

func (u *uploaderStub) Upload(ctx context.Context, source string) (string, error) {
	u.mu.Lock()
	u.calls = append(u.calls, source)
	u.mu.Unlock()
	if u.uploadFn != nil {
		return u.uploadFn(ctx, source)
	}
	return "https://cdn.test/" + source, nil
}

func (u *uploaderStub) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.calls)
}

type published struct {
	topic   string
	payload any
}

// publisherSpy records every publish.
type publisherSpy struct {
	mu     sync.Mutex
	events []published
}

func (p *publisherSpy) Publish(_ context.Context, topic string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, payload: payload})
}

// fakeClock advances one second per call.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appErr.Code)
}
