// Package seed provides helpers to create demo data for local development and
// tests. It writes straight to the database and never broadcasts.
package seed

import (
	"fmt"
	"time"
	"unicode/utf8"

	"xweeter/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds unsaved domain entities with plausible fake content.
type Factory struct {
	faker   *gofakeit.Faker
	now     time.Time
	maxDays int
	nextSeq int
}

// NewFactory returns a Factory. The same seed always yields the same data.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{
		faker:   gofakeit.New(seed),
		now:     time.Now().UTC(),
		maxDays: maxDays,
	}
}

func (f *Factory) seq() int {
	f.nextSeq++
	return f.nextSeq
}

// createdAt picks a moment within the last maxDays.
func (f *Factory) createdAt() time.Time {
	return f.faker.DateRange(f.now.AddDate(0, 0, -f.maxDays), f.now).UTC()
}

func (f *Factory) BuildUser() models.User {
	pic := fmt.Sprintf("https://picsum.photos/seed/%s/200/200", f.faker.UUID())
	return models.User{
		Username:   fmt.Sprintf("%s_%d", f.faker.Username(), f.seq()),
		FullName:   f.faker.Name(),
		ProfilePic: &pic,
		CreatedAt:  f.createdAt(),
	}
}

func (f *Factory) BuildXweet(author models.User) models.Xweet {
	x := models.Xweet{
		UserID:    author.UserID,
		Body:      clip(f.faker.HipsterSentence(f.faker.Number(4, 14)), models.MaxReplyBodyLength),
		CreatedAt: f.createdAt(),
	}
	if f.faker.Bool() {
		m := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", f.faker.UUID())
		x.Media = &m
	}
	return x
}

// BuildReply creates a reply to x written after x was posted. Roughly one in
// five replies carries media; a few of those have no body.
func (f *Factory) BuildReply(author models.User, x models.Xweet) models.Reply {
	r := models.Reply{
		UserID:    author.UserID,
		XweetID:   x.XweetID,
		Body:      clip(f.faker.Sentence(f.faker.Number(3, 20)), models.MaxReplyBodyLength),
		CreatedAt: f.after(x.CreatedAt),
	}
	if f.faker.Number(1, 5) == 1 {
		m := fmt.Sprintf("https://picsum.photos/seed/%s/600/400", f.faker.UUID())
		r.Media = &m
		if f.faker.Number(1, 3) == 1 {
			r.Body = ""
		}
	}
	return r
}

func (f *Factory) BuildLike(user models.User, x models.Xweet) models.Like {
	return models.Like{UserID: user.UserID, XweetID: x.XweetID, CreatedAt: f.after(x.CreatedAt)}
}

func (f *Factory) after(t time.Time) time.Time {
	if !t.Before(f.now) {
		return t.Add(time.Second)
	}
	return f.faker.DateRange(t, f.now).UTC()
}

// clip shortens s to at most n characters.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
