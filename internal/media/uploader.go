// Package media turns a reply's media source (remote URL or inline base64 blob)
// into a stored object and returns the URL it is served from.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"xweeter/internal/observability"

	"github.com/google/uuid"
)

// ErrUpload wraps every failure of Uploader.Upload.
var ErrUpload = errors.New("media upload failed")

// Uploader stores a media source and returns a servable URL.
type Uploader interface {
	Upload(ctx context.Context, source string) (string, error)
}

// BlobStore persists an object under key and returns the URL it is served from.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Name() string
}

// Service is the default Uploader: load, normalise, store. Failures are
// returned immediately and never retried.
type Service struct {
	store    BlobStore
	fetcher  *Fetcher
	maxBytes int64
	logger   *slog.Logger
}

// NewService builds an uploader writing to store. maxBytes bounds both fetched
// and inline sources.
func NewService(store BlobStore, fetcher *Fetcher, maxBytes int64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, fetcher: fetcher, maxBytes: maxBytes, logger: logger}
}

func uploadError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpload, stage, err)
}

// Upload implements Uploader.
func (s *Service) Upload(ctx context.Context, source string) (url string, err error) {
	defer func() {
		observability.MediaUploads.WithLabelValues(s.store.Name(), observability.Outcome(err)).Inc()
		if err != nil {
			s.logger.WarnContext(ctx, "media upload failed",
				slog.String("backend", s.store.Name()),
				slog.String("error", err.Error()),
			)
		}
	}()

	data, err := s.load(ctx, strings.TrimSpace(source))
	if err != nil {
		return "", uploadError("load", err)
	}

	obj, err := Normalize(data)
	if err != nil {
		return "", uploadError("normalize", err)
	}

	key := uuid.NewString() + obj.Ext
	url, err = s.store.Put(ctx, key, obj.ContentType, obj.Data)
	if err != nil {
		return "", uploadError("store", err)
	}

	observability.MediaUploadBytes.Observe(float64(len(obj.Data)))
	s.logger.InfoContext(ctx, "media stored",
		slog.String("backend", s.store.Name()),
		slog.String("key", key),
		slog.String("content_type", obj.ContentType),
		slog.Int("bytes", len(obj.Data)),
	)
	return url, nil
}

func (s *Service) load(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, errors.New("empty media source")
	}

	var (
		data []byte
		err  error
	)
	if IsRemote(source) {
		if s.fetcher == nil {
			return nil, errors.New("remote media sources are not enabled")
		}
		data, err = s.fetcher.Fetch(ctx, source)
	} else {
		data, err = DecodeInline(source)
	}
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return nil, errors.New("media source is empty")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", s.maxBytes)
	}
	return data, nil
}
