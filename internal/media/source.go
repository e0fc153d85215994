package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// Fetcher downloads remote media with a bounded timeout and body size.
type Fetcher struct {
	client *resty.Client
}

// NewFetcher returns a Fetcher. Retries stay disabled.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetResponseBodyLimit(maxBytes).
		SetHeader("User-Agent", "xweeter-media/1.0")

	return &Fetcher{client: client}
}

// Fetch downloads url and returns the body.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().WithContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch %s: remote returned %s", url, res.Status())
	}
	return res.Bytes(), nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

var inlineEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeInline decodes a data:<mime>;base64,<payload> URI or a bare base64 payload.
func DecodeInline(source string) ([]byte, error) {
	payload := source
	if strings.HasPrefix(source, "data:") {
		meta, data, ok := strings.Cut(strings.TrimPrefix(source, "data:"), ",")
		if !ok {
			return nil, errors.New("malformed data URI")
		}
		if !strings.HasSuffix(meta, ";base64") {
			return nil, errors.New("data URI must be base64 encoded")
		}
		payload = data
	}

	payload = strings.TrimSpace(payload)
	for _, enc := range inlineEncodings {
		if data, err := enc.DecodeString(payload); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("media source is neither a URL nor base64 data")
}
