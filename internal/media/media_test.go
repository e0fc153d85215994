package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"xweeter/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

type failingStore struct{}

func (failingStore) Name() string { return "failing" }
func (failingStore) Put(context.Context, string, string, []byte) (string, error) {
	return "", errors.New("disk full")
}

func TestNormalize(t *testing.T) {
	t.Run("large png is downscaled to jpeg", func(t *testing.T) {
		obj, err := Normalize(pngBytes(t, 4096, 1024))
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", obj.ContentType)
		assert.Equal(t, ".jpg", obj.Ext)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(obj.Data))
		require.NoError(t, err)
		assert.Equal(t, 2048, cfg.Width)
		assert.Equal(t, 512, cfg.Height)
	})

	t.Run("small image keeps its size", func(t *testing.T) {
		obj, err := Normalize(pngBytes(t, 30, 20))
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(obj.Data))
		require.NoError(t, err)
		assert.Equal(t, 30, cfg.Width)
		assert.Equal(t, 20, cfg.Height)
	})

	t.Run("gif passes through", func(t *testing.T) {
		data := gifBytes(t)
		obj, err := Normalize(data)
		require.NoError(t, err)
		assert.Equal(t, "image/gif", obj.ContentType)
		assert.Equal(t, data, obj.Data)
	})

	t.Run("text is rejected", func(t *testing.T) {
		_, err := Normalize([]byte("just some words"))
		assert.Error(t, err)
	})
}

func TestDecodeInline(t *testing.T) {
	raw := []byte("payload-bytes")
	std := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeInline("data:image/png;base64," + std)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeInline(std)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodeInline(base64.RawURLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = DecodeInline("data:text/plain,hello")
	assert.Error(t, err)

	_, err = DecodeInline("data:image/png;base64")
	assert.Error(t, err)

	_, err = DecodeInline("not base64 at all!")
	assert.Error(t, err)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://cdn.example.com/a.png"))
	assert.True(t, IsRemote("HTTP://cdn.example.com/a.png"))
	assert.False(t, IsRemote("data:image/png;base64,AAAA"))
	assert.False(t, IsRemote("ftp://example.com/a.png"))
}

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8375/media/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "abc.jpg", "image/jpeg", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8375/media/abc.jpg", url)

	stored, err := os.ReadFile(filepath.Join(dir, "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), stored)

	_, err = store.Put(context.Background(), "../escape.jpg", "image/jpeg", []byte("x"))
	assert.Error(t, err)
}

func TestService_UploadInline(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://media.test")
	require.NoError(t, err)
	svc := NewService(store, nil, 1<<20, nil)

	source := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, 10, 10))
	url, err := svc.Upload(context.Background(), source)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://media.test/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestService_UploadRemote(t *testing.T) {
	payload := pngBytes(t, 16, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store, err := NewLocalStore(t.TempDir(), "http://media.test")
	require.NoError(t, err)
	fetcher := NewFetcher(5*time.Second, 1<<20)
	defer fetcher.Close()
	svc := NewService(store, fetcher, 1<<20, nil)

	url, err := svc.Upload(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://media.test/"))

	_, err = svc.Upload(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrUpload)
}

func TestService_UploadFailures(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "http://media.test")
	require.NoError(t, err)

	t.Run("oversized inline source", func(t *testing.T) {
		svc := NewService(store, nil, 16, nil)
		_, err := svc.Upload(context.Background(), base64.StdEncoding.EncodeToString(pngBytes(t, 10, 10)))
		assert.ErrorIs(t, err, ErrUpload)
	})

	t.Run("remote source without fetcher", func(t *testing.T) {
		svc := NewService(store, nil, 1<<20, nil)
		_, err := svc.Upload(context.Background(), "https://example.com/a.png")
		assert.ErrorIs(t, err, ErrUpload)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := NewService(failingStore{}, nil, 1<<20, nil)
		_, err := svc.Upload(context.Background(), base64.StdEncoding.EncodeToString(pngBytes(t, 10, 10)))
		assert.ErrorIs(t, err, ErrUpload)
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("empty source", func(t *testing.T) {
		svc := NewService(store, nil, 1<<20, nil)
		_, err := svc.Upload(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrUpload)
	})
}

func TestNewStoreFromConfig(t *testing.T) {
	store, err := NewStoreFromConfig(&config.Config{MediaBackend: "local", MediaUploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "local", store.Name())

	_, err = NewStoreFromConfig(&config.Config{MediaBackend: "cloudinary"})
	assert.Error(t, err)

	_, err = NewStoreFromConfig(&config.Config{MediaBackend: "s3"})
	assert.Error(t, err)
}
