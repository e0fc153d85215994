package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"xweeter/internal/config"
	"xweeter/internal/database"
	"xweeter/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Count   *int64          `json:"count"`
}

type testEnv struct {
	server *Server
	app    *fiber.App
	db     *gorm.DB
	user   models.User
	other  models.User
	xweet  models.Xweet
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{
		Env:                      "test",
		Port:                     "0",
		JWTSecret:                testSecret,
		AllowedOrigins:           "*",
		MediaBackend:             config.MediaBackendLocal,
		MediaUploadDir:           t.TempDir(),
		MediaPublicBaseURL:       "http://localhost/media",
		MediaMaxUploadSizeMB:     1,
		MediaFetchTimeoutSeconds: 1,
		RepliesDefaultPageSize:   10,
	}
	s, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	pic := "https://img.test/ada.png"
	env := &testEnv{server: s, app: s.App(), db: db}
	env.user = models.User{Username: "ada", FullName: "Ada Lovelace", ProfilePic: &pic}
	env.other = models.User{Username: "grace", FullName: "Grace Hopper"}
	require.NoError(t, db.Create(&env.user).Error)
	require.NoError(t, db.Create(&env.other).Error)
	env.xweet = models.Xweet{UserID: env.other.UserID, Body: "first xweet", CreatedAt: time.Now()}
	require.NoError(t, db.Create(&env.xweet).Error)
	return env
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	return tokenFor(t, e.user.UserID)
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

// do sends a request and decodes the JSON envelope.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// replyJSON mirrors the public reply payload.
type replyJSON struct {
	ReplyID    uint    `json:"reply_id"`
	UserID     uint    `json:"user_id"`
	XweetID    uint    `json:"xweet_id"`
	Body       string  `json:"body"`
	Media      *string `json:"media"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  *string `json:"updated_at"`
	Username   string  `json:"username"`
	FullName   string  `json:"full_name"`
	ProfilePic *string `json:"profile_pic"`
	OgUserID   uint    `json:"og_user_id"`
	OgUsername string  `json:"og_username"`
	OgBody     string  `json:"og_body"`
}
