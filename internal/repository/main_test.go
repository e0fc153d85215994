package repository

import (
	"testing"
	"time"

	"xweeter/internal/database"
	"xweeter/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns an in-memory database migrated with every persistent model.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each new :memory: connection would be a separate empty database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func strPtr(s string) *string { return &s }

func seedUser(t *testing.T, db *gorm.DB, username string) models.User {
	u := models.User{Username: username, FullName: username + " full", ProfilePic: strPtr("https://img/" + username)}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedXweet(t *testing.T, db *gorm.DB, author models.User, body string) models.Xweet {
	x := models.Xweet{UserID: author.UserID, Body: body, Media: strPtr("https://img/post.png"), CreatedAt: time.Now()}
	require.NoError(t, db.Create(&x).Error)
	return x
}
