package database

import (
	"context"
	"testing"

	"xweeter/internal/config"
	"xweeter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestSchemaMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantErr bool
	}{
		{"default is sql", config.Config{Env: "development"}, SchemaModeSQL, false},
		{"sql in production", config.Config{Env: "production", DBSchemaMode: "SQL"}, SchemaModeSQL, false},
		{"auto in development", config.Config{Env: "development", DBSchemaMode: "auto"}, SchemaModeAuto, false},
		{"auto in test", config.Config{Env: "test", DBSchemaMode: " auto "}, SchemaModeAuto, false},
		{"auto in production refused", config.Config{Env: "production", DBSchemaMode: "auto"}, "", true},
		{"auto in staging refused", config.Config{Env: "staging", DBSchemaMode: "auto"}, "", true},
		{"hybrid no longer accepted", config.Config{DBSchemaMode: "hybrid"}, "", true},
		{"unknown mode", config.Config{DBSchemaMode: "yolo"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schemaMode(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestGetSchemaStatus_ReportsServiceTables(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	cfg := &config.Config{Env: "test", DBSchemaMode: SchemaModeAuto}

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, SchemaModeAuto, status.Mode)
	require.Len(t, status.Tables, 4)
	for _, ts := range status.Tables {
		assert.False(t, ts.Exists, ts.Name)
	}

	require.NoError(t, ApplySchema(ctx, db, cfg))

	author := models.User{Username: "ada", FullName: "Ada"}
	require.NoError(t, db.Create(&author).Error)
	post := models.Xweet{UserID: author.UserID, Body: "hello"}
	require.NoError(t, db.Create(&post).Error)
	require.NoError(t, db.Create(&models.Reply{UserID: author.UserID, XweetID: post.XweetID, Body: "hi"}).Error)

	status, err = GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	rows := map[string]int64{}
	for _, ts := range status.Tables {
		assert.True(t, ts.Exists, ts.Name)
		rows[ts.Name] = ts.Rows
	}
	assert.Equal(t, map[string]int64{"users": 1, "xweets": 1, "replies": 1, "likes": 0}, rows)
	assert.Empty(t, status.PendingMigrations)
}

func TestApplySchema_RefusesAutoInProduction(t *testing.T) {
	db := setupSQLite(t)
	err := ApplySchema(context.Background(), db, &config.Config{Env: "production", DBSchemaMode: SchemaModeAuto})
	require.Error(t, err)
	assert.False(t, db.Migrator().HasTable(&models.Reply{}))
}
