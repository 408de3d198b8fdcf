package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"feeds/internal/config"
	"feeds/internal/middleware"
	"feeds/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "feeds"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=feeds sslmode=disable", DSN(cfg))

	cfg.DBSSLMode = "require"
	assert.Contains(t, DSN(cfg), "sslmode=require")
}

func TestMigrate_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{&models.User{}, &models.Friendship{}, &models.Post{}, &models.Comment{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Friendship{}, "idx_friendship_users"))
}

func TestSchemaStatus(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	status, err := SchemaStatus(db)
	require.NoError(t, err)
	require.Len(t, status, 4)
	for _, s := range status {
		assert.False(t, s.Present, s.Table)
	}

	require.NoError(t, Migrate(db))
	status, err = SchemaStatus(db)
	require.NoError(t, err)
	tables := make([]string, 0, len(status))
	for _, s := range status {
		assert.True(t, s.Present, s.Table)
		tables = append(tables, s.Table)
	}
	assert.Equal(t, []string{"users", "friendships", "posts", "comments"}, tables)
}

func TestGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(middleware.NewLogger(&buf, "production"))
	ctx := context.Background()
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(ctx, time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record-not-found is not logged")

	l.Trace(ctx, time.Now(), sql, errors.New("connection reset"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	l.LogMode(logger.Silent).Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	assert.Empty(t, buf.String())
}
