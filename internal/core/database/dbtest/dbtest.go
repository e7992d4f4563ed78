// Package dbtest opens a migrated throwaway store for adapter and
// integration tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"zapshift/internal/core/database"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a SQLite backed gorm handle with the production schema applied.
// The pool is limited to one connection so concurrent callers serialize
// instead of failing with SQLITE_BUSY.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "zapshift.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
