package testutil

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/treatmentplan-backend/internal/data/db"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

var (
	sharedLogger = sync.OnceValues(func() (*logger.Logger, error) { return logger.New("test") })
	dbSeq        atomic.Int64
)

// Logger returns one console logger shared by every test in the binary.
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := sharedLogger()
	if err != nil {
		tb.Fatalf("logger: %v", err)
	}
	return log
}

// DB opens a fresh, migrated in-memory sqlite database for one test.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:plans_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrateAll(gdb); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
