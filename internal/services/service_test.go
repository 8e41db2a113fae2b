package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/pixora/credits-backend/internal/identity"
	"github.com/pixora/credits-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a file-backed SQLite database with the same GORM
// configuration the service uses in production. A single connection keeps
// SQLite from returning busy errors under the concurrency tests.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Transaction{}))
	return db
}

// stubFetcher is an in-memory identity provider.
type stubFetcher struct {
	mu        sync.Mutex
	calls     int
	snapshots map[string]*identity.ProfileSnapshot
	err       error
	onFetch   func(externalID string)
}

func (f *stubFetcher) Fetch(_ context.Context, externalID string) (*identity.ProfileSnapshot, error) {
	f.mu.Lock()
	f.calls++
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(externalID)
	}
	if f.err != nil {
		return nil, f.err
	}
	if snap, ok := f.snapshots[externalID]; ok {
		return snap, nil
	}
	return nil, identity.ErrNotFound
}

func (f *stubFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
