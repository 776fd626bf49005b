// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"

	"pulse/internal/database"
	"pulse/internal/media"
	"pulse/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated in-memory SQLite database private to t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Each new connection to :memory: is a fresh database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva",
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// UploaderStub is an in-memory media.Uploader that records calls.
type UploaderStub struct {
	mu        sync.Mutex
	UploadErr error
	DeleteErr error
	Uploaded  []media.File
	Deleted   []string
	next      int
}

// Upload stores nothing and returns a deterministic URL.
func (s *UploaderStub) Upload(_ context.Context, f media.File) (*media.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UploadErr != nil {
		return nil, s.UploadErr
	}
	s.next++
	s.Uploaded = append(s.Uploaded, f)
	id := fmt.Sprintf("socialmedia_posts/stub-%d", s.next)
	return &media.Upload{URL: "https://img.example.com/" + id + f.Ext(), PublicID: id}, nil
}

// Delete records the public id.
func (s *UploaderStub) Delete(_ context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, publicID)
	return s.DeleteErr
}

// Calls returns the number of uploads and deletes seen so far.
func (s *UploaderStub) Calls() (uploads, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Uploaded), len(s.Deleted)
}

// ErrUpstream is a canned gateway failure.
var ErrUpstream = errors.New("gateway unavailable")
