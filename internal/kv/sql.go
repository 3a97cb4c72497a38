package kv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// sqlEntry is a row of the kv_entries table.
type sqlEntry struct {
	Key       string `gorm:"primaryKey;size:512"`
	Value     []byte
	UpdatedAt time.Time
}

func (sqlEntry) TableName() string {
	return "kv_entries"
}

// SQLStore implements Store on a single SQLite table.
type SQLStore struct {
	db   *gorm.DB
	path string
}

// OpenSQLStore opens (creating if needed) the SQLite database at path. An
// empty path or ":memory:" opens a private in-memory database.
func OpenSQLStore(path string) (*SQLStore, error) {
	var dsn string
	path = strings.TrimSpace(path)
	switch {
	case path == "", strings.EqualFold(path, ":memory:"):
		dsn = "file::memory:"
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %v", ErrUnavailable, err)
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL", filepath.ToSlash(path))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// One connection keeps an in-memory database alive and matches the
	// single-owner access model.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&sqlEntry{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("%w: failed to migrate: %v", ErrUnavailable, err)
	}

	return &SQLStore{db: db, path: path}, nil
}

// Get retrieves the value stored under key.
func (s *SQLStore) Get(key string) ([]byte, bool, error) {
	var entry sqlEntry
	err := s.db.Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

// Set upserts the value for key.
func (s *SQLStore) Set(key string, value []byte) error {
	entry := sqlEntry{Key: key, Value: value}
	return s.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&entry).Error
}

// Delete removes key from the store.
func (s *SQLStore) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&sqlEntry{}).Error
}

// Keys returns all keys in the store.
func (s *SQLStore) Keys() ([]string, error) {
	var keys []string
	if err := s.db.Model(&sqlEntry{}).Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Path returns the database file path, empty for in-memory databases.
func (s *SQLStore) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
