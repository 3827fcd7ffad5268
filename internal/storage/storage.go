// Package storage persists small key/value documents and binary media
// blobs in a single SQLite database file.
package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Well-known blob table namespaces.
const (
	TableVideos = "videos"
	TableImages = "images"
)

type kvEntry struct {
	Key       string `gorm:"primaryKey"`
	Value     string
	UpdatedAt time.Time
}

func (kvEntry) TableName() string { return "kv_entries" }

type mediaBlob struct {
	Table     string `gorm:"column:tbl;primaryKey"`
	ID        string `gorm:"primaryKey"`
	Data      []byte
	CreatedAt time.Time
}

func (mediaBlob) TableName() string { return "media_blobs" }

// Store wraps the SQLite database shared by the history ledgers and
// the credential vault.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and runs
// migrations. WAL mode keeps readers unblocked during writes.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=10000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&kvEntry{}, &mediaBlob{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetValue returns the stored value for key. The second return is
// false when the key does not exist.
func (s *Store) GetValue(key string) (string, bool, error) {
	var e kvEntry
	err := s.db.First(&e, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return e.Value, true, nil
}

// SetValue upserts the value for key.
func (s *Store) SetValue(key, value string) error {
	e := kvEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// DeleteValue removes key. Deleting a missing key is not an error.
func (s *Store) DeleteValue(key string) error {
	err := s.db.Delete(&kvEntry{}, "key = ?", key).Error
	if err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

// BlobTable is a named namespace of binary blobs.
type BlobTable struct {
	db   *gorm.DB
	name string
}

// Blobs returns the blob namespace with the given name.
func (s *Store) Blobs(name string) *BlobTable {
	return &BlobTable{db: s.db, name: name}
}

// Get returns the blob with the given id. The second return is false
// when the blob does not exist.
func (t *BlobTable) Get(id string) ([]byte, bool, error) {
	var b mediaBlob
	err := t.db.First(&b, "tbl = ? AND id = ?", t.name, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("blob get %s/%s: %w", t.name, id, err)
	}
	return b.Data, true, nil
}

// Put stores data under id, replacing any existing blob.
func (t *BlobTable) Put(id string, data []byte) error {
	b := mediaBlob{Table: t.name, ID: id, Data: data, CreatedAt: time.Now()}
	err := t.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&b).Error
	if err != nil {
		return fmt.Errorf("blob put %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Delete removes the blob with the given id. Deleting a missing blob
// is not an error.
func (t *BlobTable) Delete(id string) error {
	err := t.db.Delete(&mediaBlob{}, "tbl = ? AND id = ?", t.name, id).Error
	if err != nil {
		return fmt.Errorf("blob delete %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Clear removes every blob in the namespace.
func (t *BlobTable) Clear() error {
	err := t.db.Delete(&mediaBlob{}, "tbl = ?", t.name).Error
	if err != nil {
		return fmt.Errorf("blob clear %s: %w", t.name, err)
	}
	return nil
}

// Count reports how many blobs the namespace holds.
func (t *BlobTable) Count() (int64, error) {
	var n int64
	err := t.db.Model(&mediaBlob{}).Where("tbl = ?", t.name).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("blob count %s: %w", t.name, err)
	}
	return n, nil
}
