// Package history keeps the generation history ledgers: ordered lists
// of past generations whose metadata lives in the key/value store and
// whose media payloads live in blob tables.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Well-known ledger keys.
const (
	KeyVideoHistory = "veoVideoHistory"
	KeyImageHistory = "veoImageHistory"
)

// Record is one ledger entry. Settings is the closed snapshot of the
// inputs that produced the generation.
type Record[S any] struct {
	ID               string `json:"id"`
	Timestamp        int64  `json:"timestamp"`
	ThumbnailDataURL string `json:"thumbnailDataUrl"`
	Settings         S      `json:"settings"`
}

// KVStore holds the serialized ledger metadata.
type KVStore interface {
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
	DeleteValue(key string) error
}

// BlobStore holds the media payloads keyed by record id.
type BlobStore interface {
	Get(id string) ([]byte, bool, error)
	Put(id string, data []byte) error
	Delete(id string) error
	Clear() error
}

// Thumbnailer renders a small preview data URL from a media payload.
type Thumbnailer func(ctx context.Context, media []byte) (string, error)

// Ledger is an ordered, newest-first list of generation records.
type Ledger[S any] struct {
	key   string
	kv    KVStore
	blobs BlobStore
	thumb Thumbnailer
	log   *slog.Logger

	mu      sync.Mutex
	records []Record[S]
}

func NewLedger[S any](key string, kv KVStore, blobs BlobStore, thumb Thumbnailer, log *slog.Logger) *Ledger[S] {
	return &Ledger[S]{key: key, kv: kv, blobs: blobs, thumb: thumb, log: log}
}

// Load reads the persisted metadata into memory. Corrupt metadata is
// discarded and the ledger starts empty.
func (l *Ledger[S]) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, ok, err := l.kv.GetValue(l.key)
	if err != nil {
		return fmt.Errorf("load ledger %s: %w", l.key, err)
	}
	if !ok {
		l.records = nil
		return nil
	}
	var recs []Record[S]
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		l.log.Warn("discarding corrupt history metadata", "key", l.key, "error", err)
		if derr := l.kv.DeleteValue(l.key); derr != nil {
			l.log.Warn("delete corrupt history metadata", "key", l.key, "error", derr)
		}
		l.records = nil
		return nil
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Timestamp > recs[j].Timestamp })
	l.records = recs
	return nil
}

// Add stores the media payload, renders its thumbnail, and prepends a
// new record built from settings. The media write must succeed before
// the record becomes visible; a metadata persist failure is logged and
// the record survives in memory.
func (l *Ledger[S]) Add(ctx context.Context, media []byte, settings S) (Record[S], error) {
	now := time.Now()
	rec := Record[S]{
		ID:        fmt.Sprintf("%d-%d", now.UnixMilli(), rand.Int63()),
		Timestamp: now.UnixMilli(),
		Settings:  settings,
	}

	thumb, err := l.thumb(ctx, media)
	if err != nil {
		return Record[S]{}, fmt.Errorf("render thumbnail: %w", err)
	}
	rec.ThumbnailDataURL = thumb

	if err := l.blobs.Put(rec.ID, media); err != nil {
		return Record[S]{}, fmt.Errorf("store media %s: %w", rec.ID, err)
	}

	l.mu.Lock()
	l.records = append([]Record[S]{rec}, l.records...)
	l.mu.Unlock()

	l.persist()
	return rec, nil
}

// Remove deletes the record and its media payload. Removing an id the
// ledger does not hold is not an error.
func (l *Ledger[S]) Remove(id string) error {
	if err := l.blobs.Delete(id); err != nil {
		return fmt.Errorf("delete media %s: %w", id, err)
	}

	l.mu.Lock()
	kept := l.records[:0]
	for _, r := range l.records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	l.records = kept
	l.mu.Unlock()

	l.persist()
	return nil
}

// Clear empties the ledger and its media table.
func (l *Ledger[S]) Clear() error {
	if err := l.blobs.Clear(); err != nil {
		return fmt.Errorf("clear media: %w", err)
	}

	l.mu.Lock()
	l.records = nil
	l.mu.Unlock()

	if err := l.kv.DeleteValue(l.key); err != nil {
		l.log.Warn("clear history metadata", "key", l.key, "error", err)
	}
	return nil
}

// List returns the records newest first.
func (l *Ledger[S]) List() []Record[S] {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record[S], len(l.records))
	copy(out, l.records)
	return out
}

// Media returns the stored payload for the record id.
func (l *Ledger[S]) Media(id string) ([]byte, bool, error) {
	return l.blobs.Get(id)
}

func (l *Ledger[S]) persist() {
	l.mu.Lock()
	raw, err := json.Marshal(l.records)
	l.mu.Unlock()
	if err != nil {
		l.log.Warn("encode history metadata", "key", l.key, "error", err)
		return
	}
	if err := l.kv.SetValue(l.key, string(raw)); err != nil {
		l.log.Warn("persist history metadata", "key", l.key, "error", err)
	}
}
