package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	entriesBucketName = "entries"
	indexBucketName   = "entry_index"

	// keyTimeLayout has a fixed width so keys sort chronologically
	keyTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

var (
	// ErrEntryNotFound is returned when no entry has the requested ID
	ErrEntryNotFound = errors.New("entry not found")

	// ErrDatabaseClosed is returned by WatchEntries after Close
	ErrDatabaseClosed = errors.New("database closed")
)

// DB defines the interface for entry storage
type DB interface {
	// InsertEntry saves a new entry, replacing any entry with the same ID
	InsertEntry(entry *Entry) error

	// GetEntry retrieves an entry by ID
	GetEntry(id string) (*Entry, error)

	// ListEntries returns the entries with a timestamp in [from, to),
	// newest first
	ListEntries(from, to time.Time) ([]*Entry, error)

	// WatchEntries sends the entries of [from, to) now and again after every
	// write. The channel is closed when ctx is done or the database closes.
	WatchEntries(ctx context.Context, from, to time.Time) (<-chan []*Entry, error)

	// UpdateEntry applies mutate to the stored entry and saves the result.
	// The entry's ID and timestamp cannot be changed.
	UpdateEntry(id string, mutate func(*Entry) error) (*Entry, error)

	// DeleteEntry removes an entry
	DeleteEntry(id string) error

	// DeleteOlderThan removes every entry with a timestamp before cutoff
	// and returns how many were removed
	DeleteOlderThan(cutoff time.Time) (int, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Entries are keyed by
// their UTC timestamp and ID; a second bucket maps IDs to keys.
type BoltDB struct {
	db *bbolt.DB

	mu          sync.Mutex
	watchers    map[int]chan struct{}
	nextWatcher int
	done        chan struct{}
	closed      bool
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(entriesBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(indexBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{
		db:       db,
		watchers: make(map[int]chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func timeKey(t time.Time) []byte {
	return []byte(t.UTC().Format(keyTimeLayout))
}

// InsertEntry saves a new entry
func (b *BoltDB) InsertEntry(entry *Entry) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket([]byte(entriesBucketName))
		index := tx.Bucket([]byte(indexBucketName))

		if old := index.Get([]byte(entry.ID)); old != nil {
			if err := entries.Delete(old); err != nil {
				return err
			}
		}
		return putEntry(entries, index, entry)
	})
	if err != nil {
		return err
	}
	b.notify()
	return nil
}

func putEntry(entries, index *bbolt.Bucket, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling entry: %w", err)
	}
	key := keyFor(entry)
	if err := entries.Put(key, data); err != nil {
		return err
	}
	return index.Put([]byte(entry.ID), key)
}

func keyFor(entry *Entry) []byte {
	key := timeKey(entry.Timestamp)
	key = append(key, '_')
	return append(key, entry.ID...)
}

// GetEntry retrieves an entry by ID
func (b *BoltDB) GetEntry(id string) (*Entry, error) {
	var entry *Entry
	err := b.db.View(func(tx *bbolt.Tx) error {
		var err error
		entry, err = getEntry(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func getEntry(tx *bbolt.Tx, id string) (*Entry, error) {
	key := tx.Bucket([]byte(indexBucketName)).Get([]byte(id))
	if key == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	data := tx.Bucket([]byte(entriesBucketName)).Get(key)
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling entry: %w", err)
	}
	return &entry, nil
}

// ListEntries returns the entries in [from, to), newest first
func (b *BoltDB) ListEntries(from, to time.Time) ([]*Entry, error) {
	entries := make([]*Entry, 0)
	fromKey, toKey := timeKey(from), timeKey(to)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(entriesBucketName)).Cursor()
		for k, v := c.Seek(fromKey); k != nil && bytes.Compare(k, toKey) < 0; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	return entries, nil
}

// WatchEntries streams the entries of [from, to). Notifications are
// coalesced: a slow reader only sees the latest snapshot.
func (b *BoltDB) WatchEntries(ctx context.Context, from, to time.Time) (<-chan []*Entry, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrDatabaseClosed
	}
	id := b.nextWatcher
	b.nextWatcher++
	changed := make(chan struct{}, 1)
	b.watchers[id] = changed
	b.mu.Unlock()

	// Initial snapshot
	changed <- struct{}{}

	out := make(chan []*Entry, 1)
	go func() {
		defer close(out)
		defer b.removeWatcher(id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case <-changed:
			}

			entries, err := b.ListEntries(from, to)
			if err != nil {
				slog.Error("Failed to list watched entries", "from", from, "to", to, "error", err)
				continue
			}

			// Replace a snapshot the reader has not picked up yet
			select {
			case <-out:
			default:
			}
			select {
			case out <- entries:
			case <-ctx.Done():
				return
			case <-b.done:
				return
			}
		}
	}()

	return out, nil
}

func (b *BoltDB) removeWatcher(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.watchers, id)
}

// notify wakes every watcher after a committed write
func (b *BoltDB) notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, changed := range b.watchers {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
}

// UpdateEntry applies mutate to an entry inside one transaction
func (b *BoltDB) UpdateEntry(id string, mutate func(*Entry) error) (*Entry, error) {
	var updated *Entry
	err := b.db.Update(func(tx *bbolt.Tx) error {
		entry, err := getEntry(tx, id)
		if err != nil {
			return err
		}
		timestamp := entry.Timestamp
		if err := mutate(entry); err != nil {
			return err
		}
		entry.ID = id
		entry.Timestamp = timestamp

		updated = entry
		return putEntry(tx.Bucket([]byte(entriesBucketName)), tx.Bucket([]byte(indexBucketName)), entry)
	})
	if err != nil {
		return nil, err
	}
	b.notify()
	return updated, nil
}

// DeleteEntry removes an entry from the database
func (b *BoltDB) DeleteEntry(id string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(indexBucketName))
		key := index.Get([]byte(id))
		if key == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
		}
		if err := tx.Bucket([]byte(entriesBucketName)).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(id))
	})
	if err != nil {
		return err
	}
	b.notify()
	return nil
}

// DeleteOlderThan removes the entries with a timestamp before cutoff
func (b *BoltDB) DeleteOlderThan(cutoff time.Time) (int, error) {
	cutoffKey := timeKey(cutoff)
	var removed int
	err := b.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket([]byte(entriesBucketName))
		index := tx.Bucket([]byte(indexBucketName))

		// Collect first: deleting while iterating skips keys
		var keys [][]byte
		c := entries.Cursor()
		for k, _ := c.First(); k != nil && bytes.Compare(k, cutoffKey) < 0; k, _ = c.Next() {
			keys = append(keys, bytes.Clone(k))
		}

		for _, k := range keys {
			if err := entries.Delete(k); err != nil {
				return err
			}
			if _, id, ok := bytes.Cut(k, []byte("_")); ok {
				if err := index.Delete(id); err != nil {
					return err
				}
			}
		}
		removed = len(keys)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		b.notify()
	}
	return removed, nil
}

// Close stops all watchers and closes the database connection
func (b *BoltDB) Close() error {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.done)
	}
	b.mu.Unlock()
	return b.db.Close()
}
