package storage

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic key derivation
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ravewatch-hq/ravewatch-event-agent/internal/domain"
)

const eventBucket = "events"

// boltStore implements Store backed by BoltDB. Events are keyed by a content
// hash of their identity fields, so re-scraping the same event refreshes the
// stored row instead of duplicating it.
type boltStore struct {
	db        *bolt.DB
	retention time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(eventBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db, retention: opts.Retention}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// eventKey derives the dedup key from the fields that identify one listing.
func eventKey(evt domain.Event) []byte {
	sum := sha1.Sum([]byte(strings.Join([]string{evt.Source, evt.Artist, evt.Title, evt.DateText}, "|")))
	dst := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(dst, sum[:])
	return dst
}

// UpsertEvents writes every event, overwriting rows for listings seen
// before (refreshing their scrape timestamp) and reporting the newly seen ones.
func (b *boltStore) UpsertEvents(events []domain.Event) ([]domain.Event, error) {
	if b == nil || b.db == nil || len(events) == 0 {
		return nil, nil
	}

	var fresh []domain.Event
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}

		for _, evt := range events {
			key := eventKey(evt)
			if bucket.Get(key) == nil {
				fresh = append(fresh, evt)
			}
			value, err := json.Marshal(evt)
			if err != nil {
				return fmt.Errorf("encode event: %w", err)
			}
			if err := bucket.Put(key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// PurgeOlderThan deletes events scraped before now-age.
func (b *boltStore) PurgeOlderThan(age time.Duration) (int, error) {
	if b == nil || b.db == nil {
		return 0, nil
	}
	if age <= 0 {
		age = b.retention
	}
	cutoff := time.Now().Add(-age)

	removed := 0
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var evt domain.Event
			if err := json.Unmarshal(v, &evt); err != nil || evt.ScrapedAt.Before(cutoff) {
				if err := cursor.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Query scans stored events applying case-insensitive substring filters,
// returning at most the requested limit, newest scrape first.
func (b *boltStore) Query(f domain.QueryFilter) ([]domain.Event, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	artist := strings.ToLower(strings.TrimSpace(f.Artist))
	location := strings.ToLower(strings.TrimSpace(f.Location))

	var out []domain.Event
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}

		return bucket.ForEach(func(_, v []byte) error {
			var evt domain.Event
			if err := json.Unmarshal(v, &evt); err != nil {
				return nil // unreadable rows are skipped, not fatal
			}
			if artist != "" && !strings.Contains(strings.ToLower(evt.Artist), artist) {
				return nil
			}
			if location != "" && !strings.Contains(strings.ToLower(evt.Location), location) {
				return nil
			}
			out = append(out, evt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ScrapedAt.After(out[j].ScrapedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats summarizes the stored event set.
func (b *boltStore) Stats() (domain.Stats, error) {
	if b == nil || b.db == nil {
		return domain.Stats{}, nil
	}

	stats := domain.Stats{}
	artists := make(map[string]struct{})
	locations := make(map[string]struct{})

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(eventBucket))
		if bucket == nil {
			return fmt.Errorf("event bucket missing")
		}
		return bucket.ForEach(func(_, v []byte) error {
			var evt domain.Event
			if err := json.Unmarshal(v, &evt); err != nil {
				return nil
			}
			stats.TotalEvents++
			artists[evt.Artist] = struct{}{}
			locations[evt.Location] = struct{}{}
			return nil
		})
	})
	if err != nil {
		return domain.Stats{}, err
	}

	stats.UniqueArtists = len(artists)
	stats.UniqueLocations = len(locations)
	return stats, nil
}
