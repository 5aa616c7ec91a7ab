package store

import (
	"context"
	"encoding/json"
	"fmt"

	"docsum/types"

	bolt "go.etcd.io/bbolt"
)

var (
	summaryBucket = []byte("summary")
	currentKey    = []byte("current")
)

// BoltStore keeps the summary in a BoltDB file.
type BoltStore struct {
	DB *bolt.DB
}

// NewBoltStore opens (or creates) the database at path and makes sure the
// summary bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(summaryBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create summary bucket: %w", err)
	}

	return &BoltStore{DB: db}, nil
}

func (s *BoltStore) Save(_ context.Context, summary types.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return s.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(summaryBucket)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put(currentKey, data)
	})
}

func (s *BoltStore) Load(_ context.Context) (types.Summary, error) {
	var data []byte
	err := s.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(summaryBucket)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		// the slice is only valid inside the transaction
		data = append([]byte(nil), b.Get(currentKey)...)
		return nil
	})
	if err != nil {
		return types.Summary{}, err
	}
	return decode(data)
}

func (s *BoltStore) Close() error {
	return s.DB.Close()
}
