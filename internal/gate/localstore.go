// internal/gate/localstore.go
package gate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
)

var recordsBucket = []byte("payment_records")

// BoltLocalStore persists fallback payment records in a bbolt file, keyed
// by content id + viewer. Records are never deleted; expired monthly
// entries simply stop validating.
type BoltLocalStore struct {
	db *bolt.DB
}

func OpenBoltLocalStore(path string) (*BoltLocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create local store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialise local store: %w", err)
	}
	return &BoltLocalStore{db: db}, nil
}

func (s *BoltLocalStore) Close() error {
	return s.db.Close()
}

func (s *BoltLocalStore) Get(contentID string, viewer identity.Identity) (*LocalRecord, error) {
	var record *LocalRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(recordsBucket).Get(recordKey(contentID, viewer))
		if data == nil {
			return nil
		}
		var r LocalRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode payment record: %w", err)
		}
		record = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BoltLocalStore) Put(viewer identity.Identity, record LocalRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode payment record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put(recordKey(record.ContentID, viewer), data)
	})
}

func recordKey(contentID string, viewer identity.Identity) []byte {
	return []byte(contentID + "|" + strings.ToLower(viewer.Address))
}
