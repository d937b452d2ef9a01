package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the session state directory.
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the session database file.
	stateFilePerm = fs.FileMode(0o600)

	// boltOpenTimeout is the maximum time to wait for the bolt database lock.
	boltOpenTimeout = 5 * time.Second
)

var sessionBucket = []byte("session")

// BoltBackend stores session keys in a single-bucket bbolt database. It is
// the default primary backend: durable across restarts, local to the machine,
// and restricted to owner-only file permissions.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the session database at path.
func OpenBolt(path string) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating session bucket: %w", err)
	}

	return &BoltBackend{db: db}, nil
}

// Get returns the stored value for key, or ErrKeyNotFound.
func (b *BoltBackend) Get(key string) (string, error) {
	var value string
	found := false

	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(sessionBucket).Get([]byte(key)); v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	if !found {
		return "", ErrKeyNotFound
	}

	return value, nil
}

func (b *BoltBackend) Set(key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (b *BoltBackend) Delete(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Close releases the database file lock.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}
