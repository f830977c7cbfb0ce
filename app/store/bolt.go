package store

import (
	"context"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

const responsesBktName = "responses"

// Bolt is a storage that uses BoltDB as a backend.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "responses.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{responsesBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Put puts response to storage.
func (b *Bolt) Put(_ context.Context, key string, data []byte) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(responsesBktName))

		if err := bkt.Put([]byte(key), data); err != nil {
			return fmt.Errorf("put response to storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Get returns response from storage.
func (b *Bolt) Get(_ context.Context, key string) (data []byte, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(responsesBktName))

		bts := bkt.Get([]byte(key))
		if bts == nil {
			return ErrNotFound
		}

		// bolt memory is valid only during the transaction
		data = make([]byte, len(bts))
		copy(data, bts)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}

	return data, nil
}

// Keys returns keys of all stored responses.
func (b *Bolt) Keys(context.Context) ([]string, error) {
	var result []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(responsesBktName))
		err := bkt.ForEach(func(k, _ []byte) error {
			result = append(result, string(k))
			return nil
		})
		if err != nil {
			return fmt.Errorf("foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}
	return result, nil
}

// Delete removes response from storage.
func (b *Bolt) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(responsesBktName))

		if err := bkt.Delete([]byte(key)); err != nil {
			return fmt.Errorf("remove: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }
