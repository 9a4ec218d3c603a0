// Package store persists each device's most recent raw fix in a local
// bbolt file so last-known-location queries survive restarts.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/couchcryptid/location-provider-service/internal/domain"
)

var lastFixBucket = []byte("last_fix")

// Store is a bbolt-backed last-fix store keyed by device id.
// It implements engine.LastFixStore.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the bbolt file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(lastFixBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// PutLastFix overwrites the stored fix for the device.
func (s *Store) PutLastFix(deviceID string, fix domain.Fix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("marshal fix: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(lastFixBucket).Put([]byte(deviceID), data)
	})
}

// LastFix returns the stored fix for the device, if any.
func (s *Store) LastFix(deviceID string) (domain.Fix, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(lastFixBucket).Get([]byte(deviceID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return domain.Fix{}, false, err
	}
	if data == nil {
		return domain.Fix{}, false, nil
	}
	var fix domain.Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		return domain.Fix{}, false, fmt.Errorf("unmarshal fix: %w", err)
	}
	return fix, true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
