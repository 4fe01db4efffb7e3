// Package storage owns the badger database shared by collabd repositories.
//
// Documents are stored as JSON values under string keys; each repository
// defines its own key scheme (see project and message packages).
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// ErrKeyNotFound is returned by GetJSON when the key is absent.
// It aliases badger's sentinel so repositories can test either.
var ErrKeyNotFound = badger.ErrKeyNotFound

// Open opens the badger database at path. With inMemory set, no directory
// is created and all data lives on the heap (tests, demos).
func Open(path string, inMemory bool, logger *zap.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(badgerLogger{logger.Named("badger").Sugar()})
	if inMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", path, err)
	}
	return db, nil
}

// SetJSON marshals v and writes it under key in one transaction.
func SetJSON(db *badger.DB, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// GetJSON reads key and unmarshals the value into out.
// Returns ErrKeyNotFound when the key is absent.
func GetJSON(db *badger.DB, key string, out any) error {
	return db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
}

// Delete removes key. Deleting an absent key is not an error.
func Delete(db *badger.DB, key string) error {
	return db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// ScanJSON iterates all values under prefix in key order and unmarshals
// each into a T. Key order is the repositories' ordering contract: both
// project and message keys are built so lexicographic order is the order
// callers want.
func ScanJSON[T any](db *badger.DB, prefix string) ([]T, error) {
	var results []T
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var v T
				if err := json.Unmarshal(val, &v); err != nil {
					return fmt.Errorf("unmarshaling %s: %w", it.Item().Key(), err)
				}
				results = append(results, v)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// badgerLogger adapts zap to badger's Logger interface.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any)   { l.s.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...any) { l.s.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...any)    { l.s.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...any)   { l.s.Debugf(format, args...) }
