// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package storage

import (
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/ethereum/go-ethereum/log"
)

type PebbleStore struct {
	db  *pebble.DB
	dir string
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	log.Info("opened pebble store", "dir", dir)
	return &PebbleStore{db: db, dir: dir}, nil
}

func (s *PebbleStore) Has(key []byte) (bool, error) {
	_, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	value, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ret := copyBytes(value)
	return ret, closer.Close()
}

func (s *PebbleStore) Put(key []byte, value []byte) error {
	return s.db.Set(key, value, pebble.Sync)
}

func (s *PebbleStore) Delete(key []byte) error {
	return s.db.Delete(key, pebble.Sync)
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) String() string {
	return "PebbleStore(" + s.dir + ")"
}
