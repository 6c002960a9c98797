// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package storage

import (
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

// MemoryStore keeps everything in process memory. State does not survive a
// restart; meant for tests and throwaway deployments.
type MemoryStore struct {
	db *memorydb.Database
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{db: memorydb.New()}
}

func (s *MemoryStore) Has(key []byte) (bool, error) {
	return s.db.Has(key)
}

func (s *MemoryStore) Get(key []byte) ([]byte, error) {
	has, err := s.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, ErrNotFound
	}
	return s.db.Get(key)
}

func (s *MemoryStore) Put(key []byte, value []byte) error {
	return s.db.Put(key, value)
}

func (s *MemoryStore) Delete(key []byte) error {
	return s.db.Delete(key)
}

func (s *MemoryStore) Close() error {
	return s.db.Close()
}
