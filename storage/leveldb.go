// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package storage

import (
	"errors"

	"github.com/ethereum/go-ethereum/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

type LevelDBStore struct {
	db  *leveldb.DB
	dir string
}

var syncWrite = &opt.WriteOptions{Sync: true}

func NewLevelDBStore(dir string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	log.Info("opened leveldb store", "dir", dir)
	return &LevelDBStore{db: db, dir: dir}, nil
}

func (s *LevelDBStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, nil)
}

func (s *LevelDBStore) Get(key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (s *LevelDBStore) Put(key []byte, value []byte) error {
	return s.db.Put(key, value, syncWrite)
}

func (s *LevelDBStore) Delete(key []byte) error {
	return s.db.Delete(key, syncWrite)
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}

func (s *LevelDBStore) String() string {
	return "LevelDBStore(" + s.dir + ")"
}
