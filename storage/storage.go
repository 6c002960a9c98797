// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package storage provides the key-value backends the engine persists its
// state to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

var ErrNotFound = errors.New("not found")

// Store is a durable key-value store. Put and Delete must be durable when
// they return.
type Store interface {
	Has(key []byte) (bool, error)
	// Get returns ErrNotFound if the key is absent.
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	Close() error
}

const (
	BackendMemory  = "memory"
	BackendPebble  = "pebble"
	BackendLevelDB = "leveldb"
	BackendBadger  = "badger"
	BackendRedis   = "redis"
)

type Config struct {
	Backend string      `koanf:"backend"`
	DataDir string      `koanf:"data-dir"`
	Redis   RedisConfig `koanf:"redis"`
}

var DefaultConfig = Config{
	Backend: BackendPebble,
	DataDir: "rollups-state",
	Redis:   DefaultRedisConfig,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".backend", DefaultConfig.Backend, "storage backend: "+strings.Join(backends(), ", "))
	f.String(prefix+".data-dir", DefaultConfig.DataDir, "directory for on-disk backends, relative paths are resolved against the working directory")
	RedisConfigAddOptions(prefix+".redis", f)
}

func backends() []string {
	return []string{BackendMemory, BackendPebble, BackendLevelDB, BackendBadger, BackendRedis}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPebble, BackendLevelDB, BackendBadger:
		if c.DataDir == "" {
			return fmt.Errorf("storage backend %s needs a data directory", c.Backend)
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return errors.New("redis storage backend needs a url")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	return nil
}

// Open creates the configured backend. pathResolver turns a relative data
// directory into an absolute one; nil leaves it untouched.
func Open(ctx context.Context, config *Config, pathResolver func(string) string) (Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	dir := config.DataDir
	if pathResolver != nil {
		dir = pathResolver(dir)
	}
	switch config.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendPebble:
		return NewPebbleStore(dir)
	case BackendLevelDB:
		return NewLevelDBStore(dir)
	case BackendBadger:
		return NewBadgerStore(dir)
	case BackendRedis:
		return NewRedisStore(ctx, &config.Redis)
	}
	return nil, fmt.Errorf("unknown storage backend %q", config.Backend)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
