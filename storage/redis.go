// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package storage

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"golang.org/x/crypto/sha3"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/rollups-consensus/util/redisutil"
	"github.com/offchainlabs/rollups-consensus/util/signature"
)

type RedisConfig struct {
	URL        string        `koanf:"url"`
	KeyPrefix  string        `koanf:"key-prefix"`
	SigningKey string        `koanf:"signing-key"`
	Timeout    time.Duration `koanf:"timeout"`
}

var DefaultRedisConfig = RedisConfig{
	URL:        "",
	KeyPrefix:  "rollups:",
	SigningKey: "",
	Timeout:    5 * time.Second,
}

func RedisConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".url", DefaultRedisConfig.URL, "redis url, redis:// or redis+sentinel://")
	f.String(prefix+".key-prefix", DefaultRedisConfig.KeyPrefix, "prefix prepended to every stored key")
	f.String(prefix+".signing-key", DefaultRedisConfig.SigningKey, "optional 32 byte hex key, or a path to a file containing it, used to HMAC stored values")
	f.Duration(prefix+".timeout", DefaultRedisConfig.Timeout, "timeout of a single redis operation")
}

var ErrBadSignature = errors.New("stored value HMAC doesn't match")

// RedisStore keeps state in redis. With a signing key configured every value
// carries a trailing keccak HMAC which is checked on read.
type RedisStore struct {
	client     redis.UniversalClient
	config     RedisConfig
	signingKey *common.Hash
	ctx        context.Context
}

func NewRedisStore(ctx context.Context, config *RedisConfig) (*RedisStore, error) {
	client, err := redisutil.RedisClientFromURL(config.URL)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.New("redis url is empty")
	}
	store := &RedisStore{
		client: client,
		config: *config,
		ctx:    ctx,
	}
	store.signingKey, err = signature.LoadSigningKey(config.SigningKey)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("redis signing key: %w", err)
	}
	pingCtx, cancel := store.opContext()
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	log.Info("opened redis store", "prefix", config.KeyPrefix, "signed", store.signingKey != nil)
	return store, nil
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	if s.config.Timeout <= 0 {
		return context.WithCancel(s.ctx)
	}
	return context.WithTimeout(s.ctx, s.config.Timeout)
}

func (s *RedisStore) key(key []byte) string {
	return s.config.KeyPrefix + string(key)
}

func (s *RedisStore) sign(message []byte) []byte {
	if s.signingKey == nil {
		return message
	}
	mac := hmac.New(sha3.NewLegacyKeccak256, s.signingKey[:])
	mac.Write(message)
	return mac.Sum(append([]byte{}, message...))
}

func (s *RedisStore) verify(data []byte) ([]byte, error) {
	if s.signingKey == nil {
		return data, nil
	}
	if len(data) < common.HashLength {
		return nil, fmt.Errorf("%w: value too short", ErrBadSignature)
	}
	message := data[:len(data)-common.HashLength]
	mac := hmac.New(sha3.NewLegacyKeccak256, s.signingKey[:])
	mac.Write(message)
	if !hmac.Equal(data[len(data)-common.HashLength:], mac.Sum(nil)) {
		return nil, ErrBadSignature
	}
	return message, nil
}

func (s *RedisStore) Has(key []byte) (bool, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Get(key []byte) ([]byte, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.verify(data)
}

func (s *RedisStore) Put(key []byte, value []byte) error {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.client.Set(ctx, s.key(key), s.sign(value), 0).Err()
}

func (s *RedisStore) Delete(key []byte) error {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) String() string {
	return fmt.Sprintf("RedisStore(prefix=%q)", s.config.KeyPrefix)
}
