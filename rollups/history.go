// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/offchainlabs/rollups-consensus/storage"
)

// EpochRecord describes a finalized epoch.
type EpochRecord struct {
	Epoch      uint64           `json:"epoch"`
	Claim      common.Hash      `json:"claim"`
	Validators []common.Address `json:"validators"`
	Inputs     uint64           `json:"inputs"`
	Disputed   bool             `json:"disputed"`
	Timeout    bool             `json:"timeout"`
	// FinalizedAt is a unix timestamp in seconds.
	FinalizedAt uint64 `json:"finalizedAt"`
}

// history keeps finalized epochs in the store with an LRU in front.
type history struct {
	store storage.Store
	cache *lru.Cache[uint64, *EpochRecord]
}

func newHistory(store storage.Store, size int) (*history, error) {
	cache, err := lru.New[uint64, *EpochRecord](size)
	if err != nil {
		return nil, err
	}
	return &history{store: store, cache: cache}, nil
}

func (h *history) write(record *EpochRecord) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return h.store.Put(epochKey(record.Epoch), encoded)
}

func (h *history) remove(epoch uint64) error {
	h.cache.Remove(epoch)
	return h.store.Delete(epochKey(epoch))
}

func (h *history) remember(record *EpochRecord) {
	h.cache.Add(record.Epoch, record)
}

func (h *history) get(epoch uint64) (*EpochRecord, error) {
	if record, ok := h.cache.Get(epoch); ok {
		return record, nil
	}
	encoded, err := h.store.Get(epochKey(epoch))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrEpochNotFound, epoch)
	}
	if err != nil {
		return nil, err
	}
	var record EpochRecord
	if err := rlp.DecodeBytes(encoded, &record); err != nil {
		return nil, fmt.Errorf("decoding epoch %d: %w", epoch, err)
	}
	h.cache.Add(epoch, &record)
	return &record, nil
}
