// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package inbox stores the opaque inputs bound to each epoch. It never
// interprets payloads; the engine decides which epoch an input belongs to.
package inbox

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/offchainlabs/rollups-consensus/storage"
)

var (
	ErrInputTooLarge = errors.New("input too large")
	ErrInputNotFound = errors.New("input not found")
)

type Input struct {
	Sender    common.Address
	Timestamp uint64
	Payload   []byte
}

// Hash commits to the full input, sender and timestamp included.
func (i *Input) Hash() (common.Hash, error) {
	encoded, err := rlp.EncodeToBytes(i)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

var inputPrefix = []byte("input/")

// Key of an input: the prefix followed by big endian epoch and index, so keys
// of one epoch sort together in ordered stores.
func Key(epoch, index uint64) []byte {
	key := make([]byte, 0, len(inputPrefix)+16)
	key = append(key, inputPrefix...)
	key = binary.BigEndian.AppendUint64(key, epoch)
	return binary.BigEndian.AppendUint64(key, index)
}

type Inbox struct {
	store        storage.Store
	maxInputSize uint64
}

// New creates an inbox. A maxInputSize of 0 means no limit.
func New(store storage.Store, maxInputSize uint64) *Inbox {
	return &Inbox{store: store, maxInputSize: maxInputSize}
}

func (b *Inbox) MaxInputSize() uint64 {
	return b.maxInputSize
}

// Check rejects inputs the inbox would refuse to store.
func (b *Inbox) Check(input *Input) error {
	if b.maxInputSize != 0 && uint64(len(input.Payload)) > b.maxInputSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrInputTooLarge, len(input.Payload), b.maxInputSize)
	}
	return nil
}

// Put stores an input at (epoch, index) and returns its hash.
func (b *Inbox) Put(epoch, index uint64, input *Input) (common.Hash, error) {
	if err := b.Check(input); err != nil {
		return common.Hash{}, err
	}
	encoded, err := rlp.EncodeToBytes(input)
	if err != nil {
		return common.Hash{}, err
	}
	if err := b.store.Put(Key(epoch, index), encoded); err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func (b *Inbox) Get(epoch, index uint64) (*Input, error) {
	encoded, err := b.store.Get(Key(epoch, index))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: epoch %d index %d", ErrInputNotFound, epoch, index)
	}
	if err != nil {
		return nil, err
	}
	var input Input
	if err := rlp.DecodeBytes(encoded, &input); err != nil {
		return nil, fmt.Errorf("decoding input %d of epoch %d: %w", index, epoch, err)
	}
	return &input, nil
}

// Remove deletes a stored input. Used to undo a Put whose surrounding
// operation failed.
func (b *Inbox) Remove(epoch, index uint64) error {
	return b.store.Delete(Key(epoch, index))
}
