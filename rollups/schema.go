// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/offchainlabs/rollups-consensus/fees"
	"github.com/offchainlabs/rollups-consensus/validators"
)

var (
	stateKey    = []byte("engine/state")
	epochPrefix = []byte("epoch/")
)

const stateVersion uint64 = 2

func epochKey(epoch uint64) []byte {
	key := make([]byte, 0, len(epochPrefix)+8)
	key = append(key, epochPrefix...)
	return binary.BigEndian.AppendUint64(key, epoch)
}

// engineState is everything the engine needs to resume after a restart.
// Timestamps are unix nanoseconds, zero when unset.
type engineState struct {
	Version                uint64
	Phase                  uint8
	InputAccumulationStart uint64
	SealedAt               uint64
	FirstClaimAt           uint64
	DisputeStart           uint64
	NumInputs              uint64
	NextNumInputs          uint64
	Validators             validators.Snapshot
	Fees                   fees.Snapshot
}

func encodeTime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano())
}

func decodeTime(n uint64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(n))
}

func encodeState(s *engineState) ([]byte, error) {
	return rlp.EncodeToBytes(s)
}

func decodeState(data []byte) (*engineState, error) {
	var s engineState
	if err := rlp.DecodeBytes(data, &s); err != nil {
		return nil, fmt.Errorf("decoding engine state: %w", err)
	}
	if s.Version != stateVersion {
		return nil, fmt.Errorf("unsupported engine state version %d", s.Version)
	}
	if !Phase(s.Phase).Valid() {
		return nil, fmt.Errorf("engine state has unknown phase %d", s.Phase)
	}
	return &s, nil
}
