// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package validators

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/rollups-consensus/claims"
)

// Snapshot is the persisted form of a Manager. It is RLP encodable.
type Snapshot struct {
	Validators []common.Address
	Epoch      uint64
	Mask       uint32
	Leading    common.Hash
	HasLeading bool
	Claims     []common.Hash
}

func (m *Manager) Snapshot() Snapshot {
	return Snapshot{
		Validators: m.Validators(),
		Epoch:      m.epoch,
		Mask:       uint32(m.mask),
		Leading:    m.leading,
		HasLeading: m.hasLeading,
		Claims:     append([]common.Hash{}, m.claims[:len(m.validators)]...),
	}
}

// FromSnapshot rebuilds a Manager, validating the snapshot the same way
// NewManager validates a fresh validator set.
func FromSnapshot(s Snapshot) (*Manager, error) {
	m, err := NewManager(s.Validators)
	if err != nil {
		return nil, err
	}
	if err := m.Restore(s); err != nil {
		return nil, err
	}
	return m, nil
}

// Restore overwrites the per-epoch state. The validator set must match.
func (m *Manager) Restore(s Snapshot) error {
	if len(s.Validators) != len(m.validators) {
		return fmt.Errorf("snapshot has %d validators, manager has %d", len(s.Validators), len(m.validators))
	}
	for i, v := range s.Validators {
		if m.validators[i] != v {
			return fmt.Errorf("snapshot validator %d is %v, manager has %v", i, v, m.validators[i])
		}
	}
	if len(s.Claims) > claims.MaxValidators {
		return fmt.Errorf("snapshot has %d claims", len(s.Claims))
	}
	goal, err := claims.NewWithConsensusGoal(len(m.validators))
	if err != nil {
		return err
	}
	mask := claims.Mask(s.Mask)
	if mask.Reset() != goal {
		return fmt.Errorf("snapshot mask %v does not match %d validators", mask, len(m.validators))
	}
	m.epoch = s.Epoch
	m.mask = mask
	m.leading = s.Leading
	m.hasLeading = s.HasLeading
	m.claims = [claims.MaxValidators]common.Hash{}
	copy(m.claims[:], s.Claims)
	return nil
}
