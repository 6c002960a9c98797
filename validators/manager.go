// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package validators resolves claims submitted by a fixed validator set
// against the leading claim of the current epoch.
package validators

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/offchainlabs/rollups-consensus/claims"
)

var (
	ErrNotAValidator        = errors.New("not a validator")
	ErrDuplicateClaim       = errors.New("validator already claimed this epoch")
	ErrEpochMismatch        = errors.New("claim for an epoch that is not open")
	ErrDuplicateValidator   = errors.New("duplicate validator address")
	ErrZeroValidator        = errors.New("zero validator address")
	ErrEmptyValidatorSet    = errors.New("empty validator set")
	ErrValidatorSetTooLarge = claims.ErrValidatorSetTooLarge
)

type Result uint8

const (
	// Accepted means the claim was recorded and more claims are needed.
	Accepted Result = iota
	// ConsensusReached means every validator agrees on the leading claim.
	ConsensusReached
	// Conflict means the claim disagrees with the leading claim.
	Conflict
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case ConsensusReached:
		return "consensus"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("result(%d)", uint8(r))
	}
}

type Outcome struct {
	Result       Result
	Epoch        uint64
	LeadingClaim common.Hash
	// FirstClaim is set when this claim became the leading claim.
	FirstClaim bool
	// Credited holds the agreeing validators, in set order, on ConsensusReached.
	Credited []common.Address
	// Challenger is the dissenting validator on Conflict.
	Challenger common.Address
}

// Manager is not thread safe; the phase engine serialises access to it.
type Manager struct {
	validators []common.Address
	slots      map[common.Address]int
	epoch      uint64
	mask       claims.Mask
	leading    common.Hash
	hasLeading bool
	claims     [claims.MaxValidators]common.Hash
}

func NewManager(validators []common.Address) (*Manager, error) {
	if len(validators) == 0 {
		return nil, ErrEmptyValidatorSet
	}
	mask, err := claims.NewWithConsensusGoal(len(validators))
	if err != nil {
		return nil, err
	}
	slots := make(map[common.Address]int, len(validators))
	for i, v := range validators {
		if v == (common.Address{}) {
			return nil, fmt.Errorf("%w at slot %d", ErrZeroValidator, i)
		}
		if prev, ok := slots[v]; ok {
			return nil, fmt.Errorf("%w: %v at slots %d and %d", ErrDuplicateValidator, v, prev, i)
		}
		slots[v] = i
	}
	return &Manager{
		validators: append([]common.Address{}, validators...),
		slots:      slots,
		mask:       mask,
	}, nil
}

func (m *Manager) Validators() []common.Address {
	return append([]common.Address{}, m.validators...)
}

func (m *Manager) IsValidator(addr common.Address) bool {
	_, ok := m.slots[addr]
	return ok
}

func (m *Manager) Epoch() uint64 {
	return m.epoch
}

func (m *Manager) Mask() claims.Mask {
	return m.mask
}

// LeadingClaim returns the first claim submitted this epoch, if any.
func (m *Manager) LeadingClaim() (common.Hash, bool) {
	return m.leading, m.hasLeading
}

// ClaimOf returns the claim submitted by a validator this epoch, if any.
func (m *Manager) ClaimOf(addr common.Address) (common.Hash, bool) {
	slot, ok := m.slots[addr]
	if !ok || !m.mask.Claimed(slot) {
		return common.Hash{}, false
	}
	return m.claims[slot], true
}

// OnClaim records a claim. The first claim of the epoch becomes the leading
// claim and every later claim is judged against it, in submission order.
// A rejected claim leaves the manager untouched.
func (m *Manager) OnClaim(epoch uint64, claim common.Hash, claimant common.Address) (*Outcome, error) {
	slot, ok := m.slots[claimant]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNotAValidator, claimant)
	}
	if epoch != m.epoch {
		return nil, fmt.Errorf("%w: claimed %d, open %d", ErrEpochMismatch, epoch, m.epoch)
	}
	if m.mask.Claimed(slot) {
		return nil, fmt.Errorf("%w: %v in epoch %d", ErrDuplicateClaim, claimant, epoch)
	}
	first := !m.hasLeading
	matches := first || claim == m.leading
	mask, err := m.mask.SetClaim(slot, matches)
	if err != nil {
		return nil, err
	}
	m.mask = mask
	m.claims[slot] = claim
	if first {
		m.leading = claim
		m.hasLeading = true
	}
	outcome := &Outcome{
		Epoch:        epoch,
		LeadingClaim: m.leading,
		FirstClaim:   first,
	}
	switch {
	case !matches:
		outcome.Result = Conflict
		outcome.Challenger = claimant
	case m.mask.ConsensusReached():
		outcome.Result = ConsensusReached
		outcome.Credited = m.agreeing()
	default:
		outcome.Result = Accepted
	}
	return outcome, nil
}

func (m *Manager) agreeing() []common.Address {
	slots := m.mask.AgreedSlots()
	agreeing := make([]common.Address, 0, len(slots))
	for _, slot := range slots {
		agreeing = append(agreeing, m.validators[slot])
	}
	return agreeing
}

// Agreeing lists the validators currently agreeing with the leading claim.
func (m *Manager) Agreeing() []common.Address {
	return m.agreeing()
}

// ClaimedBy lists validators, in set order, whose claim this epoch equals claim.
func (m *Manager) ClaimedBy(claim common.Hash) []common.Address {
	var out []common.Address
	for slot, v := range m.validators {
		if m.mask.Claimed(slot) && m.claims[slot] == claim {
			out = append(out, v)
		}
	}
	return out
}

// ResetEpoch opens the given epoch with no claims and no leading claim.
func (m *Manager) ResetEpoch(epoch uint64) {
	m.epoch = epoch
	m.mask = m.mask.Reset()
	m.leading = common.Hash{}
	m.hasLeading = false
	m.claims = [claims.MaxValidators]common.Hash{}
}
