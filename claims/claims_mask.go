// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package claims implements the per-epoch claims mask: which validator slots
// have claimed, which of them agree with the leading claim, and the set of
// slots that must agree for consensus.
package claims

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxValidators is the number of slots a Mask can track.
const MaxValidators = 8

// Mask layout, least significant bits first:
//
//	bits  0..7   claimed
//	bits  8..15  agreed
//	bits 16..23  consensus goal
//
// All remaining bits are always zero.
type Mask uint32

const (
	claimedShift = 0
	agreedShift  = 8
	goalShift    = 16
	slotBits     = 0xff
)

var (
	ErrValidatorSetTooLarge = errors.New("validator set too large")
	ErrInvalidSlot          = errors.New("invalid validator slot")
)

// NewWithConsensusGoal returns an empty mask whose consensus goal has the
// first numValidators slots set.
func NewWithConsensusGoal(numValidators int) (Mask, error) {
	if numValidators > MaxValidators {
		return 0, fmt.Errorf("%w: %d > %d", ErrValidatorSetTooLarge, numValidators, MaxValidators)
	}
	if numValidators < 0 {
		return 0, fmt.Errorf("negative validator count %d", numValidators)
	}
	goal := uint32(1)<<numValidators - 1
	return Mask(goal << goalShift), nil
}

func (m Mask) claimed() uint8 { return uint8(uint32(m) >> claimedShift & slotBits) }
func (m Mask) agreed() uint8  { return uint8(uint32(m) >> agreedShift & slotBits) }
func (m Mask) goal() uint8    { return uint8(uint32(m) >> goalShift & slotBits) }

func (m Mask) checkSlot(slot int) error {
	if slot < 0 || slot >= MaxValidators || m.goal()&(1<<slot) == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return nil
}

// SetClaim records a claim for slot. The agreed bit is set only when the
// claim matches the leading claim; the first claim of an epoch always does.
func (m Mask) SetClaim(slot int, matchesLeading bool) (Mask, error) {
	if err := m.checkSlot(slot); err != nil {
		return m, err
	}
	next := uint32(m) | 1<<(claimedShift+slot)
	if matchesLeading {
		next |= 1 << (agreedShift + slot)
	}
	return Mask(next), nil
}

func (m Mask) Claimed(slot int) bool {
	return slot >= 0 && slot < MaxValidators && m.claimed()&(1<<slot) != 0
}

func (m Mask) Agreed(slot int) bool {
	return slot >= 0 && slot < MaxValidators && m.agreed()&(1<<slot) != 0
}

func (m Mask) NumClaims() int {
	return bits.OnesCount8(m.claimed())
}

func (m Mask) NumAgreements() int {
	return bits.OnesCount8(m.agreed())
}

// NumValidators is the size of the consensus goal.
func (m Mask) NumValidators() int {
	return bits.OnesCount8(m.goal())
}

// ConsensusReached is true once every slot of the goal agrees. An empty goal
// never reaches consensus.
func (m Mask) ConsensusReached() bool {
	return m.goal() != 0 && m.agreed() == m.goal()
}

// AllClaimed is true once every slot of the goal has claimed, agreeing or not.
func (m Mask) AllClaimed() bool {
	return m.goal() != 0 && m.claimed() == m.goal()
}

// AgreedSlots lists agreeing slots in ascending order.
func (m Mask) AgreedSlots() []int {
	var slots []int
	agreed := m.agreed()
	for agreed != 0 {
		slot := bits.TrailingZeros8(agreed)
		slots = append(slots, slot)
		agreed &^= 1 << slot
	}
	return slots
}

// Reset clears claims and agreements while keeping the consensus goal.
func (m Mask) Reset() Mask {
	return Mask(uint32(m.goal()) << goalShift)
}

func (m Mask) String() string {
	return fmt.Sprintf("claims{claimed=%08b agreed=%08b goal=%08b}", m.claimed(), m.agreed(), m.goal())
}
