// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package claims

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsensusNeedsEverySlot(t *testing.T) {
	for n := 1; n <= MaxValidators; n++ {
		m, err := NewWithConsensusGoal(n)
		require.NoError(t, err)
		require.False(t, m.ConsensusReached())
		require.Equal(t, n, m.NumValidators())
		for slot := 0; slot < n; slot++ {
			require.False(t, m.ConsensusReached(), "consensus after %d of %d claims", slot, n)
			m, err = m.SetClaim(slot, true)
			require.NoError(t, err)
		}
		require.True(t, m.ConsensusReached())
		require.True(t, m.AllClaimed())
		require.Equal(t, n, m.NumClaims())
		require.Equal(t, n, m.NumAgreements())
	}
}

func TestTooManyValidators(t *testing.T) {
	_, err := NewWithConsensusGoal(MaxValidators + 1)
	require.ErrorIs(t, err, ErrValidatorSetTooLarge)
	_, err = NewWithConsensusGoal(-1)
	require.Error(t, err)
}

func TestDisagreementBlocksConsensus(t *testing.T) {
	m, err := NewWithConsensusGoal(3)
	require.NoError(t, err)
	m, err = m.SetClaim(0, true)
	require.NoError(t, err)
	m, err = m.SetClaim(1, true)
	require.NoError(t, err)
	m, err = m.SetClaim(2, false)
	require.NoError(t, err)

	require.True(t, m.AllClaimed())
	require.False(t, m.ConsensusReached())
	require.Equal(t, 3, m.NumClaims())
	require.Equal(t, 2, m.NumAgreements())
	require.True(t, m.Claimed(2))
	require.False(t, m.Agreed(2))
	require.Equal(t, []int{0, 1}, m.AgreedSlots())
}

func TestSlotOutsideGoal(t *testing.T) {
	m, err := NewWithConsensusGoal(2)
	require.NoError(t, err)
	unchanged, err := m.SetClaim(2, true)
	require.ErrorIs(t, err, ErrInvalidSlot)
	require.Equal(t, m, unchanged)
	_, err = m.SetClaim(-1, true)
	require.ErrorIs(t, err, ErrInvalidSlot)
	_, err = m.SetClaim(MaxValidators, true)
	require.ErrorIs(t, err, ErrInvalidSlot)
}

func TestResetKeepsGoal(t *testing.T) {
	m, err := NewWithConsensusGoal(4)
	require.NoError(t, err)
	for slot := 0; slot < 4; slot++ {
		m, err = m.SetClaim(slot, slot%2 == 0)
		require.NoError(t, err)
	}
	fresh, err := NewWithConsensusGoal(4)
	require.NoError(t, err)
	require.Equal(t, fresh, m.Reset())
	require.Zero(t, m.Reset().NumClaims())
	require.Zero(t, m.Reset().NumAgreements())
}

func TestEmptyGoalNeverReachesConsensus(t *testing.T) {
	m, err := NewWithConsensusGoal(0)
	require.NoError(t, err)
	require.False(t, m.ConsensusReached())
	require.False(t, m.AllClaimed())
}
