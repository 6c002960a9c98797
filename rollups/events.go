// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

type EventKind string

const (
	EventInputAdded          EventKind = "inputAdded"
	EventPhaseChanged        EventKind = "phaseChanged"
	EventClaimAccepted       EventKind = "claimAccepted"
	EventConsensusReached    EventKind = "consensusReached"
	EventDisputeEntered      EventKind = "disputeEntered"
	EventDisputeResolved     EventKind = "disputeResolved"
	EventFeesCredited        EventKind = "feesCredited"
	EventWithdrawalExecuted  EventKind = "withdrawalExecuted"
	EventWithdrawalConfirmed EventKind = "withdrawalConfirmed"
	EventWithdrawalReverted  EventKind = "withdrawalReverted"
	EventFeesConfigured      EventKind = "feesConfigured"
	EventRewardsDeposited    EventKind = "rewardsDeposited"
)

// Event is published for every state change, after the change is persisted.
// Fields not relevant to the kind are left empty.
type Event struct {
	Kind  EventKind      `json:"kind"`
	Epoch hexutil.Uint64 `json:"epoch"`

	// Validator is the claimant, the challenger of a dispute, or the
	// withdrawing account.
	Validator  *common.Address  `json:"validator,omitempty"`
	Validators []common.Address `json:"validators,omitempty"`
	Claim      *common.Hash     `json:"claim,omitempty"`
	// LeadingClaim is set on claimAccepted and disputeEntered.
	LeadingClaim *common.Hash `json:"leadingClaim,omitempty"`
	Result       string       `json:"result,omitempty"`

	From *Phase `json:"from,omitempty"`
	To   *Phase `json:"to,omitempty"`

	Amount *hexutil.Big    `json:"amount,omitempty"`
	Token  *common.Address `json:"token,omitempty"`
	// Payout references the token transfer of a withdrawal.
	Payout *common.Hash `json:"payout,omitempty"`

	InputIndex *hexutil.Uint64 `json:"inputIndex,omitempty"`
	InputHash  *common.Hash    `json:"inputHash,omitempty"`
	Sender     *common.Address `json:"sender,omitempty"`

	// Timeout marks an epoch finalized because the challenge period ran out.
	Timeout bool   `json:"timeout,omitempty"`
	Time    uint64 `json:"time"`
}

func addrPtr(a common.Address) *common.Address { return &a }
func hashPtr(h common.Hash) *common.Hash       { return &h }
func phasePtr(p Phase) *Phase                  { return &p }

func bigAmount(x *uint256.Int) *hexutil.Big {
	if x == nil {
		return nil
	}
	return (*hexutil.Big)(x.ToBig())
}
