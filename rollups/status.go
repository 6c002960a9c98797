// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type Status struct {
	Phase                  Phase            `json:"phase"`
	Epoch                  uint64           `json:"epoch"`
	InputAccumulationStart time.Time        `json:"inputAccumulationStart"`
	SealedAt               *time.Time       `json:"sealedAt,omitempty"`
	FirstClaimAt           *time.Time       `json:"firstClaimAt,omitempty"`
	DisputeStart           *time.Time       `json:"disputeStart,omitempty"`
	Deadline               *time.Time       `json:"deadline,omitempty"`
	NumInputs              uint64           `json:"numInputs"`
	PendingInputs          uint64           `json:"pendingInputs"`
	Validators             []common.Address `json:"validators"`
	NumClaims              int              `json:"numClaims"`
	NumAgreements          int              `json:"numAgreements"`
	ClaimsMask             string           `json:"claimsMask"`
	LeadingClaim           *common.Hash     `json:"leadingClaim,omitempty"`
	FeeOwner               common.Address   `json:"feeOwner"`
	FeeToken               common.Address   `json:"feeToken"`
	FeePerClaim            *hexutil.Big     `json:"feePerClaim"`
	RewardPool             *hexutil.Big     `json:"rewardPool"`
	Depositor              common.Address   `json:"depositor"`
	PendingPayouts         int              `json:"pendingPayouts"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (e *Engine) Status() *Status {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	deadline, hasDeadline := e.nextDeadline()
	mask := e.validators.Mask()
	status := &Status{
		Phase:                  e.phase(),
		Epoch:                  e.validators.Epoch(),
		InputAccumulationStart: e.inputAccumulationStart,
		SealedAt:               timePtr(e.sealedAt),
		FirstClaimAt:           timePtr(e.firstClaimAt),
		DisputeStart:           timePtr(e.disputeStart),
		NumInputs:              e.numInputs,
		PendingInputs:          e.nextNumInputs,
		Validators:             e.validators.Validators(),
		NumClaims:              mask.NumClaims(),
		NumAgreements:          mask.NumAgreements(),
		ClaimsMask:             mask.String(),
		FeeOwner:               e.fees.Owner(),
		FeeToken:               e.fees.Token(),
		FeePerClaim:            bigAmount(e.fees.FeePerClaim()),
		RewardPool:             bigAmount(e.fees.Pool()),
		Depositor:              e.Depositor(),
		PendingPayouts:         len(e.fees.PendingPayouts()),
	}
	if hasDeadline {
		status.Deadline = &deadline
	}
	if leading, ok := e.validators.LeadingClaim(); ok {
		status.LeadingClaim = &leading
	}
	return status
}
