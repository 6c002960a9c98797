// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package fees

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Ledger is an in-process TokenTransferer that records payouts per token and
// recipient. It backs deployments where rewards are settled off-engine.
// Payouts are confirmed as soon as they are submitted.
type Ledger struct {
	mutex     sync.Mutex
	paid      map[common.Address]map[common.Address]*uint256.Int
	refs      map[common.Hash]struct{}
	transfers uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		paid: make(map[common.Address]map[common.Address]*uint256.Int),
		refs: make(map[common.Hash]struct{}),
	}
}

func (l *Ledger) Transfer(ctx context.Context, token, to common.Address, amount *uint256.Int) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	if amount == nil || amount.IsZero() {
		return common.Hash{}, errors.New("zero transfer")
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	byRecipient, ok := l.paid[token]
	if !ok {
		byRecipient = make(map[common.Address]*uint256.Int)
		l.paid[token] = byRecipient
	}
	current, ok := byRecipient[to]
	if !ok {
		current = new(uint256.Int)
	}
	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return common.Hash{}, ErrBalanceOverflow
	}
	byRecipient[to] = next
	l.transfers++
	ref := crypto.Keccak256Hash(token.Bytes(), to.Bytes(), binary.BigEndian.AppendUint64(nil, l.transfers))
	l.refs[ref] = struct{}{}
	return ref, nil
}

func (l *Ledger) Status(ctx context.Context, ref common.Hash) (PayoutStatus, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if _, ok := l.refs[ref]; !ok {
		return PayoutPending, fmt.Errorf("%w: %v", ErrUnknownPayout, ref)
	}
	return PayoutConfirmed, nil
}

// Paid returns the total amount of token transferred to account.
func (l *Ledger) Paid(token, account common.Address) *uint256.Int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if bal, ok := l.paid[token][account]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

func (l *Ledger) Transfers() uint64 {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.transfers
}
