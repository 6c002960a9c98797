// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package fees credits validators a fixed fee per accepted claim and pays the
// accumulated balances out in the configured reward token.
package fees

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientFunds   = errors.New("insufficient reward funds")
	ErrTransferFailed      = errors.New("token transfer failed")
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrUnknownPayout       = errors.New("unknown payout")
)

type PayoutStatus uint8

const (
	PayoutPending PayoutStatus = iota
	PayoutConfirmed
	PayoutReverted
)

func (s PayoutStatus) String() string {
	switch s {
	case PayoutPending:
		return "pending"
	case PayoutConfirmed:
		return "confirmed"
	case PayoutReverted:
		return "reverted"
	default:
		return fmt.Sprintf("PayoutStatus(%d)", uint8(s))
	}
}

// TokenTransferer moves reward tokens out of the fee manager's account.
// Transfer submits a payout and returns a reference to it; an error means
// nothing was submitted and no value will move. A submitted payout is final
// once Status reports it confirmed or reverted.
type TokenTransferer interface {
	Transfer(ctx context.Context, token, to common.Address, amount *uint256.Int) (common.Hash, error)
	Status(ctx context.Context, ref common.Hash) (PayoutStatus, error)
}

// Payout is a submitted withdrawal whose outcome is not known yet.
type Payout struct {
	Ref     common.Hash
	Account common.Address
	Amount  *uint256.Int
}

func (p Payout) clone() Payout {
	p.Amount = new(uint256.Int).Set(p.Amount)
	return p
}

// Manager is not thread safe; the phase engine serialises access to it.
type Manager struct {
	owner       common.Address
	token       common.Address
	feePerClaim *uint256.Int
	pool        *uint256.Int
	balances    map[common.Address]*uint256.Int
	pending     []Payout
	transferer  TokenTransferer
}

func NewManager(owner, token common.Address, feePerClaim *uint256.Int, transferer TokenTransferer) (*Manager, error) {
	if owner == (common.Address{}) {
		return nil, errors.New("fee manager owner not set")
	}
	if transferer == nil {
		return nil, errors.New("no token transferer")
	}
	fee := new(uint256.Int)
	if feePerClaim != nil {
		fee.Set(feePerClaim)
	}
	return &Manager{
		owner:       owner,
		token:       token,
		feePerClaim: fee,
		pool:        new(uint256.Int),
		balances:    make(map[common.Address]*uint256.Int),
		transferer:  transferer,
	}, nil
}

func (m *Manager) Owner() common.Address { return m.owner }
func (m *Manager) Token() common.Address { return m.token }

func (m *Manager) FeePerClaim() *uint256.Int {
	return new(uint256.Int).Set(m.feePerClaim)
}

// Pool is the amount of reward token deposited and not yet withdrawn.
func (m *Manager) Pool() *uint256.Int {
	return new(uint256.Int).Set(m.pool)
}

func (m *Manager) BalanceOf(account common.Address) *uint256.Int {
	if bal, ok := m.balances[account]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Configure replaces the fee and the reward token. Only the owner may call it.
func (m *Manager) Configure(caller common.Address, feePerClaim *uint256.Int, token common.Address) error {
	if caller != m.owner {
		return fmt.Errorf("%w: %v is not the fee owner", ErrUnauthorized, caller)
	}
	if feePerClaim == nil {
		return errors.New("fee per claim not set")
	}
	m.feePerClaim = new(uint256.Int).Set(feePerClaim)
	m.token = token
	return nil
}

// Deposit grows the reward pool by an amount the deposit bridge delivered.
func (m *Manager) Deposit(amount *uint256.Int) error {
	pool, overflow := new(uint256.Int).AddOverflow(m.pool, amount)
	if overflow {
		return ErrBalanceOverflow
	}
	m.pool = pool
	return nil
}

// CreditValidators adds feePerClaim to each account's balance and returns the
// total credited. Either every account is credited or none is.
func (m *Manager) CreditValidators(accounts []common.Address) (*uint256.Int, error) {
	updated := make(map[common.Address]*uint256.Int, len(accounts))
	total := new(uint256.Int)
	for _, account := range accounts {
		current, ok := updated[account]
		if !ok {
			current = m.BalanceOf(account)
		}
		next, overflow := new(uint256.Int).AddOverflow(current, m.feePerClaim)
		if overflow {
			return nil, fmt.Errorf("%w: %v", ErrBalanceOverflow, account)
		}
		updated[account] = next
		if _, overflow = total.AddOverflow(total, m.feePerClaim); overflow {
			return nil, ErrBalanceOverflow
		}
	}
	for account, bal := range updated {
		if bal.IsZero() {
			continue
		}
		m.balances[account] = bal
	}
	return total, nil
}

// Withdraw submits a payout of the account's full balance. The balance and
// the pool are zeroed and commit is called before any value moves; if commit
// fails or the transfer cannot be submitted both are restored. Once submitted
// the payout is pending and the balance stays zeroed until SettlePayout
// learns it reverted.
func (m *Manager) Withdraw(ctx context.Context, account common.Address, commit func() error) (*Payout, error) {
	bal, ok := m.balances[account]
	if !ok || bal.IsZero() {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientBalance, account)
	}
	if m.pool.Lt(bal) {
		return nil, fmt.Errorf("%w: pool %v, owed %v", ErrInsufficientFunds, m.pool, bal)
	}
	amount := new(uint256.Int).Set(bal)
	prevPool := m.pool
	m.pool = new(uint256.Int).Sub(m.pool, amount)
	delete(m.balances, account)
	rollback := func() {
		m.balances[account] = new(uint256.Int).Set(amount)
		m.pool = prevPool
	}
	if commit != nil {
		if err := commit(); err != nil {
			rollback()
			return nil, err
		}
	}
	ref, err := m.transferer.Transfer(ctx, m.token, account, amount)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	payout := Payout{Ref: ref, Account: account, Amount: amount}
	m.pending = append(m.pending, payout)
	submitted := payout.clone()
	return &submitted, nil
}

// PendingPayouts returns the submitted payouts in submission order.
func (m *Manager) PendingPayouts() []Payout {
	payouts := make([]Payout, len(m.pending))
	for i, payout := range m.pending {
		payouts[i] = payout.clone()
	}
	return payouts
}

// PayoutStatus asks the transferer about a submitted payout. It reads no
// manager state and may be called without the caller's lock.
func (m *Manager) PayoutStatus(ctx context.Context, ref common.Hash) (PayoutStatus, error) {
	return m.transferer.Status(ctx, ref)
}

// SettlePayout applies the final status of a pending payout. A confirmed
// payout is forgotten; a reverted one is credited back to its account and
// the pool.
func (m *Manager) SettlePayout(ref common.Hash, status PayoutStatus) (*Payout, error) {
	idx := -1
	for i, payout := range m.pending {
		if payout.Ref == ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownPayout, ref)
	}
	payout := m.pending[idx]
	switch status {
	case PayoutConfirmed:
	case PayoutReverted:
		bal, overflow := new(uint256.Int).AddOverflow(m.BalanceOf(payout.Account), payout.Amount)
		if overflow {
			return nil, fmt.Errorf("%w: %v", ErrBalanceOverflow, payout.Account)
		}
		pool, overflow := new(uint256.Int).AddOverflow(m.pool, payout.Amount)
		if overflow {
			return nil, ErrBalanceOverflow
		}
		m.balances[payout.Account] = bal
		m.pool = pool
	default:
		return nil, fmt.Errorf("payout %v is still %v", ref, status)
	}
	remaining := make([]Payout, 0, len(m.pending)-1)
	remaining = append(remaining, m.pending[:idx]...)
	m.pending = append(remaining, m.pending[idx+1:]...)
	settled := payout.clone()
	return &settled, nil
}

// Snapshot is the persisted form of a Manager. Accounts are sorted so equal
// state always encodes identically.
type Snapshot struct {
	Owner       common.Address
	Token       common.Address
	FeePerClaim *uint256.Int
	Pool        *uint256.Int
	Accounts    []common.Address
	Balances    []*uint256.Int
	Pending     []Payout
}

func (m *Manager) Snapshot() Snapshot {
	accounts := make([]common.Address, 0, len(m.balances))
	for account := range m.balances {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Cmp(accounts[j]) < 0
	})
	balances := make([]*uint256.Int, len(accounts))
	for i, account := range accounts {
		balances[i] = new(uint256.Int).Set(m.balances[account])
	}
	return Snapshot{
		Owner:       m.owner,
		Token:       m.token,
		FeePerClaim: m.FeePerClaim(),
		Pool:        m.Pool(),
		Accounts:    accounts,
		Balances:    balances,
		Pending:     m.PendingPayouts(),
	}
}

// Restore overwrites the manager's state. The owner is part of the snapshot.
func (m *Manager) Restore(s Snapshot) error {
	if len(s.Accounts) != len(s.Balances) {
		return fmt.Errorf("snapshot has %d accounts and %d balances", len(s.Accounts), len(s.Balances))
	}
	if s.Owner == (common.Address{}) {
		return errors.New("snapshot has no fee owner")
	}
	balances := make(map[common.Address]*uint256.Int, len(s.Accounts))
	for i, account := range s.Accounts {
		if s.Balances[i] == nil || s.Balances[i].IsZero() {
			continue
		}
		balances[account] = new(uint256.Int).Set(s.Balances[i])
	}
	pending := make([]Payout, 0, len(s.Pending))
	for _, payout := range s.Pending {
		if payout.Amount == nil {
			return fmt.Errorf("snapshot payout %v has no amount", payout.Ref)
		}
		pending = append(pending, payout.clone())
	}
	m.owner = s.Owner
	m.token = s.Token
	m.feePerClaim = new(uint256.Int)
	if s.FeePerClaim != nil {
		m.feePerClaim.Set(s.FeePerClaim)
	}
	m.pool = new(uint256.Int)
	if s.Pool != nil {
		m.pool.Set(s.Pool)
	}
	m.balances = balances
	m.pending = pending
	return nil
}
