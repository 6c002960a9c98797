// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

// Package rollups drives the epoch phase machine: inputs accumulate for a
// fixed duration, validators then claim the epoch's result, and the epoch is
// finalized once every validator agrees or an arbitrator settles a dispute.
package rollups

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/rollups-consensus/fees"
	"github.com/offchainlabs/rollups-consensus/inbox"
	"github.com/offchainlabs/rollups-consensus/storage"
	"github.com/offchainlabs/rollups-consensus/util/fsm"
	"github.com/offchainlabs/rollups-consensus/validators"
)

type Option func(*Engine)

// WithClock replaces time.Now as the engine's source of time.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// Engine is safe for concurrent use. Every operation runs under a single
// mutex, so operations are applied one at a time in the order they acquire
// it. An operation that fails leaves the engine and its persisted state as
// they were.
type Engine struct {
	mutex sync.Mutex
	// emitMutex is taken before mutex is released so events go out in the
	// order their changes were applied.
	emitMutex sync.Mutex

	params  *Params
	clock   func() time.Time
	store   storage.Store
	inbox   *inbox.Inbox
	history *history

	phases     *fsm.Fsm[phaseTransition, Phase]
	validators *validators.Manager
	fees       *fees.Manager

	inputAccumulationStart time.Time
	sealedAt               time.Time
	firstClaimAt           time.Time
	disputeStart           time.Time
	// inputs bound to the open epoch, and to the one after it while the
	// open epoch is sealed
	numInputs     uint64
	nextNumInputs uint64

	// lastPersisted is the encoded state storage is known to hold.
	lastPersisted []byte

	feed event.Feed
}

// NewEngine creates an engine backed by store. If store holds the state of a
// previous run it is resumed; its validator set must match params.
func NewEngine(params *Params, store storage.Store, transferer fees.TokenTransferer, opts ...Option) (*Engine, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: no parameters", ErrInvalidConfiguration)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("no storage")
	}
	e := &Engine{
		params: params,
		clock:  time.Now,
		store:  store,
		inbox:  inbox.New(store, params.MaxInputSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	var err error
	if e.history, err = newHistory(store, params.HistorySize); err != nil {
		return nil, err
	}
	if e.validators, err = validators.NewManager(params.Validators); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if e.fees, err = fees.NewManager(params.FeeOwner, params.FeeToken, params.FeePerClaim, transferer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if e.phases, err = newPhaseMachine(InputAccumulation); err != nil {
		return nil, err
	}

	data, err := store.Get(stateKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		e.inputAccumulationStart = e.clock()
		if err := e.persist(); err != nil {
			return nil, fmt.Errorf("persisting initial state: %w", err)
		}
		log.Info("initialized rollups engine", "validators", len(params.Validators), "inputDuration", params.InputDuration, "challengePeriod", params.ChallengePeriod)
	case err != nil:
		return nil, fmt.Errorf("loading engine state: %w", err)
	default:
		state, err := decodeState(data)
		if err != nil {
			return nil, err
		}
		if err := e.restoreState(state); err != nil {
			return nil, err
		}
		e.lastPersisted = data
		warnFeeOverrides(configuredFeeSettings(params), persistedFeeSettings(e.fees))
		log.Info("resumed rollups engine", "epoch", e.validators.Epoch(), "phase", e.phase())
	}
	return e, nil
}

func (e *Engine) phase() Phase {
	return e.phases.Current().State
}

func (e *Engine) snapshotState() *engineState {
	return &engineState{
		Version:                stateVersion,
		Phase:                  uint8(e.phase()),
		InputAccumulationStart: encodeTime(e.inputAccumulationStart),
		SealedAt:               encodeTime(e.sealedAt),
		FirstClaimAt:           encodeTime(e.firstClaimAt),
		DisputeStart:           encodeTime(e.disputeStart),
		NumInputs:              e.numInputs,
		NextNumInputs:          e.nextNumInputs,
		Validators:             e.validators.Snapshot(),
		Fees:                   e.fees.Snapshot(),
	}
}

func (e *Engine) restoreState(s *engineState) error {
	if len(s.Validators.Validators) != len(e.params.Validators) {
		return fmt.Errorf("%w: stored validator set has %d members, configured %d", ErrInvalidConfiguration, len(s.Validators.Validators), len(e.params.Validators))
	}
	for i, v := range s.Validators.Validators {
		if v != e.params.Validators[i] {
			return fmt.Errorf("%w: stored validator %d is %v, configured %v", ErrInvalidConfiguration, i, v, e.params.Validators[i])
		}
	}
	if err := e.validators.Restore(s.Validators); err != nil {
		return err
	}
	if err := e.fees.Restore(s.Fees); err != nil {
		return err
	}
	e.phases.Reset(Phase(s.Phase))
	e.inputAccumulationStart = decodeTime(s.InputAccumulationStart)
	e.sealedAt = decodeTime(s.SealedAt)
	e.firstClaimAt = decodeTime(s.FirstClaimAt)
	e.disputeStart = decodeTime(s.DisputeStart)
	e.numInputs = s.NumInputs
	e.nextNumInputs = s.NextNumInputs
	return nil
}

// persist writes the engine state unless storage already holds it.
func (e *Engine) persist() error {
	encoded, err := encodeState(e.snapshotState())
	if err != nil {
		return err
	}
	if bytes.Equal(encoded, e.lastPersisted) {
		return nil
	}
	if err := e.store.Put(stateKey, encoded); err != nil {
		return err
	}
	e.lastPersisted = encoded
	return nil
}

// pending collects the side effects of an operation in progress.
type pending struct {
	events []Event
	// undo reverts writes made outside the engine state, newest last.
	undo    []func() error
	records []*EpochRecord
	// persisted is set once the operation wrote engine state mid-flight.
	persisted bool
	// irreversible is set once value has left the engine; from then on the
	// in-memory state is kept even if it cannot be written.
	irreversible bool
}

func (p *pending) emit(ev Event) {
	p.events = append(p.events, ev)
}

// apply runs fn and persists the result. On failure every change fn made is
// reverted, in memory and in storage. Must be called with mutex held.
func (e *Engine) apply(fn func(now time.Time, p *pending) error) ([]Event, error) {
	before := e.snapshotState()
	p := &pending{}
	err := fn(e.clock(), p)
	if err == nil {
		err = e.persist()
		if err != nil && p.irreversible {
			log.Error("failed to persist engine state after a payout was submitted, retrying on the next operation", "err", err)
			err = nil
		}
	}
	if err != nil {
		for i := len(p.undo) - 1; i >= 0; i-- {
			if undoErr := p.undo[i](); undoErr != nil {
				log.Error("failed to revert write of failed operation", "err", undoErr)
			}
		}
		if restoreErr := e.restoreState(before); restoreErr != nil {
			log.Error("failed to restore engine state", "err", restoreErr)
		}
		if p.persisted {
			if persistErr := e.persist(); persistErr != nil {
				log.Error("failed to persist restored engine state", "err", persistErr)
			}
		}
		return nil, err
	}
	for _, record := range p.records {
		e.history.remember(record)
	}
	return p.events, nil
}

// update applies fn and publishes its events once the engine is unlocked.
func (e *Engine) update(fn func(now time.Time, p *pending) error) error {
	e.mutex.Lock()
	events, err := e.apply(fn)
	if err != nil || len(events) == 0 {
		e.mutex.Unlock()
		return err
	}
	e.emitMutex.Lock()
	e.mutex.Unlock()
	defer e.emitMutex.Unlock()
	recordMetrics(events)
	for _, ev := range events {
		e.feed.Send(ev)
	}
	return nil
}

type ClaimResult struct {
	Result       string           `json:"result"`
	Epoch        uint64           `json:"epoch"`
	LeadingClaim common.Hash      `json:"leadingClaim"`
	Credited     []common.Address `json:"credited,omitempty"`
	Phase        Phase            `json:"phase"`
}

// SubmitClaim records claimant's claim for epoch. Claims are only accepted
// while the engine is AwaitingConsensus. The first claim of an epoch becomes
// the leading claim; a claim that disagrees with it opens a dispute, and the
// epoch is finalized as soon as every validator agrees with it.
func (e *Engine) SubmitClaim(claimant common.Address, epoch uint64, claim common.Hash) (*ClaimResult, error) {
	var result *ClaimResult
	err := e.update(func(now time.Time, p *pending) error {
		if phase := e.phase(); phase != AwaitingConsensus {
			return fmt.Errorf("%w: claims need %v, engine is in %v", ErrPhaseMismatch, AwaitingConsensus, phase)
		}
		outcome, err := e.validators.OnClaim(epoch, claim, claimant)
		if err != nil {
			return err
		}
		if outcome.FirstClaim {
			e.firstClaimAt = now
		}
		p.emit(Event{
			Kind:         EventClaimAccepted,
			Epoch:        hexutil.Uint64(epoch),
			Validator:    addrPtr(claimant),
			Claim:        hashPtr(claim),
			LeadingClaim: hashPtr(outcome.LeadingClaim),
			Result:       outcome.Result.String(),
			Time:         uint64(now.Unix()),
		})
		log.Debug("claim accepted", "epoch", epoch, "validator", claimant, "claim", claim, "result", outcome.Result)
		switch outcome.Result {
		case validators.ConsensusReached:
			if err := e.finalize(now, p, finalizeEpoch, outcome.LeadingClaim, outcome.Credited, false, false); err != nil {
				return err
			}
		case validators.Conflict:
			if err := e.phases.Do(raiseDispute); err != nil {
				return err
			}
			e.disputeStart = now
			p.emit(Event{
				Kind:         EventDisputeEntered,
				Epoch:        hexutil.Uint64(epoch),
				Validator:    addrPtr(outcome.Challenger),
				Claim:        hashPtr(claim),
				LeadingClaim: hashPtr(outcome.LeadingClaim),
				Time:         uint64(now.Unix()),
			})
			p.emit(phaseChanged(epoch, AwaitingConsensus, AwaitingDispute, now))
			log.Warn("dispute entered", "epoch", epoch, "challenger", outcome.Challenger, "claim", claim, "leading", outcome.LeadingClaim)
		}
		result = &ClaimResult{
			Result:       outcome.Result.String(),
			Epoch:        epoch,
			LeadingClaim: outcome.LeadingClaim,
			Credited:     outcome.Credited,
			Phase:        e.phase(),
		}
		return nil
	})
	return result, err
}

// finalize credits the given validators, records the epoch, and opens the
// next one.
func (e *Engine) finalize(now time.Time, p *pending, transition phaseTransition, claim common.Hash, credited []common.Address, disputed, timeout bool) error {
	epoch := e.validators.Epoch()
	from := e.phase()
	total, err := e.fees.CreditValidators(credited)
	if err != nil {
		return err
	}
	record := &EpochRecord{
		Epoch:       epoch,
		Claim:       claim,
		Validators:  credited,
		Inputs:      e.numInputs,
		Disputed:    disputed,
		Timeout:     timeout,
		FinalizedAt: uint64(now.Unix()),
	}
	if err := e.history.write(record); err != nil {
		return err
	}
	p.undo = append(p.undo, func() error { return e.history.remove(epoch) })
	p.records = append(p.records, record)
	if err := e.phases.Do(transition); err != nil {
		return err
	}
	e.validators.ResetEpoch(epoch + 1)
	e.numInputs, e.nextNumInputs = e.nextNumInputs, 0
	e.inputAccumulationStart = now
	e.sealedAt = time.Time{}
	e.firstClaimAt = time.Time{}
	e.disputeStart = time.Time{}

	kind := EventConsensusReached
	if disputed {
		kind = EventDisputeResolved
	}
	p.emit(Event{
		Kind:       kind,
		Epoch:      hexutil.Uint64(epoch),
		Claim:      hashPtr(claim),
		Validators: credited,
		Timeout:    timeout,
		Time:       uint64(now.Unix()),
	})
	p.emit(Event{
		Kind:       EventFeesCredited,
		Epoch:      hexutil.Uint64(epoch),
		Validators: credited,
		Amount:     bigAmount(total),
		Token:      addrPtr(e.fees.Token()),
		Time:       uint64(now.Unix()),
	})
	p.emit(phaseChanged(epoch+1, from, InputAccumulation, now))
	log.Info("epoch finalized", "epoch", epoch, "claim", claim, "credited", len(credited), "disputed", disputed, "timeout", timeout)
	return nil
}

func phaseChanged(epoch uint64, from, to Phase, now time.Time) Event {
	return Event{
		Kind:  EventPhaseChanged,
		Epoch: hexutil.Uint64(epoch),
		From:  phasePtr(from),
		To:    phasePtr(to),
		Time:  uint64(now.Unix()),
	}
}

// AdvancePhase moves the engine forward if enough time has passed, and
// returns the resulting phase. Anyone may call it; with nothing due it does
// nothing. A dispute left open past the challenge period is reported with
// ErrDisputeUnresolved and stays open.
func (e *Engine) AdvancePhase() (Phase, error) {
	var phase Phase
	err := e.update(func(now time.Time, p *pending) error {
		phase = e.phase()
		epoch := e.validators.Epoch()
		switch phase {
		case InputAccumulation:
			if now.Sub(e.inputAccumulationStart) < e.params.InputDuration {
				return nil
			}
			if err := e.phases.Do(sealInputs); err != nil {
				return err
			}
			e.sealedAt = now
			p.emit(phaseChanged(epoch, InputAccumulation, AwaitingConsensus, now))
			log.Info("inputs sealed", "epoch", epoch, "inputs", e.numInputs)
		case AwaitingConsensus:
			if !e.params.FinalizeOnTimeout || e.firstClaimAt.IsZero() || now.Sub(e.firstClaimAt) < e.params.ChallengePeriod {
				return nil
			}
			leading, _ := e.validators.LeadingClaim()
			if err := e.finalize(now, p, finalizeEpoch, leading, e.validators.Agreeing(), false, true); err != nil {
				return err
			}
		case AwaitingDispute:
			if now.Sub(e.disputeStart) >= e.params.ChallengePeriod {
				return fmt.Errorf("%w: epoch %d disputed since %v", ErrDisputeUnresolved, epoch, e.disputeStart.UTC().Format(time.RFC3339))
			}
		}
		phase = e.phase()
		return nil
	})
	return phase, err
}

// ResolveDispute settles an open dispute in favour of claim. Only the
// arbitrator may call it, and every listed validator must have submitted
// exactly claim this epoch. The listed validators are credited and the epoch
// is finalized.
func (e *Engine) ResolveDispute(caller common.Address, claim common.Hash, winners []common.Address) error {
	return e.update(func(now time.Time, p *pending) error {
		if e.params.Arbitrator == (common.Address{}) || caller != e.params.Arbitrator {
			return fmt.Errorf("%w: %v is not the arbitrator", ErrUnauthorized, caller)
		}
		if phase := e.phase(); phase != AwaitingDispute {
			return fmt.Errorf("%w: resolution needs %v, engine is in %v", ErrPhaseMismatch, AwaitingDispute, phase)
		}
		if len(winners) == 0 {
			return fmt.Errorf("%w: no validators", ErrInvalidResolution)
		}
		listed := make(map[common.Address]bool, len(winners))
		for _, v := range winners {
			if listed[v] {
				return fmt.Errorf("%w: %v listed twice", ErrInvalidResolution, v)
			}
			listed[v] = true
			submitted, ok := e.validators.ClaimOf(v)
			if !ok {
				return fmt.Errorf("%w: %v has no claim this epoch", ErrInvalidResolution, v)
			}
			if submitted != claim {
				return fmt.Errorf("%w: %v claimed %v", ErrInvalidResolution, v, submitted)
			}
		}
		var credited []common.Address
		for _, v := range e.validators.ClaimedBy(claim) {
			if listed[v] {
				credited = append(credited, v)
			}
		}
		return e.finalize(now, p, resolveDispute, claim, credited, true, false)
	})
}

type InputReceipt struct {
	Epoch uint64      `json:"epoch"`
	Index uint64      `json:"index"`
	Hash  common.Hash `json:"hash"`
}

// AddInput stores an input. While inputs are accumulating it joins the open
// epoch; once that epoch is sealed it joins the next one.
func (e *Engine) AddInput(sender common.Address, payload []byte) (*InputReceipt, error) {
	var receipt *InputReceipt
	err := e.update(func(now time.Time, p *pending) error {
		input := &inbox.Input{
			Sender:    sender,
			Timestamp: uint64(now.Unix()),
			Payload:   append([]byte{}, payload...),
		}
		if err := e.inbox.Check(input); err != nil {
			return err
		}
		epoch, counter := e.validators.Epoch(), &e.numInputs
		if e.phase() != InputAccumulation {
			epoch, counter = epoch+1, &e.nextNumInputs
		}
		index := *counter
		hash, err := e.inbox.Put(epoch, index, input)
		if err != nil {
			return err
		}
		p.undo = append(p.undo, func() error { return e.inbox.Remove(epoch, index) })
		*counter++
		idx := hexutil.Uint64(index)
		p.emit(Event{
			Kind:       EventInputAdded,
			Epoch:      hexutil.Uint64(epoch),
			InputIndex: &idx,
			InputHash:  hashPtr(hash),
			Sender:     addrPtr(sender),
			Time:       uint64(now.Unix()),
		})
		receipt = &InputReceipt{Epoch: epoch, Index: index, Hash: hash}
		return nil
	})
	return receipt, err
}

// Withdraw submits a payout of account's full reward balance. The zeroed
// balance is persisted before the transfer is submitted and restored if
// submission fails. A submitted payout stays pending until SettlePayouts
// sees it confirmed or reverted.
func (e *Engine) Withdraw(ctx context.Context, account common.Address) (*fees.Payout, error) {
	var payout *fees.Payout
	err := e.update(func(now time.Time, p *pending) error {
		var err error
		payout, err = e.fees.Withdraw(ctx, account, func() error {
			p.persisted = true
			return e.persist()
		})
		if err != nil {
			return err
		}
		p.irreversible = true
		p.emit(Event{
			Kind:      EventWithdrawalExecuted,
			Epoch:     hexutil.Uint64(e.validators.Epoch()),
			Validator: addrPtr(account),
			Amount:    bigAmount(payout.Amount),
			Token:     addrPtr(e.fees.Token()),
			Payout:    hashPtr(payout.Ref),
			Time:      uint64(now.Unix()),
		})
		log.Info("reward withdrawal submitted", "account", account, "amount", payout.Amount, "payout", payout.Ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// SettlePayouts asks the token transferer about every pending payout.
// Confirmed payouts are dropped and reverted ones are credited back. The
// transferer is queried without holding the engine lock.
func (e *Engine) SettlePayouts(ctx context.Context) error {
	e.mutex.Lock()
	payouts := e.fees.PendingPayouts()
	e.mutex.Unlock()

	var errs []error
	for _, payout := range payouts {
		status, err := e.fees.PayoutStatus(ctx, payout.Ref)
		if err != nil {
			errs = append(errs, fmt.Errorf("payout %v: %w", payout.Ref, err))
			continue
		}
		if status == fees.PayoutPending {
			continue
		}
		err = e.update(func(now time.Time, p *pending) error {
			settled, err := e.fees.SettlePayout(payout.Ref, status)
			if err != nil {
				return err
			}
			kind := EventWithdrawalConfirmed
			if status == fees.PayoutReverted {
				kind = EventWithdrawalReverted
				log.Warn("reward payout reverted, balance restored", "account", settled.Account, "amount", settled.Amount, "payout", settled.Ref)
			} else {
				log.Info("reward payout confirmed", "account", settled.Account, "amount", settled.Amount, "payout", settled.Ref)
			}
			p.emit(Event{
				Kind:      kind,
				Epoch:     hexutil.Uint64(e.validators.Epoch()),
				Validator: addrPtr(settled.Account),
				Amount:    bigAmount(settled.Amount),
				Payout:    hashPtr(settled.Ref),
				Time:      uint64(now.Unix()),
			})
			return nil
		})
		if errors.Is(err, fees.ErrUnknownPayout) {
			// Settled by a concurrent call.
			continue
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) PendingPayouts() []fees.Payout {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.fees.PendingPayouts()
}

// ConfigureFees replaces the per-claim fee and reward token. Owner only.
func (e *Engine) ConfigureFees(caller common.Address, feePerClaim *uint256.Int, token common.Address) error {
	if feePerClaim == nil {
		return fmt.Errorf("%w: no fee", ErrInvalidAmount)
	}
	return e.update(func(now time.Time, p *pending) error {
		if err := e.fees.Configure(caller, feePerClaim, token); err != nil {
			return err
		}
		p.emit(Event{
			Kind:   EventFeesConfigured,
			Epoch:  hexutil.Uint64(e.validators.Epoch()),
			Sender: addrPtr(caller),
			Amount: bigAmount(feePerClaim),
			Token:  addrPtr(token),
			Time:   uint64(now.Unix()),
		})
		log.Info("fees configured", "feePerClaim", feePerClaim, "token", token)
		return nil
	})
}

// Depositor is the only address allowed to deposit rewards: the deposit
// bridge when one is configured, the fee owner otherwise.
func (e *Engine) Depositor() common.Address {
	if e.params.DepositBridge != (common.Address{}) {
		return e.params.DepositBridge
	}
	return e.fees.Owner()
}

// DepositRewards adds tokens delivered by the deposit bridge to the reward
// pool withdrawals are paid from.
func (e *Engine) DepositRewards(caller common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: zero deposit", ErrInvalidAmount)
	}
	return e.update(func(now time.Time, p *pending) error {
		if depositor := e.Depositor(); caller != depositor {
			return fmt.Errorf("%w: %v is not the depositor %v", ErrUnauthorized, caller, depositor)
		}
		if err := e.fees.Deposit(amount); err != nil {
			return err
		}
		p.emit(Event{
			Kind:   EventRewardsDeposited,
			Epoch:  hexutil.Uint64(e.validators.Epoch()),
			Sender: addrPtr(caller),
			Amount: bigAmount(amount),
			Token:  addrPtr(e.fees.Token()),
			Time:   uint64(now.Unix()),
		})
		return nil
	})
}

// SubscribeEvents delivers every published Event to ch. Sends block until
// every subscriber has received, so subscribers must keep up and must not
// call mutating engine methods from the receiving goroutine.
func (e *Engine) SubscribeEvents(ch chan<- Event) event.Subscription {
	return e.feed.Subscribe(ch)
}

func (e *Engine) Now() time.Time {
	return e.clock()
}

func (e *Engine) Params() Params {
	return *e.params
}

func (e *Engine) Phase() Phase {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.phase()
}

func (e *Engine) Epoch() uint64 {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.validators.Epoch()
}

func (e *Engine) Balance(account common.Address) *uint256.Int {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.fees.BalanceOf(account)
}

// GetEpoch returns the record of a finalized epoch.
func (e *Engine) GetEpoch(epoch uint64) (*EpochRecord, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.history.get(epoch)
}

func (e *Engine) GetInput(epoch, index uint64) (*inbox.Input, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.inbox.Get(epoch, index)
}

// NextDeadline is when AdvancePhase next has something to do. It returns
// false while the engine waits on claims or on nothing time based.
func (e *Engine) NextDeadline() (time.Time, bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.nextDeadline()
}

func (e *Engine) nextDeadline() (time.Time, bool) {
	switch e.phase() {
	case InputAccumulation:
		return e.inputAccumulationStart.Add(e.params.InputDuration), true
	case AwaitingConsensus:
		if e.params.FinalizeOnTimeout && !e.firstClaimAt.IsZero() {
			return e.firstClaimAt.Add(e.params.ChallengePeriod), true
		}
	case AwaitingDispute:
		return e.disputeStart.Add(e.params.ChallengePeriod), true
	}
	return time.Time{}, false
}
