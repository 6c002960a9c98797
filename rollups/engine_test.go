// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/rollups-consensus/fees"
	"github.com/offchainlabs/rollups-consensus/storage"
	"github.com/offchainlabs/rollups-consensus/util/testhelpers"
)

type testClock struct {
	mutex sync.Mutex
	now   time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store down")

// flakyStore fails writes on demand and counts the ones that succeed.
type flakyStore struct {
	storage.Store
	failPuts atomic.Bool
	puts     atomic.Int64
}

func (s *flakyStore) Put(key, value []byte) error {
	if s.failPuts.Load() {
		return errStoreDown
	}
	if err := s.Store.Put(key, value); err != nil {
		return err
	}
	s.puts.Add(1)
	return nil
}

// testTransferer pays through a ledger. It can refuse transfers, or hold
// them pending until the test settles them.
type testTransferer struct {
	*fees.Ledger
	fail atomic.Bool
	hold atomic.Bool
	// afterSubmit runs once a held transfer is submitted.
	afterSubmit func()

	mutex sync.Mutex
	held  map[common.Hash]fees.PayoutStatus
	sent  uint64
}

func newTestTransferer() *testTransferer {
	return &testTransferer{
		Ledger: fees.NewLedger(),
		held:   make(map[common.Hash]fees.PayoutStatus),
	}
}

func (f *testTransferer) Transfer(ctx context.Context, token, to common.Address, amount *uint256.Int) (common.Hash, error) {
	if f.fail.Load() {
		return common.Hash{}, errors.New("token paused")
	}
	if !f.hold.Load() {
		return f.Ledger.Transfer(ctx, token, to, amount)
	}
	f.mutex.Lock()
	f.sent++
	ref := common.Hash(uint256.NewInt(f.sent).Bytes32())
	f.held[ref] = fees.PayoutPending
	f.mutex.Unlock()
	if f.afterSubmit != nil {
		f.afterSubmit()
	}
	return ref, nil
}

func (f *testTransferer) Status(ctx context.Context, ref common.Hash) (fees.PayoutStatus, error) {
	f.mutex.Lock()
	status, ok := f.held[ref]
	f.mutex.Unlock()
	if ok {
		return status, nil
	}
	return f.Ledger.Status(ctx, ref)
}

func (f *testTransferer) settle(ref common.Hash, status fees.PayoutStatus) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.held[ref] = status
}

const (
	testInputDuration   = time.Minute
	testChallengePeriod = 10 * time.Minute
)

var (
	testOwner      = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	testArbitrator = common.HexToAddress("0x00000000000000000000000000000000000000a0")
	testToken      = common.HexToAddress("0x00000000000000000000000000000000000000c0")
	testFee        = uint256.NewInt(100)

	claimA = common.HexToHash("0x01")
	claimB = common.HexToHash("0x02")
)

func testParams(t *testing.T, numValidators int) *Params {
	t.Helper()
	source := testhelpers.NewPseudoRandomDataSource(t, numValidators)
	return &Params{
		Validators:      source.GetAddresses(numValidators),
		InputDuration:   testInputDuration,
		ChallengePeriod: testChallengePeriod,
		Arbitrator:      testArbitrator,
		FeeOwner:        testOwner,
		FeePerClaim:     testFee,
		FeeToken:        testToken,
		MaxInputSize:    1024,
		HistorySize:     8,
	}
}

type testEngine struct {
	*Engine
	clock      *testClock
	store      *flakyStore
	ledger     *fees.Ledger
	transferer *testTransferer
	params     *Params
}

func newTestEngine(t *testing.T, params *Params) *testEngine {
	t.Helper()
	store := &flakyStore{Store: storage.NewMemoryStore()}
	return openTestEngine(t, params, store, newTestClock())
}

func openTestEngine(t *testing.T, params *Params, store *flakyStore, clock *testClock) *testEngine {
	t.Helper()
	return openTestEngineWith(t, params, store, clock, newTestTransferer())
}

func openTestEngineWith(t *testing.T, params *Params, store *flakyStore, clock *testClock, transferer *testTransferer) *testEngine {
	t.Helper()
	engine, err := NewEngine(params, store, transferer, WithClock(clock.Now))
	require.NoError(t, err)
	return &testEngine{
		Engine:     engine,
		clock:      clock,
		store:      store,
		ledger:     transferer.Ledger,
		transferer: transferer,
		params:     params,
	}
}

var bigComparer = cmp.Comparer(func(x, y *hexutil.Big) bool {
	if x == nil || y == nil {
		return x == y
	}
	return x.ToInt().Cmp(y.ToInt()) == 0
})

func statusDiff(x, y *Status) string {
	return cmp.Diff(x, y, bigComparer)
}

// seal moves the engine from InputAccumulation to AwaitingConsensus.
func (e *testEngine) seal(t *testing.T) {
	t.Helper()
	e.clock.Advance(e.params.InputDuration)
	phase, err := e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, AwaitingConsensus, phase)
}

func (e *testEngine) storedState(t *testing.T) []byte {
	t.Helper()
	data, err := e.store.Get(stateKey)
	require.NoError(t, err)
	return data
}

func TestAdvancePhaseWaitsForInputDuration(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	require.Equal(t, InputAccumulation, e.Phase())

	e.clock.Advance(testInputDuration - time.Second)
	phase, err := e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, InputAccumulation, phase)

	e.clock.Advance(time.Second)
	phase, err = e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, AwaitingConsensus, phase)

	// Nothing more is due until claims arrive.
	before := e.storedState(t)
	e.clock.Advance(time.Hour)
	phase, err = e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, AwaitingConsensus, phase)
	require.Equal(t, before, e.storedState(t))
}

func TestClaimOutsideClaimWindow(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	_, err := e.SubmitClaim(e.params.Validators[0], 0, claimA)
	require.ErrorIs(t, err, ErrPhaseMismatch)
}

func TestConsensusCreditsAllValidators(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	a, b := e.params.Validators[0], e.params.Validators[1]
	e.seal(t)

	res, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Result)
	require.Equal(t, AwaitingConsensus, res.Phase)

	res, err = e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)
	require.Equal(t, "consensus", res.Result)
	require.Equal(t, []common.Address{a, b}, res.Credited)
	require.Equal(t, InputAccumulation, res.Phase)

	require.Equal(t, testFee, e.Balance(a))
	require.Equal(t, testFee, e.Balance(b))
	require.Equal(t, uint64(1), e.Epoch())

	_, err = e.SubmitClaim(a, 0, claimA)
	require.ErrorIs(t, err, ErrPhaseMismatch)

	record, err := e.GetEpoch(0)
	require.NoError(t, err)
	require.Equal(t, claimA, record.Claim)
	require.Equal(t, []common.Address{a, b}, record.Validators)
	require.False(t, record.Disputed)

	_, err = e.GetEpoch(1)
	require.ErrorIs(t, err, ErrEpochNotFound)
}

func TestConsensusNeedsEveryValidator(t *testing.T) {
	for n := 1; n <= 8; n++ {
		e := newTestEngine(t, testParams(t, n))
		e.seal(t)
		for i, v := range e.params.Validators {
			res, err := e.SubmitClaim(v, 0, claimA)
			require.NoError(t, err)
			if i < n-1 {
				require.Equal(t, "accepted", res.Result, "validators %d claim %d", n, i)
				require.Equal(t, i+1, e.Status().NumAgreements)
			} else {
				require.Equal(t, "consensus", res.Result, "validators %d", n)
				require.Len(t, res.Credited, n)
			}
		}
	}
}

func TestConflictEntersDispute(t *testing.T) {
	e := newTestEngine(t, testParams(t, 3))
	a, b, c := e.params.Validators[0], e.params.Validators[1], e.params.Validators[2]
	e.seal(t)

	res, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Result)
	res, err = e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Result)
	res, err = e.SubmitClaim(c, 0, claimB)
	require.NoError(t, err)
	require.Equal(t, "conflict", res.Result)
	require.Equal(t, claimA, res.LeadingClaim)
	require.Equal(t, AwaitingDispute, e.Phase())

	_, err = e.SubmitClaim(c, 0, claimA)
	require.ErrorIs(t, err, ErrPhaseMismatch)

	status := e.Status()
	require.Equal(t, 3, status.NumClaims)
	require.Equal(t, 2, status.NumAgreements)
	require.NotNil(t, status.DisputeStart)
	require.True(t, e.Balance(a).IsZero())
}

func TestRejectedClaimsLeaveStateUnchanged(t *testing.T) {
	e := newTestEngine(t, testParams(t, 3))
	a := e.params.Validators[0]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)

	before := e.Status()
	stored := e.storedState(t)

	_, err = e.SubmitClaim(a, 0, claimA)
	require.ErrorIs(t, err, ErrDuplicateClaim)
	_, err = e.SubmitClaim(a, 0, claimB)
	require.ErrorIs(t, err, ErrDuplicateClaim)
	_, err = e.SubmitClaim(testhelpers.RandomAddress(), 0, claimA)
	require.ErrorIs(t, err, ErrNotAValidator)
	_, err = e.SubmitClaim(e.params.Validators[1], 1, claimA)
	require.ErrorIs(t, err, ErrEpochMismatch)

	if diff := statusDiff(before, e.Status()); diff != "" {
		t.Fatalf("status changed after rejected claims: %s", diff)
	}
	require.Equal(t, stored, e.storedState(t))
}

func TestNextEpochStartsFresh(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	a, b := e.params.Validators[0], e.params.Validators[1]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)

	status := e.Status()
	require.Equal(t, 0, status.NumClaims)
	require.Nil(t, status.LeadingClaim)

	e.seal(t)
	// b leads the new epoch; a's claim from the previous epoch is judged
	// against it rather than against the old leading claim.
	res, err := e.SubmitClaim(b, 1, claimB)
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Result)
	require.Equal(t, claimB, res.LeadingClaim)
	res, err = e.SubmitClaim(a, 1, claimA)
	require.NoError(t, err)
	require.Equal(t, "conflict", res.Result)
}

func TestUnresolvedDisputeIsReported(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	a, b := e.params.Validators[0], e.params.Validators[1]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.SubmitClaim(b, 0, claimB)
	require.NoError(t, err)

	e.clock.Advance(testChallengePeriod - time.Second)
	phase, err := e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, AwaitingDispute, phase)

	e.clock.Advance(time.Second)
	stored := e.storedState(t)
	phase, err = e.AdvancePhase()
	require.ErrorIs(t, err, ErrDisputeUnresolved)
	require.Equal(t, AwaitingDispute, phase)
	require.Equal(t, stored, e.storedState(t))
	require.Equal(t, AwaitingDispute, e.Phase())
}

func TestResolveDispute(t *testing.T) {
	e := newTestEngine(t, testParams(t, 3))
	a, b, c := e.params.Validators[0], e.params.Validators[1], e.params.Validators[2]

	require.ErrorIs(t, e.ResolveDispute(testArbitrator, claimA, []common.Address{a}), ErrPhaseMismatch)

	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.SubmitClaim(b, 0, claimB)
	require.NoError(t, err)
	require.Equal(t, AwaitingDispute, e.Phase())

	require.ErrorIs(t, e.ResolveDispute(a, claimA, []common.Address{a}), ErrUnauthorized)
	require.ErrorIs(t, e.ResolveDispute(testArbitrator, claimB, nil), ErrInvalidResolution)
	require.ErrorIs(t, e.ResolveDispute(testArbitrator, claimB, []common.Address{a}), ErrInvalidResolution)
	require.ErrorIs(t, e.ResolveDispute(testArbitrator, claimB, []common.Address{c}), ErrInvalidResolution)
	require.ErrorIs(t, e.ResolveDispute(testArbitrator, claimB, []common.Address{b, b}), ErrInvalidResolution)
	require.Equal(t, AwaitingDispute, e.Phase())

	require.NoError(t, e.ResolveDispute(testArbitrator, claimB, []common.Address{b}))
	require.Equal(t, InputAccumulation, e.Phase())
	require.Equal(t, uint64(1), e.Epoch())
	require.True(t, e.Balance(a).IsZero())
	require.Equal(t, testFee, e.Balance(b))

	record, err := e.GetEpoch(0)
	require.NoError(t, err)
	require.True(t, record.Disputed)
	require.Equal(t, claimB, record.Claim)
	require.Equal(t, []common.Address{b}, record.Validators)
}

func TestNoArbitratorMeansNoResolution(t *testing.T) {
	params := testParams(t, 2)
	params.Arbitrator = common.Address{}
	e := newTestEngine(t, params)
	require.ErrorIs(t, e.ResolveDispute(common.Address{}, claimA, []common.Address{params.Validators[0]}), ErrUnauthorized)
}

func TestFinalizeOnTimeout(t *testing.T) {
	params := testParams(t, 3)
	params.FinalizeOnTimeout = true
	e := newTestEngine(t, params)
	a, b := params.Validators[0], params.Validators[1]
	e.seal(t)

	// Without claims nothing times out.
	e.clock.Advance(2 * testChallengePeriod)
	phase, err := e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, AwaitingConsensus, phase)

	_, err = e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)

	e.clock.Advance(testChallengePeriod - time.Second)
	phase, err = e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, AwaitingConsensus, phase)

	e.clock.Advance(time.Second)
	phase, err = e.AdvancePhase()
	require.NoError(t, err)
	require.Equal(t, InputAccumulation, phase)
	require.Equal(t, testFee, e.Balance(a))
	require.Equal(t, testFee, e.Balance(b))
	require.True(t, e.Balance(params.Validators[2]).IsZero())

	record, err := e.GetEpoch(0)
	require.NoError(t, err)
	require.True(t, record.Timeout)
	require.Equal(t, []common.Address{a, b}, record.Validators)
}

func TestWithdraw(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	a, b := e.params.Validators[0], e.params.Validators[1]

	_, err := e.Withdraw(context.Background(), a)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	e.seal(t)
	_, err = e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)

	_, err = e.Withdraw(context.Background(), a)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, testFee, e.Balance(a))

	require.NoError(t, e.DepositRewards(testOwner, uint256.NewInt(1000)))
	require.ErrorIs(t, e.DepositRewards(testOwner, new(uint256.Int)), ErrInvalidAmount)

	payout, err := e.Withdraw(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, testFee, payout.Amount)
	require.True(t, e.Balance(a).IsZero())
	require.Equal(t, testFee, e.ledger.Paid(testToken, a))

	_, err = e.Withdraw(context.Background(), a)
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint64(1), e.ledger.Transfers())
	require.Equal(t, "0x384", e.Status().RewardPool.String())
}

func TestFailedWithdrawalRestoresBalance(t *testing.T) {
	params := testParams(t, 1)
	e := newTestEngine(t, params)
	a := params.Validators[0]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	require.NoError(t, e.DepositRewards(testOwner, uint256.NewInt(500)))

	e.transferer.fail.Store(true)
	_, err = e.Withdraw(context.Background(), a)
	require.ErrorIs(t, err, ErrTransferFailed)
	require.Equal(t, testFee, e.Balance(a))

	// The restored balance is what survives a restart.
	reopened := openTestEngine(t, params, e.store, e.clock)
	require.Equal(t, testFee, reopened.Balance(a))
	require.Equal(t, "0x1f4", reopened.Status().RewardPool.String())

	reopened.transferer.fail.Store(false)
	payout, err := reopened.Withdraw(context.Background(), a)
	require.NoError(t, err)
	require.Equal(t, testFee, payout.Amount)
}

func TestSubmittedPayoutSettles(t *testing.T) {
	ctx := context.Background()
	params := testParams(t, 1)
	e := newTestEngine(t, params)
	a := params.Validators[0]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	require.NoError(t, e.DepositRewards(testOwner, uint256.NewInt(500)))
	e.transferer.hold.Store(true)

	payout, err := e.Withdraw(ctx, a)
	require.NoError(t, err)
	require.Equal(t, testFee, payout.Amount)
	require.True(t, e.Balance(a).IsZero())
	_, err = e.Withdraw(ctx, a)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, e.SettlePayouts(ctx))
	require.Len(t, e.PendingPayouts(), 1)
	require.Equal(t, 1, e.Status().PendingPayouts)

	// Pending payouts survive a restart.
	reopened := openTestEngineWith(t, params, e.store, e.clock, e.transferer)
	require.Len(t, reopened.PendingPayouts(), 1)
	require.True(t, reopened.Balance(a).IsZero())

	events := make(chan Event, 8)
	sub := reopened.SubscribeEvents(events)
	defer sub.Unsubscribe()

	reopened.transferer.settle(payout.Ref, fees.PayoutReverted)
	require.NoError(t, reopened.SettlePayouts(ctx))
	require.Equal(t, testFee, reopened.Balance(a))
	require.Empty(t, reopened.PendingPayouts())
	require.Equal(t, "0x1f4", reopened.Status().RewardPool.String())
	ev := <-events
	require.Equal(t, EventWithdrawalReverted, ev.Kind)
	require.Equal(t, payout.Ref, *ev.Payout)

	second, err := reopened.Withdraw(ctx, a)
	require.NoError(t, err)
	reopened.transferer.settle(second.Ref, fees.PayoutConfirmed)
	require.NoError(t, reopened.SettlePayouts(ctx))
	require.True(t, reopened.Balance(a).IsZero())
	require.Empty(t, reopened.PendingPayouts())
	require.Equal(t, "0x190", reopened.Status().RewardPool.String())
}

func TestSubmittedPayoutSurvivesFailedWrite(t *testing.T) {
	ctx := context.Background()
	params := testParams(t, 1)
	e := newTestEngine(t, params)
	a := params.Validators[0]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	require.NoError(t, e.DepositRewards(testOwner, uint256.NewInt(500)))

	e.transferer.hold.Store(true)
	e.transferer.afterSubmit = func() { e.store.failPuts.Store(true) }
	payout, err := e.Withdraw(ctx, a)
	require.NoError(t, err)
	require.True(t, e.Balance(a).IsZero())
	require.Len(t, e.PendingPayouts(), 1)

	// The next operation writes the state that could not be stored.
	e.store.failPuts.Store(false)
	_, err = e.AdvancePhase()
	require.NoError(t, err)
	reopened := openTestEngineWith(t, params, e.store, e.clock, e.transferer)
	require.Equal(t, []fees.Payout{*payout}, reopened.PendingPayouts())
	require.True(t, reopened.Balance(a).IsZero())
}

func TestIdleOperationsDoNotWrite(t *testing.T) {
	e := newTestEngine(t, testParams(t, 2))
	writes := e.store.puts.Load()
	for i := 0; i < 5; i++ {
		phase, err := e.AdvancePhase()
		require.NoError(t, err)
		require.Equal(t, InputAccumulation, phase)
	}
	require.NoError(t, e.SettlePayouts(context.Background()))
	require.Equal(t, writes, e.store.puts.Load())

	e.seal(t)
	require.Equal(t, writes+1, e.store.puts.Load())
}

func TestDepositRewardsNeedsDepositor(t *testing.T) {
	params := testParams(t, 1)
	e := newTestEngine(t, params)
	require.Equal(t, testOwner, e.Depositor())
	require.ErrorIs(t, e.DepositRewards(params.Validators[0], uint256.NewInt(10)), ErrUnauthorized)
	require.Equal(t, "0x0", e.Status().RewardPool.String())
	require.NoError(t, e.DepositRewards(testOwner, uint256.NewInt(10)))
	require.Equal(t, "0xa", e.Status().RewardPool.String())

	bridge := common.HexToAddress("0x00000000000000000000000000000000000000b1")
	withBridge := *params
	withBridge.DepositBridge = bridge
	b := newTestEngine(t, &withBridge)
	require.ErrorIs(t, b.DepositRewards(testOwner, uint256.NewInt(10)), ErrUnauthorized)
	require.NoError(t, b.DepositRewards(bridge, uint256.NewInt(10)))
	require.Equal(t, bridge, b.Status().Depositor)
}

func TestFailedWriteRollsBack(t *testing.T) {
	params := testParams(t, 2)
	e := newTestEngine(t, params)
	a, b := params.Validators[0], params.Validators[1]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)

	before := e.Status()
	e.store.failPuts.Store(true)
	_, err = e.SubmitClaim(b, 0, claimA)
	require.ErrorIs(t, err, errStoreDown)
	_, err = e.AddInput(a, []byte("payload"))
	require.ErrorIs(t, err, errStoreDown)
	if diff := statusDiff(before, e.Status()); diff != "" {
		t.Fatalf("status changed after failed write: %s", diff)
	}
	_, err = e.GetEpoch(0)
	require.ErrorIs(t, err, ErrEpochNotFound)
	require.True(t, e.Balance(a).IsZero())

	e.store.failPuts.Store(false)
	res, err := e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)
	require.Equal(t, "consensus", res.Result)
}

func TestInputsBindToEpochs(t *testing.T) {
	e := newTestEngine(t, testParams(t, 1))
	v := e.params.Validators[0]
	sender := testhelpers.RandomAddress()

	receipt, err := e.AddInput(sender, []byte("first"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), receipt.Epoch)
	require.Equal(t, uint64(0), receipt.Index)

	e.seal(t)
	receipt, err = e.AddInput(sender, []byte("late"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Epoch)
	require.Equal(t, uint64(0), receipt.Index)
	require.Equal(t, uint64(1), e.Status().PendingInputs)

	_, err = e.SubmitClaim(v, 0, claimA)
	require.NoError(t, err)
	record, err := e.GetEpoch(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), record.Inputs)

	status := e.Status()
	require.Equal(t, uint64(1), status.NumInputs)
	require.Equal(t, uint64(0), status.PendingInputs)

	receipt, err = e.AddInput(sender, []byte("next"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), receipt.Epoch)
	require.Equal(t, uint64(1), receipt.Index)

	input, err := e.GetInput(1, 0)
	require.NoError(t, err)
	require.Equal(t, []byte("late"), input.Payload)
	require.Equal(t, sender, input.Sender)

	_, err = e.AddInput(sender, make([]byte, 1025))
	require.ErrorIs(t, err, ErrInputTooLarge)
	_, err = e.GetInput(1, 2)
	require.ErrorIs(t, err, ErrInputNotFound)
}

func TestConfigureFees(t *testing.T) {
	params := testParams(t, 1)
	e := newTestEngine(t, params)
	newToken := testhelpers.RandomAddress()

	require.ErrorIs(t, e.ConfigureFees(params.Validators[0], uint256.NewInt(5), newToken), ErrUnauthorized)
	require.ErrorIs(t, e.ConfigureFees(testOwner, nil, newToken), ErrInvalidAmount)
	require.NoError(t, e.ConfigureFees(testOwner, uint256.NewInt(5), newToken))

	status := e.Status()
	require.Equal(t, newToken, status.FeeToken)
	require.Equal(t, "0x5", status.FeePerClaim.String())

	e.seal(t)
	_, err := e.SubmitClaim(params.Validators[0], 0, claimA)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(5), e.Balance(params.Validators[0]))
}

func TestRestartResumesState(t *testing.T) {
	params := testParams(t, 3)
	e := newTestEngine(t, params)
	a, b := params.Validators[0], params.Validators[1]
	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.AddInput(a, []byte{1})
	require.NoError(t, err)
	before := e.Status()

	reopened := openTestEngine(t, params, e.store, e.clock)
	if diff := statusDiff(before, reopened.Status()); diff != "" {
		t.Fatalf("status differs after restart: %s", diff)
	}
	_, err = reopened.SubmitClaim(a, 0, claimA)
	require.ErrorIs(t, err, ErrDuplicateClaim)
	res, err := reopened.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Result)
}

func TestRestartRejectsDifferentValidators(t *testing.T) {
	params := testParams(t, 2)
	e := newTestEngine(t, params)

	changed := *params
	changed.Validators = []common.Address{params.Validators[1], params.Validators[0]}
	_, err := NewEngine(&changed, e.store, fees.NewLedger())
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	changed.Validators = params.Validators[:1]
	_, err = NewEngine(&changed, e.store, fees.NewLedger())
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestInvalidParams(t *testing.T) {
	base := testParams(t, 2)
	cases := map[string]func(p *Params){
		"zero input duration":     func(p *Params) { p.InputDuration = 0 },
		"zero challenge period":   func(p *Params) { p.ChallengePeriod = 0 },
		"no fee owner":            func(p *Params) { p.FeeOwner = common.Address{} },
		"no validators":           func(p *Params) { p.Validators = nil },
		"duplicate validators":    func(p *Params) { p.Validators = []common.Address{p.Validators[0], p.Validators[0]} },
		"zero validator":          func(p *Params) { p.Validators = []common.Address{{}} },
		"too many validators":     func(p *Params) { p.Validators = testhelpers.RandomAddresses(9) },
		"non positive cache size": func(p *Params) { p.HistorySize = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := *base
			mutate(&p)
			_, err := NewEngine(&p, storage.NewMemoryStore(), fees.NewLedger())
			require.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
	p := *base
	p.Validators = testhelpers.RandomAddresses(9)
	require.ErrorIs(t, p.Validate(), ErrValidatorSetTooLarge)
}

func TestEventsFollowStateChanges(t *testing.T) {
	params := testParams(t, 2)
	e := newTestEngine(t, params)
	a, b := params.Validators[0], params.Validators[1]
	events := make(chan Event, 32)
	sub := e.SubscribeEvents(events)
	defer sub.Unsubscribe()

	e.seal(t)
	_, err := e.SubmitClaim(a, 0, claimA)
	require.NoError(t, err)
	_, err = e.SubmitClaim(a, 0, claimA)
	require.Error(t, err)
	_, err = e.SubmitClaim(b, 0, claimA)
	require.NoError(t, err)
	require.NoError(t, e.DepositRewards(testOwner, uint256.NewInt(100)))
	_, err = e.Withdraw(context.Background(), a)
	require.NoError(t, err)

	var kinds []EventKind
	var credited, consensus Event
	for len(events) > 0 {
		ev := <-events
		kinds = append(kinds, ev.Kind)
		switch ev.Kind {
		case EventFeesCredited:
			credited = ev
		case EventConsensusReached:
			consensus = ev
		}
	}
	require.Equal(t, []EventKind{
		EventPhaseChanged,
		EventClaimAccepted,
		EventClaimAccepted,
		EventConsensusReached,
		EventFeesCredited,
		EventPhaseChanged,
		EventRewardsDeposited,
		EventWithdrawalExecuted,
	}, kinds)
	require.Equal(t, []common.Address{a, b}, consensus.Validators)
	require.Equal(t, "0xc8", credited.Amount.String())
}
