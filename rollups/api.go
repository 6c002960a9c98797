// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/offchainlabs/rollups-consensus/fees"
)

const APINamespace = "rollups"

// API exposes the engine over JSON-RPC in the rollups namespace.
type API struct {
	engine *Engine
}

func NewAPI(engine *Engine) *API {
	return &API{engine: engine}
}

// APIs lists the services to register on an rpc.Server.
func (e *Engine) APIs() []rpc.API {
	return []rpc.API{{
		Namespace: APINamespace,
		Service:   NewAPI(e),
	}}
}

func toUint256(x *hexutil.Big) (*uint256.Int, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: missing", ErrInvalidAmount)
	}
	b := (*big.Int)(x)
	if b.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	amount, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%w: exceeds 256 bits", ErrInvalidAmount)
	}
	return amount, nil
}

func (a *API) SubmitClaim(ctx context.Context, claimant common.Address, epoch hexutil.Uint64, claim common.Hash) (*ClaimResult, error) {
	return a.engine.SubmitClaim(claimant, uint64(epoch), claim)
}

func (a *API) AdvancePhase(ctx context.Context) (Phase, error) {
	return a.engine.AdvancePhase()
}

type PayoutResult struct {
	Account common.Address `json:"account"`
	Amount  *hexutil.Big   `json:"amount"`
	Payout  common.Hash    `json:"payout"`
}

func payoutResult(p *fees.Payout) *PayoutResult {
	return &PayoutResult{
		Account: p.Account,
		Amount:  bigAmount(p.Amount),
		Payout:  p.Ref,
	}
}

func (a *API) Withdraw(ctx context.Context, account common.Address) (*PayoutResult, error) {
	payout, err := a.engine.Withdraw(ctx, account)
	if err != nil {
		return nil, err
	}
	return payoutResult(payout), nil
}

// PendingPayouts lists submitted withdrawals that have not settled yet.
func (a *API) PendingPayouts(ctx context.Context) ([]*PayoutResult, error) {
	payouts := a.engine.PendingPayouts()
	results := make([]*PayoutResult, len(payouts))
	for i := range payouts {
		results[i] = payoutResult(&payouts[i])
	}
	return results, nil
}

func (a *API) ConfigureFees(ctx context.Context, caller common.Address, feePerClaim *hexutil.Big, token common.Address) error {
	fee, err := toUint256(feePerClaim)
	if err != nil {
		return err
	}
	return a.engine.ConfigureFees(caller, fee, token)
}

func (a *API) ResolveDispute(ctx context.Context, caller common.Address, claim common.Hash, validators []common.Address) error {
	return a.engine.ResolveDispute(caller, claim, validators)
}

func (a *API) AddInput(ctx context.Context, sender common.Address, payload hexutil.Bytes) (*InputReceipt, error) {
	return a.engine.AddInput(sender, payload)
}

func (a *API) DepositRewards(ctx context.Context, caller common.Address, amount *hexutil.Big) error {
	value, err := toUint256(amount)
	if err != nil {
		return err
	}
	return a.engine.DepositRewards(caller, value)
}

func (a *API) Status(ctx context.Context) (*Status, error) {
	return a.engine.Status(), nil
}

func (a *API) Balance(ctx context.Context, account common.Address) (*hexutil.Big, error) {
	return bigAmount(a.engine.Balance(account)), nil
}

func (a *API) GetEpoch(ctx context.Context, epoch hexutil.Uint64) (*EpochRecord, error) {
	return a.engine.GetEpoch(uint64(epoch))
}

type InputResult struct {
	Sender    common.Address `json:"sender"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
	Payload   hexutil.Bytes  `json:"payload"`
}

func (a *API) GetInput(ctx context.Context, epoch hexutil.Uint64, index hexutil.Uint64) (*InputResult, error) {
	input, err := a.engine.GetInput(uint64(epoch), uint64(index))
	if err != nil {
		return nil, err
	}
	return &InputResult{
		Sender:    input.Sender,
		Timestamp: hexutil.Uint64(input.Timestamp),
		Payload:   input.Payload,
	}, nil
}

// Events streams every engine Event to the subscriber.
func (a *API) Events(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return &rpc.Subscription{}, rpc.ErrNotificationsUnsupported
	}
	rpcSub := notifier.CreateSubscription()

	events := make(chan Event, 128)
	sub := a.engine.SubscribeEvents(events)
	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case ev := <-events:
				_ = notifier.Notify(rpcSub.ID, ev)
			case <-rpcSub.Err():
				return
			case <-notifier.Closed():
				return
			case <-sub.Err():
				return
			}
		}
	}()
	return rpcSub, nil
}
