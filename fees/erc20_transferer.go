// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package fees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

const erc20TransferABI = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

type ChainBackend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// ERC20Transferer pays rewards by calling transfer on the token contract from
// the account behind opts. A payout is referenced by its transaction hash and
// settles when the transaction is mined.
type ERC20Transferer struct {
	backend ChainBackend
	opts    *bind.TransactOpts
	abi     abi.ABI
}

func NewERC20Transferer(backend ChainBackend, opts *bind.TransactOpts) (*ERC20Transferer, error) {
	if opts == nil {
		return nil, errors.New("no transact opts")
	}
	parsed, err := abi.JSON(strings.NewReader(erc20TransferABI))
	if err != nil {
		return nil, err
	}
	return &ERC20Transferer{
		backend: backend,
		opts:    opts,
		abi:     parsed,
	}, nil
}

func (t *ERC20Transferer) From() common.Address {
	return t.opts.From
}

func (t *ERC20Transferer) Transfer(ctx context.Context, token, to common.Address, amount *uint256.Int) (common.Hash, error) {
	if token == (common.Address{}) {
		return common.Hash{}, errors.New("no reward token configured")
	}
	contract := bind.NewBoundContract(token, t.abi, t.backend, t.backend, t.backend)
	opts := *t.opts
	opts.Context = ctx
	tx, err := contract.Transact(&opts, "transfer", to, amount.ToBig())
	if err != nil {
		return common.Hash{}, fmt.Errorf("sending transfer: %w", err)
	}
	log.Info("sent reward transfer", "token", token, "to", to, "amount", amount, "tx", tx.Hash())
	return tx.Hash(), nil
}

// Status looks up the receipt of the transfer transaction. A transaction
// without a receipt is still pending.
func (t *ERC20Transferer) Status(ctx context.Context, ref common.Hash) (PayoutStatus, error) {
	receipt, err := t.backend.TransactionReceipt(ctx, ref)
	if errors.Is(err, ethereum.NotFound) {
		return PayoutPending, nil
	}
	if err != nil {
		return PayoutPending, fmt.Errorf("fetching receipt of transfer %v: %w", ref, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return PayoutReverted, nil
	}
	return PayoutConfirmed, nil
}
