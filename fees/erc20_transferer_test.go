// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package fees

import (
	"context"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const testTokenABI = `[
	{"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// testTokenCode deploys a token that keeps balances in the storage slot named
// by the holder's address and credits the deployer with 1,000,000 units.
// transfer reverts when the sender's balance is short.
const testTokenCode = "0x620f4240335560548060116000396000f3" +
	"60003560e01c806370a0823114601e578063a9059cbb14602b57600080fd" +
	"5b6004355460005260206000f3" +
	"5b6024353354818110604f578190033355600435805482019055600160005260206000f3" +
	"5b600080fd"

type testChain struct {
	backend *simulated.Backend
	opts    *bind.TransactOpts
	token   common.Address
	bound   *bind.BoundContract
}

func newTestChain(t *testing.T) *testChain {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)
	backend := simulated.NewBackend(types.GenesisAlloc{
		from: {Balance: new(big.Int).Mul(big.NewInt(params.Ether), big.NewInt(10))},
	})
	t.Cleanup(func() { _ = backend.Close() })

	chainID, err := backend.Client().ChainID(context.Background())
	require.NoError(t, err)
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	require.NoError(t, err)
	parsed, err := abi.JSON(strings.NewReader(testTokenABI))
	require.NoError(t, err)
	token, _, bound, err := bind.DeployContract(opts, parsed, common.FromHex(testTokenCode), backend.Client())
	require.NoError(t, err)
	backend.Commit()

	return &testChain{backend: backend, opts: opts, token: token, bound: bound}
}

func (c *testChain) balanceOf(t *testing.T, account common.Address) *big.Int {
	t.Helper()
	var out []interface{}
	require.NoError(t, c.bound.Call(&bind.CallOpts{}, &out, "balanceOf", account))
	return out[0].(*big.Int)
}

// status polls until the node answers; a fresh chain may still be indexing.
func status(t *testing.T, transferer TokenTransferer, ref common.Hash) PayoutStatus {
	t.Helper()
	var result PayoutStatus
	require.Eventually(t, func() bool {
		var err error
		result, err = transferer.Status(context.Background(), ref)
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)
	return result
}

func TestERC20TransferConfirms(t *testing.T) {
	chain := newTestChain(t)
	transferer, err := NewERC20Transferer(chain.backend.Client(), chain.opts)
	require.NoError(t, err)
	require.Equal(t, chain.opts.From, transferer.From())
	require.Equal(t, big.NewInt(1_000_000), chain.balanceOf(t, chain.opts.From))

	ref, err := transferer.Transfer(context.Background(), chain.token, alice, uint256.NewInt(250))
	require.NoError(t, err)
	require.Equal(t, PayoutPending, status(t, transferer, ref))

	chain.backend.Commit()
	require.Equal(t, PayoutConfirmed, status(t, transferer, ref))
	require.Equal(t, big.NewInt(250), chain.balanceOf(t, alice))
	require.Equal(t, big.NewInt(999_750), chain.balanceOf(t, chain.opts.From))
}

func TestERC20TransferReverts(t *testing.T) {
	chain := newTestChain(t)

	// Gas estimation runs the call first, so a short balance fails before
	// anything is sent.
	transferer, err := NewERC20Transferer(chain.backend.Client(), chain.opts)
	require.NoError(t, err)
	_, err = transferer.Transfer(context.Background(), chain.token, alice, uint256.NewInt(2_000_000))
	require.Error(t, err)

	// With a fixed gas limit the transaction is mined and reverts.
	opts := *chain.opts
	opts.GasLimit = 100_000
	unchecked, err := NewERC20Transferer(chain.backend.Client(), &opts)
	require.NoError(t, err)
	ref, err := unchecked.Transfer(context.Background(), chain.token, alice, uint256.NewInt(2_000_000))
	require.NoError(t, err)
	chain.backend.Commit()
	require.Equal(t, PayoutReverted, status(t, unchecked, ref))
	require.Zero(t, chain.balanceOf(t, alice).Sign())

	_, err = unchecked.Transfer(context.Background(), common.Address{}, alice, uint256.NewInt(1))
	require.Error(t, err)
}

func TestERC20WithdrawalPaysOnce(t *testing.T) {
	chain := newTestChain(t)
	transferer, err := NewERC20Transferer(chain.backend.Client(), chain.opts)
	require.NoError(t, err)
	m, err := NewManager(owner, chain.token, uint256.NewInt(100), transferer)
	require.NoError(t, err)
	require.NoError(t, m.Deposit(uint256.NewInt(1000)))
	_, err = m.CreditValidators([]common.Address{alice})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	payout, err := m.Withdraw(ctx, alice, nil)
	require.NoError(t, err)
	cancel()

	// Not mined yet: the payout is pending and the balance stays spent.
	require.Equal(t, PayoutPending, status(t, transferer, payout.Ref))
	require.True(t, m.BalanceOf(alice).IsZero())
	_, err = m.Withdraw(context.Background(), alice, nil)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	chain.backend.Commit()
	final := status(t, transferer, payout.Ref)
	require.Equal(t, PayoutConfirmed, final)
	_, err = m.SettlePayout(payout.Ref, final)
	require.NoError(t, err)
	require.Empty(t, m.PendingPayouts())
	require.True(t, m.BalanceOf(alice).IsZero())
	require.Equal(t, big.NewInt(100), chain.balanceOf(t, alice))
}
