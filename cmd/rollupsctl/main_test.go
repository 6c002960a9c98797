// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/offchainlabs/rollups-consensus/fees"
	"github.com/offchainlabs/rollups-consensus/rollups"
	"github.com/offchainlabs/rollups-consensus/storage"
	"github.com/offchainlabs/rollups-consensus/util/rpcclient"
	"github.com/offchainlabs/rollups-consensus/util/rpcserver"
)

var (
	validatorA = common.HexToAddress("0x1000000000000000000000000000000000000001")
	validatorB = common.HexToAddress("0x1000000000000000000000000000000000000002")
	owner      = common.HexToAddress("0x2000000000000000000000000000000000000001")
	token      = common.HexToAddress("0x3000000000000000000000000000000000000001")
)

func startTestServer(t *testing.T, ctx context.Context) *rpcclient.RpcClient {
	t.Helper()
	params := &rollups.Params{
		Validators:      []common.Address{validatorA, validatorB},
		InputDuration:   time.Hour,
		ChallengePeriod: time.Hour,
		FeeOwner:        owner,
		FeePerClaim:     uint256.NewInt(5),
		FeeToken:        token,
		MaxInputSize:    64,
		HistorySize:     8,
	}
	engine, err := rollups.NewEngine(params, storage.NewMemoryStore(), fees.NewLedger())
	require.NoError(t, err)
	server, err := rpcserver.Start(&rpcserver.TestConfig, engine.APIs())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, server.Shutdown(context.Background())) })

	client := rpcclient.NewRpcClient(func() *rpcclient.ClientConfig {
		config := rpcclient.TestClientConfig
		config.URL = server.WSEndpoint()
		return &config
	})
	require.NoError(t, client.Start(ctx))
	t.Cleanup(client.Close)
	return client
}

func runCommand(t *testing.T, ctx context.Context, client *rpcclient.RpcClient, args ...string) (string, error) {
	t.Helper()
	config, err := parseCtlArgs(args)
	require.NoError(t, err)
	var out bytes.Buffer
	err = run(ctx, client, config, &out)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client := startTestServer(t, ctx)

	out, err := runCommand(t, ctx, client, "--command", "status")
	require.NoError(t, err)
	var status rollups.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Equal(t, rollups.InputAccumulation, status.Phase)
	require.Equal(t, []common.Address{validatorA, validatorB}, status.Validators)

	out, err = runCommand(t, ctx, client, "--command", "add-input", "--account", validatorA.Hex(), "--payload", "0xdeadbeef")
	require.NoError(t, err)
	var receipt rollups.InputReceipt
	require.NoError(t, json.Unmarshal([]byte(out), &receipt))
	require.Equal(t, uint64(0), receipt.Index)

	out, err = runCommand(t, ctx, client, "--command", "input", "--epoch", "0", "--index", "0")
	require.NoError(t, err)
	require.Contains(t, out, "0xdeadbeef")

	_, err = runCommand(t, ctx, client, "--command", "deposit", "--account", validatorA.Hex(), "--amount", "1000")
	require.ErrorContains(t, err, rollups.ErrUnauthorized.Error())
	_, err = runCommand(t, ctx, client, "--command", "deposit", "--account", owner.Hex(), "--amount", "1000")
	require.NoError(t, err)

	out, err = runCommand(t, ctx, client, "--command", "payouts")
	require.NoError(t, err)
	require.Equal(t, "[]", strings.TrimSpace(out))

	_, err = runCommand(t, ctx, client, "--command", "configure-fees", "--account", owner.Hex(), "--amount", "9", "--token", token.Hex())
	require.NoError(t, err)
	_, err = runCommand(t, ctx, client, "--command", "configure-fees", "--account", validatorA.Hex(), "--amount", "9", "--token", token.Hex())
	require.ErrorContains(t, err, fees.ErrUnauthorized.Error())

	out, err = runCommand(t, ctx, client, "--command", "status")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.Equal(t, "0x3e8", status.RewardPool.String())
	require.Equal(t, "0x9", status.FeePerClaim.String())

	out, err = runCommand(t, ctx, client, "--command", "balance", "--account", validatorB.Hex())
	require.NoError(t, err)
	require.Contains(t, out, `"0x0"`)

	// Claims are only accepted once the epoch is sealed.
	_, err = runCommand(t, ctx, client, "--command", "submit-claim", "--account", validatorA.Hex(), "--claim", common.HexToHash("0xc1").Hex())
	require.ErrorContains(t, err, rollups.ErrPhaseMismatch.Error())
}

func TestCommandArgumentErrors(t *testing.T) {
	ctx := context.Background()
	client := rpcclient.NewRpcClient(func() *rpcclient.ClientConfig { return &rpcclient.TestClientConfig })

	for _, args := range [][]string{
		{},
		{"--command", "dance"},
		{"--command", "balance", "--account", "nobody"},
		{"--command", "submit-claim", "--account", validatorA.Hex(), "--claim", "0x01"},
		{"--command", "add-input", "--account", validatorA.Hex(), "--payload", "xyz"},
		{"--command", "deposit", "--account", owner.Hex(), "--amount", "-3"},
		{"--command", "resolve", "--account", owner.Hex(), "--claim", common.Hash{}.Hex(), "--validators", "bad"},
	} {
		_, err := runCommand(t, ctx, client, args...)
		require.Error(t, err, args)
	}
}
