// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/rollups-consensus/cmd/genericconf"
	"github.com/offchainlabs/rollups-consensus/cmd/util"
	"github.com/offchainlabs/rollups-consensus/cmd/util/confighelpers"
	"github.com/offchainlabs/rollups-consensus/rollups"
	"github.com/offchainlabs/rollups-consensus/util/rpcclient"
)

type CtlConfig struct {
	Conf       genericconf.ConfConfig `koanf:"conf"`
	LogLevel   string                 `koanf:"log-level"`
	LogType    string                 `koanf:"log-type"`
	RPC        rpcclient.ClientConfig `koanf:"rpc"`
	Command    string                 `koanf:"command"`
	Account    string                 `koanf:"account"`
	Epoch      uint64                 `koanf:"epoch"`
	Index      uint64                 `koanf:"index"`
	Claim      string                 `koanf:"claim"`
	Payload    string                 `koanf:"payload"`
	Amount     string                 `koanf:"amount"`
	Token      string                 `koanf:"token"`
	Validators []string               `koanf:"validators"`
}

var CtlConfigDefault = CtlConfig{
	Conf:     genericconf.ConfConfigDefault,
	LogLevel: "WARN",
	LogType:  "plaintext",
	RPC:      rpcclient.DefaultClientConfig,
}

func CtlConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", CtlConfigDefault.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", CtlConfigDefault.LogType, "log type (plaintext or json)")
	rpcclient.RPCClientAddOptions("rpc", f, &CtlConfigDefault.RPC)
	f.String("command", CtlConfigDefault.Command, "one of: status, balance, epoch, input, advance, add-input, submit-claim, resolve, withdraw, payouts, configure-fees, deposit, watch")
	f.String("account", CtlConfigDefault.Account, "acting or queried account (sender, claimant, caller)")
	f.Uint64("epoch", CtlConfigDefault.Epoch, "epoch number")
	f.Uint64("index", CtlConfigDefault.Index, "input index within the epoch")
	f.String("claim", CtlConfigDefault.Claim, "32 byte claim hash")
	f.String("payload", CtlConfigDefault.Payload, "hex encoded input payload")
	f.String("amount", CtlConfigDefault.Amount, "decimal token amount (fee per claim or deposit)")
	f.String("token", CtlConfigDefault.Token, "reward token address")
	f.StringSlice("validators", CtlConfigDefault.Validators, "validators credited by a dispute resolution")
}

func printSampleUsage(name string) {
	fmt.Printf("Sample usage: %s --rpc.url=ws://127.0.0.1:8547 --command=status\n", name)
}

func main() {
	if err := mainImpl(); err != nil {
		log.Error("Error running rollupsctl", "err", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	config, err := parseCtlArgs(os.Args[1:])
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if err := util.SetLogger(config.LogLevel, config.LogType); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := rpcclient.NewRpcClient(func() *rpcclient.ClientConfig { return &config.RPC })
	if err := client.Start(ctx); err != nil {
		return err
	}
	defer client.Close()
	return run(ctx, client, config, os.Stdout)
}

func parseCtlArgs(args []string) (*CtlConfig, error) {
	f := flag.NewFlagSet("rollupsctl", flag.ContinueOnError)
	CtlConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, err
	}

	var config CtlConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func parseAccount(config *CtlConfig) (common.Address, error) {
	if !common.IsHexAddress(config.Account) {
		return common.Address{}, fmt.Errorf("--account %q is not an address", config.Account)
	}
	return common.HexToAddress(config.Account), nil
}

func parseAmount(config *CtlConfig) (*hexutil.Big, error) {
	amount, err := uint256.FromDecimal(config.Amount)
	if err != nil {
		return nil, fmt.Errorf("--amount %q: %w", config.Amount, err)
	}
	return (*hexutil.Big)(amount.ToBig()), nil
}

func parseClaim(config *CtlConfig) (common.Hash, error) {
	b, err := hexutil.Decode(config.Claim)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("--claim %q is not a 32 byte hex hash", config.Claim)
	}
	return common.BytesToHash(b), nil
}

type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

// call sends one request and prints its result as indented JSON.
func call(ctx context.Context, client rpcCaller, out io.Writer, method string, args ...interface{}) error {
	var result json.RawMessage
	if err := client.CallContext(ctx, &result, rollups.APINamespace+"_"+method, args...); err != nil {
		return err
	}
	var pretty interface{}
	if err := json.Unmarshal(result, &pretty); err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func run(ctx context.Context, client *rpcclient.RpcClient, config *CtlConfig, out io.Writer) error {
	switch config.Command {
	case "status":
		return call(ctx, client, out, "status")
	case "advance":
		return call(ctx, client, out, "advancePhase")
	case "epoch":
		return call(ctx, client, out, "getEpoch", hexutil.Uint64(config.Epoch))
	case "input":
		return call(ctx, client, out, "getInput", hexutil.Uint64(config.Epoch), hexutil.Uint64(config.Index))
	case "balance", "withdraw":
		account, err := parseAccount(config)
		if err != nil {
			return err
		}
		return call(ctx, client, out, config.Command, account)
	case "add-input":
		account, err := parseAccount(config)
		if err != nil {
			return err
		}
		payload, err := hexutil.Decode(config.Payload)
		if err != nil {
			return fmt.Errorf("--payload: %w", err)
		}
		return call(ctx, client, out, "addInput", account, hexutil.Bytes(payload))
	case "submit-claim":
		account, err := parseAccount(config)
		if err != nil {
			return err
		}
		claim, err := parseClaim(config)
		if err != nil {
			return err
		}
		return call(ctx, client, out, "submitClaim", account, hexutil.Uint64(config.Epoch), claim)
	case "resolve":
		account, err := parseAccount(config)
		if err != nil {
			return err
		}
		claim, err := parseClaim(config)
		if err != nil {
			return err
		}
		winners := make([]common.Address, 0, len(config.Validators))
		for _, v := range config.Validators {
			if !common.IsHexAddress(v) {
				return fmt.Errorf("--validators: %q is not an address", v)
			}
			winners = append(winners, common.HexToAddress(v))
		}
		return call(ctx, client, out, "resolveDispute", account, claim, winners)
	case "configure-fees":
		account, err := parseAccount(config)
		if err != nil {
			return err
		}
		amount, err := parseAmount(config)
		if err != nil {
			return err
		}
		if !common.IsHexAddress(config.Token) {
			return fmt.Errorf("--token %q is not an address", config.Token)
		}
		return call(ctx, client, out, "configureFees", account, amount, common.HexToAddress(config.Token))
	case "deposit":
		account, err := parseAccount(config)
		if err != nil {
			return err
		}
		amount, err := parseAmount(config)
		if err != nil {
			return err
		}
		return call(ctx, client, out, "depositRewards", account, amount)
	case "payouts":
		return call(ctx, client, out, "pendingPayouts")
	case "watch":
		return watch(ctx, client, out)
	case "":
		return errors.New("no --command given")
	default:
		return fmt.Errorf("unknown command %q", config.Command)
	}
}

// watch prints engine events until the context ends.
func watch(ctx context.Context, client *rpcclient.RpcClient, out io.Writer) error {
	events := make(chan rollups.Event, 64)
	sub, err := client.Subscribe(ctx, rollups.APINamespace, events, "events")
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	encoder := json.NewEncoder(out)
	for {
		select {
		case ev := <-events:
			if err := encoder.Encode(ev); err != nil {
				return err
			}
		case err := <-sub.Err():
			return err
		case <-ctx.Done():
			return nil
		}
	}
}
