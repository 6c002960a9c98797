// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/term"

	"github.com/offchainlabs/rollups-consensus/cmd/genericconf"
	"github.com/offchainlabs/rollups-consensus/cmd/util"
	"github.com/offchainlabs/rollups-consensus/cmd/util/confighelpers"
	"github.com/offchainlabs/rollups-consensus/fees"
	"github.com/offchainlabs/rollups-consensus/rollups"
	"github.com/offchainlabs/rollups-consensus/storage"
	rollupsutil "github.com/offchainlabs/rollups-consensus/util"
	"github.com/offchainlabs/rollups-consensus/util/rpcserver"
)

func printSampleUsage(name string) {
	fmt.Printf("Sample usage: %s --rollups.validators=<addr>,<addr> --rollups.fee-owner=<addr> [--storage.backend=pebble] [--http.port=8547]\n", name)
}

func main() {
	os.Exit(mainImpl())
}

func mainImpl() int {
	config, k, err := ParseRollupsd(os.Args[1:])
	if err != nil {
		confighelpers.PrintErrorAndExit(err, printSampleUsage)
	}
	if config.Conf.Dump {
		err = confighelpers.DumpConfig(k, map[string]interface{}{
			"token.wallet.password":     "",
			"token.wallet.private-key":  "",
			"storage.redis.signing-key": "",
			"http.jwtsecret":            "",
		})
		if err != nil {
			log.Error("Error dumping config", "err", err)
			return 1
		}
		return 0
	}

	pathResolver := genericconf.DefaultPathResolver(config.WorkDir)
	if err := genericconf.InitLog(config.LogType, config.LogLevel, &config.FileLogging, pathResolver); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		return 1
	}
	vcsRevision, vcsTime := confighelpers.GetVersion()
	log.Info("Starting rollupsd", "revision", vcsRevision, "vcs.time", vcsTime)

	if err := util.StartMetrics(&util.MetricsOpts{Metrics: config.Metrics, MetricsServer: config.MetricsServer}); err != nil {
		log.Error("Error starting metrics", "err", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := startDaemon(ctx, config, pathResolver)
	if err != nil {
		log.Error("Error starting rollupsd", "err", err)
		return 1
	}

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint
	log.Info("Shutting down rollupsd")

	if err := d.StopAndWait(5 * time.Second); err != nil {
		log.Error("Error shutting down rollupsd", "err", err)
		return 1
	}
	return 0
}

type daemon struct {
	engine *rollups.Engine
	driver *rollups.Driver
	store  storage.Store
	server *rpcserver.Server
	closer func()
}

func startDaemon(ctx context.Context, config *RollupsdConfig, pathResolver func(string) string) (*daemon, error) {
	params, err := config.Rollups.Params()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, &config.Storage, pathResolver)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", config.Storage.Backend, err)
	}
	d := &daemon{store: store}
	ok := false
	defer func() {
		if !ok {
			d.release()
		}
	}()

	transferer, closer, err := newTransferer(ctx, &config.Token, pathResolver)
	if err != nil {
		return nil, err
	}
	d.closer = closer

	d.engine, err = rollups.NewEngine(params, store, transferer)
	if err != nil {
		return nil, err
	}
	log.Info("Rollups engine ready", "epoch", d.engine.Epoch(), "phase", d.engine.Phase(), "validators", len(params.Validators))

	if config.Driver.Enable {
		d.driver, err = rollups.NewDriver(d.engine, func() *rollups.DriverConfig { return &config.Driver })
		if err != nil {
			return nil, err
		}
		d.driver.Start(ctx)
	}

	if config.HTTP.Enable {
		d.server, err = rpcserver.Start(&config.HTTP, d.engine.APIs())
		if err != nil {
			if d.driver != nil {
				d.driver.StopAndWait()
			}
			return nil, err
		}
	}
	ok = true
	return d, nil
}

func newTransferer(ctx context.Context, config *TokenConfig, pathResolver func(string) string) (fees.TokenTransferer, func(), error) {
	if config.Mode != TokenModeERC20 {
		log.Warn("Paying rewards into the in-process ledger, no tokens leave this node")
		return fees.NewLedger(), func() {}, nil
	}
	client, err := ethclient.DialContext(ctx, config.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing token chain: %w", err)
	}
	chainId, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("reading chain id: %w", err)
	}
	if config.ChainID != 0 && chainId.Cmp(new(big.Int).SetUint64(config.ChainID)) != 0 {
		client.Close()
		return nil, nil, fmt.Errorf("token chain id mismatch: configured %d, node reports %v", config.ChainID, chainId)
	}
	opts, err := transactOpts(&config.Wallet, chainId, pathResolver)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	transferer, err := fees.NewERC20Transferer(client, opts)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	log.Info("Paying rewards with erc20 transfers", "from", transferer.From(), "chainId", chainId)
	return transferer, client.Close, nil
}

func transactOpts(wallet *genericconf.WalletConfig, chainId *big.Int, pathResolver func(string) string) (*bind.TransactOpts, error) {
	if wallet.PrivateKey != "" {
		return rollupsutil.GetTransactOptsFromPrivateKey(wallet.PrivateKey, chainId)
	}
	password, err := walletPassword(wallet)
	if err != nil {
		return nil, err
	}
	return rollupsutil.GetTransactOptsFromKeystore(pathResolver(wallet.Pathname), wallet.Account, password, chainId)
}

func (d *daemon) release() {
	if d.closer != nil {
		d.closer()
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			log.Error("Error closing storage", "err", err)
		}
	}
}

// StopAndWait shuts the RPC server, then the driver, then storage.
func (d *daemon) StopAndWait(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	var errs []error
	if d.server != nil {
		errs = append(errs, d.server.Shutdown(ctx))
	}
	if d.driver != nil {
		d.driver.StopAndWait()
	}
	d.release()
	return errors.Join(errs...)
}

// walletPassword returns the configured passphrase, prompting on the
// terminal if none was configured.
func walletPassword(wallet *genericconf.WalletConfig) (string, error) {
	if pwd := wallet.Pwd(); pwd != nil {
		return *pwd, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("token.wallet.password is not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading wallet password: %w", err)
	}
	return string(password), nil
}
