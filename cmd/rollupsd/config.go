// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package main

import (
	"errors"
	"fmt"

	"github.com/knadh/koanf"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/rollups-consensus/cmd/genericconf"
	"github.com/offchainlabs/rollups-consensus/cmd/util/confighelpers"
	"github.com/offchainlabs/rollups-consensus/rollups"
	"github.com/offchainlabs/rollups-consensus/storage"
	"github.com/offchainlabs/rollups-consensus/util/rpcserver"
)

const (
	TokenModeLedger = "ledger"
	TokenModeERC20  = "erc20"
)

type TokenConfig struct {
	Mode    string                   `koanf:"mode"`
	URL     string                   `koanf:"url"`
	ChainID uint64                   `koanf:"chain-id"`
	Wallet  genericconf.WalletConfig `koanf:"wallet"`
}

var TokenConfigDefault = TokenConfig{
	Mode:    TokenModeLedger,
	URL:     "",
	ChainID: 0,
	Wallet:  genericconf.WalletConfigDefault,
}

func TokenConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.String(prefix+".mode", TokenConfigDefault.Mode, "how rewards are paid out: ledger (in-process bookkeeping) or erc20 (token transfers on chain)")
	f.String(prefix+".url", TokenConfigDefault.URL, "chain RPC URL used to send erc20 transfers")
	f.Uint64(prefix+".chain-id", TokenConfigDefault.ChainID, "expected chain id of the erc20 chain (0 accepts whatever the node reports)")
	genericconf.WalletConfigAddOptions(prefix+".wallet", f, "")
}

func (c *TokenConfig) Validate() error {
	switch c.Mode {
	case TokenModeLedger:
		return nil
	case TokenModeERC20:
		if c.URL == "" {
			return errors.New("token.url is required in erc20 mode")
		}
		if c.Wallet.PrivateKey == "" && c.Wallet.Pathname == "" {
			return errors.New("erc20 mode needs token.wallet.private-key or token.wallet.pathname")
		}
		return nil
	default:
		return fmt.Errorf("unknown token mode %q", c.Mode)
	}
}

type RollupsdConfig struct {
	Conf          genericconf.ConfConfig          `koanf:"conf"`
	LogLevel      string                          `koanf:"log-level"`
	LogType       string                          `koanf:"log-type"`
	FileLogging   genericconf.FileLoggingConfig   `koanf:"file-logging"`
	WorkDir       string                          `koanf:"workdir"`
	Rollups       rollups.Config                  `koanf:"rollups"`
	Driver        rollups.DriverConfig            `koanf:"driver"`
	Storage       storage.Config                  `koanf:"storage"`
	Token         TokenConfig                     `koanf:"token"`
	HTTP          rpcserver.Config                `koanf:"http"`
	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`
}

var RollupsdConfigDefault = RollupsdConfig{
	Conf:          genericconf.ConfConfigDefault,
	LogLevel:      "INFO",
	LogType:       "plaintext",
	FileLogging:   genericconf.DefaultFileLoggingConfig,
	WorkDir:       "",
	Rollups:       rollups.ConfigDefault,
	Driver:        rollups.DefaultDriverConfig,
	Storage:       storage.DefaultConfig,
	Token:         TokenConfigDefault,
	HTTP:          rpcserver.DefaultConfig,
	Metrics:       false,
	MetricsServer: genericconf.MetricsServerConfigDefault,
}

func RollupsdConfigAddOptions(f *flag.FlagSet) {
	genericconf.ConfConfigAddOptions("conf", f)
	f.String("log-level", RollupsdConfigDefault.LogLevel, "log level, valid values are CRIT, ERROR, WARN, INFO, DEBUG, TRACE")
	f.String("log-type", RollupsdConfigDefault.LogType, "log type (plaintext or json)")
	genericconf.FileLoggingConfigAddOptions("file-logging", f)
	f.String("workdir", RollupsdConfigDefault.WorkDir, "directory relative paths are resolved against (defaults to the current directory)")
	rollups.ConfigAddOptions("rollups", f)
	rollups.DriverConfigAddOptions("driver", f)
	storage.ConfigAddOptions("storage", f)
	TokenConfigAddOptions("token", f)
	rpcserver.ConfigAddOptions("http", f)
	f.Bool("metrics", RollupsdConfigDefault.Metrics, "enable metrics")
	genericconf.MetricsServerAddOptions("metrics-server", f)
}

func (c *RollupsdConfig) Validate() error {
	if err := c.Driver.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Token.Validate(); err != nil {
		return err
	}
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	_, err := c.Rollups.Params()
	return err
}

func ParseRollupsd(args []string) (*RollupsdConfig, *koanf.Koanf, error) {
	f := flag.NewFlagSet("rollupsd", flag.ContinueOnError)
	RollupsdConfigAddOptions(f)

	k, err := confighelpers.BeginCommonParse(f, args)
	if err != nil {
		return nil, nil, err
	}

	var config RollupsdConfig
	if err := confighelpers.EndCommonParse(k, &config); err != nil {
		return nil, nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, nil, err
	}
	return &config, k, nil
}
