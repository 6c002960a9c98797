// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/rollups-consensus/claims"
	"github.com/offchainlabs/rollups-consensus/validators"
)

// Config is the flag/file form of the engine settings. Params turns it into
// typed values.
type Config struct {
	Validators        []string      `koanf:"validators"`
	InputDuration     time.Duration `koanf:"input-duration"`
	ChallengePeriod   time.Duration `koanf:"challenge-period"`
	Arbitrator        string        `koanf:"arbitrator"`
	DepositBridge     string        `koanf:"deposit-bridge"`
	FeeOwner          string        `koanf:"fee-owner"`
	FeePerClaim       string        `koanf:"fee-per-claim"`
	FeeToken          string        `koanf:"fee-token"`
	MaxInputSize      uint64        `koanf:"max-input-size"`
	HistorySize       int           `koanf:"history-size"`
	FinalizeOnTimeout bool          `koanf:"finalize-on-timeout"`
}

var ConfigDefault = Config{
	Validators:        []string{},
	InputDuration:     time.Minute,
	ChallengePeriod:   10 * time.Minute,
	Arbitrator:        "",
	DepositBridge:     "",
	FeeOwner:          "",
	FeePerClaim:       "0",
	FeeToken:          "",
	MaxInputSize:      128 * 1024,
	HistorySize:       128,
	FinalizeOnTimeout: false,
}

func ConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.StringSlice(prefix+".validators", ConfigDefault.Validators, fmt.Sprintf("validator addresses, at most %d", claims.MaxValidators))
	f.Duration(prefix+".input-duration", ConfigDefault.InputDuration, "how long each epoch accumulates inputs before claims open")
	f.Duration(prefix+".challenge-period", ConfigDefault.ChallengePeriod, "how long a dispute may stay open before it is reported as unresolved")
	f.String(prefix+".arbitrator", ConfigDefault.Arbitrator, "address allowed to resolve disputes")
	f.String(prefix+".deposit-bridge", ConfigDefault.DepositBridge, "address allowed to deposit rewards (defaults to the fee owner)")
	f.String(prefix+".fee-owner", ConfigDefault.FeeOwner, "address allowed to reconfigure fees")
	f.String(prefix+".fee-per-claim", ConfigDefault.FeePerClaim, "reward credited per accepted claim, in token base units")
	f.String(prefix+".fee-token", ConfigDefault.FeeToken, "reward token address")
	f.Uint64(prefix+".max-input-size", ConfigDefault.MaxInputSize, "largest accepted input payload in bytes (0 for no limit)")
	f.Int(prefix+".history-size", ConfigDefault.HistorySize, "number of finalized epochs kept in the read cache")
	f.Bool(prefix+".finalize-on-timeout", ConfigDefault.FinalizeOnTimeout, "finalize an undisputed epoch with the agreeing validators once the challenge period has passed since its first claim")
}

// Params are the typed engine settings.
type Params struct {
	Validators        []common.Address
	InputDuration     time.Duration
	ChallengePeriod   time.Duration
	Arbitrator        common.Address
	DepositBridge     common.Address
	FeeOwner          common.Address
	FeePerClaim       *uint256.Int
	FeeToken          common.Address
	MaxInputSize      uint64
	HistorySize       int
	FinalizeOnTimeout bool
}

func parseAddress(name, value string, required bool) (common.Address, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return common.Address{}, fmt.Errorf("%w: %s is required", ErrInvalidConfiguration, name)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %s %q is not an address", ErrInvalidConfiguration, name, value)
	}
	return common.HexToAddress(value), nil
}

func (c *Config) Params() (*Params, error) {
	p := &Params{
		InputDuration:     c.InputDuration,
		ChallengePeriod:   c.ChallengePeriod,
		MaxInputSize:      c.MaxInputSize,
		HistorySize:       c.HistorySize,
		FinalizeOnTimeout: c.FinalizeOnTimeout,
	}
	for i, v := range c.Validators {
		addr, err := parseAddress(fmt.Sprintf("validator %d", i), v, true)
		if err != nil {
			return nil, err
		}
		p.Validators = append(p.Validators, addr)
	}
	var err error
	if p.Arbitrator, err = parseAddress("arbitrator", c.Arbitrator, false); err != nil {
		return nil, err
	}
	if p.DepositBridge, err = parseAddress("deposit bridge", c.DepositBridge, false); err != nil {
		return nil, err
	}
	if p.FeeOwner, err = parseAddress("fee owner", c.FeeOwner, true); err != nil {
		return nil, err
	}
	if p.FeeToken, err = parseAddress("fee token", c.FeeToken, false); err != nil {
		return nil, err
	}
	fee := c.FeePerClaim
	if fee == "" {
		fee = "0"
	}
	if p.FeePerClaim, err = uint256.FromDecimal(fee); err != nil {
		return nil, fmt.Errorf("%w: fee per claim %q: %w", ErrInvalidConfiguration, c.FeePerClaim, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Params) Validate() error {
	if p.InputDuration <= 0 {
		return fmt.Errorf("%w: input duration must be positive", ErrInvalidConfiguration)
	}
	if p.ChallengePeriod <= 0 {
		return fmt.Errorf("%w: challenge period must be positive", ErrInvalidConfiguration)
	}
	if p.FeeOwner == (common.Address{}) {
		return fmt.Errorf("%w: fee owner is required", ErrInvalidConfiguration)
	}
	if p.HistorySize <= 0 {
		return fmt.Errorf("%w: history size must be positive", ErrInvalidConfiguration)
	}
	if _, err := validators.NewManager(p.Validators); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}
