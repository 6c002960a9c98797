// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/log"
	flag "github.com/spf13/pflag"

	"github.com/offchainlabs/rollups-consensus/util"
	"github.com/offchainlabs/rollups-consensus/util/stopwaiter"
)

type DriverConfig struct {
	Enable       bool          `koanf:"enable"`
	PollInterval time.Duration `koanf:"poll-interval"`
	// DisputeWarnDuration is how long an unresolved dispute is logged as a
	// warning before it is logged as an error.
	DisputeWarnDuration time.Duration `koanf:"dispute-warn-duration"`
}

var DefaultDriverConfig = DriverConfig{
	Enable:              true,
	PollInterval:        time.Second,
	DisputeWarnDuration: 30 * time.Minute,
}

var TestDriverConfig = DriverConfig{
	Enable:              true,
	PollInterval:        10 * time.Millisecond,
	DisputeWarnDuration: time.Minute,
}

func DriverConfigAddOptions(prefix string, f *flag.FlagSet) {
	f.Bool(prefix+".enable", DefaultDriverConfig.Enable, "advance phases automatically")
	f.Duration(prefix+".poll-interval", DefaultDriverConfig.PollInterval, "longest wait between phase checks")
	f.Duration(prefix+".dispute-warn-duration", DefaultDriverConfig.DisputeWarnDuration, "how long an unresolved dispute is logged as a warning before being logged as an error")
}

func (c *DriverConfig) Validate() error {
	if c.Enable && c.PollInterval <= 0 {
		return errors.New("driver poll interval must be positive")
	}
	return nil
}

type DriverConfigFetcher func() *DriverConfig

// Driver calls AdvancePhase whenever a phase deadline passes, and right after
// any engine event, so the engine makes progress without outside callers. It
// also settles submitted reward payouts.
type Driver struct {
	stopwaiter.StopWaiter
	engine         *Engine
	config         DriverConfigFetcher
	disputeHandler *util.EphemeralErrorHandler
	trigger        chan struct{}
}

func NewDriver(engine *Engine, config DriverConfigFetcher) (*Driver, error) {
	if err := config().Validate(); err != nil {
		return nil, err
	}
	disputeHandler := util.NewEphemeralErrorHandler(config().DisputeWarnDuration, ErrDisputeUnresolved.Error(), 0)
	disputeHandler.Clock = engine.Now
	return &Driver{
		engine:         engine,
		config:         config,
		disputeHandler: disputeHandler,
		trigger:        make(chan struct{}, 1),
	}, nil
}

func (d *Driver) Start(ctxIn context.Context) {
	d.StopWaiter.Start(ctxIn, d)
	events := make(chan Event, 16)
	sub := d.engine.SubscribeEvents(events)
	d.LaunchThread(func(ctx context.Context) {
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					log.Error("engine event subscription failed", "err", err)
				}
				return
			case ev := <-events:
				if ev.Kind == EventPhaseChanged || ev.Kind == EventClaimAccepted {
					d.poke()
				}
			}
		}
	})
	err := stopwaiter.CallIterativelyWith[struct{}](&d.StopWaiterSafe, d.tick, d.trigger)
	if err != nil {
		log.Error("failed to start phase driver", "err", err)
	}
}

func (d *Driver) poke() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

func (d *Driver) tick(ctx context.Context, _ struct{}) time.Duration {
	config := d.config()
	if err := d.engine.SettlePayouts(ctx); err != nil {
		log.Warn("could not settle reward payouts", "err", err)
	}
	phase, err := d.engine.AdvancePhase()
	if err != nil {
		logLevel := log.Error
		logLevel = d.disputeHandler.LogLevel(err, logLevel)
		logLevel("phase driver could not advance", "phase", phase, "epoch", d.engine.Epoch(), "err", err)
		return config.PollInterval
	}
	d.disputeHandler.Reset()
	deadline, ok := d.engine.NextDeadline()
	if !ok {
		return config.PollInterval
	}
	wait := deadline.Sub(d.engine.Now())
	if wait <= 0 {
		// Due now; the next call advances.
		return time.Millisecond
	}
	if wait > config.PollInterval {
		return config.PollInterval
	}
	return wait
}
