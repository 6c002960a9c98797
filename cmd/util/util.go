// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package util

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"

	"github.com/offchainlabs/rollups-consensus/cmd/genericconf"
)

type MetricsOpts struct {
	Metrics       bool                            `koanf:"metrics"`
	MetricsServer genericconf.MetricsServerConfig `koanf:"metrics-server"`
}

// StartMetrics serves the metrics registry over HTTP when --metrics is set.
// Metrics collection itself can only be switched on from the command line,
// so a config file asking for it is an error.
func StartMetrics(opts *MetricsOpts) error {
	if !opts.Metrics {
		return nil
	}
	if !metrics.Enabled {
		return errors.New("metrics must be enabled via command line by adding --metrics, json config has no effect")
	}
	if len(opts.MetricsServer.Addr) == 0 {
		return errors.New("metrics is enabled, but missing --metrics-server.addr")
	}
	go metrics.CollectProcessMetrics(opts.MetricsServer.UpdateInterval)
	exp.Setup(fmt.Sprintf("%v:%v", opts.MetricsServer.Addr, opts.MetricsServer.Port))
	return nil
}
