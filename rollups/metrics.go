// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	claimsAcceptedCounter   = metrics.NewRegisteredCounter("rollups/claims/accepted", nil)
	consensusReachedCounter = metrics.NewRegisteredCounter("rollups/consensus/reached", nil)
	disputesEnteredCounter  = metrics.NewRegisteredCounter("rollups/disputes/entered", nil)
	disputesResolvedCounter = metrics.NewRegisteredCounter("rollups/disputes/resolved", nil)
	feesCreditedCounter     = metrics.NewRegisteredCounter("rollups/fees/credited", nil)
	withdrawalsCounter      = metrics.NewRegisteredCounter("rollups/withdrawals", nil)
	payoutsRevertedCounter  = metrics.NewRegisteredCounter("rollups/withdrawals/reverted", nil)
	inputsCounter           = metrics.NewRegisteredCounter("rollups/inputs", nil)
	epochGauge              = metrics.NewRegisteredGauge("rollups/epoch", nil)
	phaseGauge              = metrics.NewRegisteredGauge("rollups/phase", nil)
)

func recordMetrics(events []Event) {
	for _, ev := range events {
		switch ev.Kind {
		case EventClaimAccepted:
			claimsAcceptedCounter.Inc(1)
		case EventConsensusReached:
			consensusReachedCounter.Inc(1)
		case EventDisputeEntered:
			disputesEnteredCounter.Inc(1)
		case EventDisputeResolved:
			disputesResolvedCounter.Inc(1)
		case EventFeesCredited:
			feesCreditedCounter.Inc(int64(len(ev.Validators)))
		case EventWithdrawalExecuted:
			withdrawalsCounter.Inc(1)
		case EventWithdrawalReverted:
			payoutsRevertedCounter.Inc(1)
		case EventInputAdded:
			inputsCounter.Inc(1)
		case EventPhaseChanged:
			if ev.To != nil {
				phaseGauge.Update(int64(*ev.To))
			}
			epochGauge.Update(int64(ev.Epoch))
		}
	}
}
