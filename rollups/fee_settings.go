// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/r3labs/diff/v3"

	"github.com/offchainlabs/rollups-consensus/fees"
)

// feeSettings are the fee values that configureFees can change at runtime,
// so a restart may find them differing from the flags.
type feeSettings struct {
	Owner       string `diff:"owner"`
	Token       string `diff:"token"`
	FeePerClaim string `diff:"fee-per-claim"`
}

func configuredFeeSettings(p *Params) feeSettings {
	return feeSettings{
		Owner:       p.FeeOwner.Hex(),
		Token:       p.FeeToken.Hex(),
		FeePerClaim: p.FeePerClaim.Dec(),
	}
}

func persistedFeeSettings(m *fees.Manager) feeSettings {
	return feeSettings{
		Owner:       m.Owner().Hex(),
		Token:       m.Token().Hex(),
		FeePerClaim: m.FeePerClaim().Dec(),
	}
}

// warnFeeOverrides logs every fee setting where the persisted value wins
// over the configured one.
func warnFeeOverrides(configured, persisted feeSettings) diff.Changelog {
	changelog, err := diff.Diff(configured, persisted)
	if err != nil {
		log.Warn("could not compare fee settings", "err", err)
		return nil
	}
	for _, change := range changelog {
		log.Warn("using persisted fee setting", "setting", strings.Join(change.Path, "."), "configured", change.From, "persisted", change.To)
	}
	return changelog
}
