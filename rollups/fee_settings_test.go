// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/r3labs/diff/v3"
	"github.com/stretchr/testify/require"
)

func TestWarnFeeOverrides(t *testing.T) {
	params := testParams(t, 2)
	configured := configuredFeeSettings(params)
	require.Empty(t, warnFeeOverrides(configured, configured))

	persisted := configured
	persisted.FeePerClaim = "250"
	persisted.Token = common.HexToAddress("0x77").Hex()
	changelog := warnFeeOverrides(configured, persisted)
	require.Len(t, changelog, 2)
	for _, change := range changelog {
		require.Equal(t, diff.UPDATE, change.Type)
	}
	require.ElementsMatch(t, [][]string{{"token"}, {"fee-per-claim"}}, [][]string{changelog[0].Path, changelog[1].Path})
}

func TestPersistedFeeSettingsWinOnRestart(t *testing.T) {
	params := testParams(t, 2)
	e := newTestEngine(t, params)
	require.NoError(t, e.ConfigureFees(params.FeeOwner, uint256.NewInt(250), params.FeeToken))

	reopened := openTestEngine(t, params, e.store, e.clock)
	settings := persistedFeeSettings(reopened.fees)
	require.Equal(t, "250", settings.FeePerClaim)
	require.NotEmpty(t, warnFeeOverrides(configuredFeeSettings(params), settings))
}
