// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package colors

var Red = "\033[31;1m"

var Clear = "\033[0;0m"
