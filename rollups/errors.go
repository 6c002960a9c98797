// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rollups

import (
	"errors"

	"github.com/offchainlabs/rollups-consensus/claims"
	"github.com/offchainlabs/rollups-consensus/fees"
	"github.com/offchainlabs/rollups-consensus/inbox"
	"github.com/offchainlabs/rollups-consensus/validators"
)

var (
	ErrPhaseMismatch        = errors.New("operation not allowed in current phase")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrDisputeUnresolved    = errors.New("dispute unresolved past challenge period")
	ErrInvalidResolution    = errors.New("invalid dispute resolution")
	ErrEpochNotFound        = errors.New("epoch not finalized")
	ErrInvalidAmount        = errors.New("invalid amount")
)

// Errors returned by the engine's components, re-exported so callers can
// match against a single package.
var (
	ErrNotAValidator        = validators.ErrNotAValidator
	ErrDuplicateClaim       = validators.ErrDuplicateClaim
	ErrEpochMismatch        = validators.ErrEpochMismatch
	ErrValidatorSetTooLarge = claims.ErrValidatorSetTooLarge
	ErrUnauthorized         = fees.ErrUnauthorized
	ErrInsufficientBalance  = fees.ErrInsufficientBalance
	ErrInsufficientFunds    = fees.ErrInsufficientFunds
	ErrTransferFailed       = fees.ErrTransferFailed
	ErrInputTooLarge        = inbox.ErrInputTooLarge
	ErrInputNotFound        = inbox.ErrInputNotFound
)
