// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package util

import (
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

// EphemeralErrorHandler picks a log level for a recurring error. An error
// matching ErrorString is logged at IgnoredErrLogLevel for IgnoreDuration
// after it first shows up, then at Warn until Duration has passed, then at
// Error. Any other error resets the handler and keeps the caller's level.
// An empty ErrorString matches every error. Durations are measured with
// Clock, which defaults to time.Now.
type EphemeralErrorHandler struct {
	Duration        time.Duration
	ErrorString     string
	FirstOccurrence *time.Time
	Clock           func() time.Time

	IgnoreDuration     time.Duration
	IgnoredErrLogLevel func(string, ...interface{})
}

func NewEphemeralErrorHandler(duration time.Duration, errorString string, ignoreDuration time.Duration) *EphemeralErrorHandler {
	return &EphemeralErrorHandler{
		Duration:           duration,
		ErrorString:        errorString,
		FirstOccurrence:    &time.Time{},
		Clock:              time.Now,
		IgnoreDuration:     ignoreDuration,
		IgnoredErrLogLevel: log.Debug,
	}
}

// LogLevel returns the log function to use for err.
//
//	handler.LogLevel(err, log.Error)("dispute still open", "epoch", epoch, "err", err)
func (h *EphemeralErrorHandler) LogLevel(err error, currentLogLevel func(msg string, ctx ...interface{})) func(string, ...interface{}) {
	if h.ErrorString != "" && !strings.Contains(err.Error(), h.ErrorString) {
		h.Reset()
		return currentLogLevel
	}

	now := time.Now
	if h.Clock != nil {
		now = h.Clock
	}
	if *h.FirstOccurrence == (time.Time{}) {
		*h.FirstOccurrence = now()
	}

	since := now().Sub(*h.FirstOccurrence)
	if h.IgnoreDuration != 0 && since < h.IgnoreDuration {
		return h.IgnoredErrLogLevel
	}
	if since < h.Duration {
		return log.Warn
	}
	return log.Error
}

func (h *EphemeralErrorHandler) Reset() {
	*h.FirstOccurrence = time.Time{}
}

// CompareLogLevels reports whether two log functions are the same function.
func CompareLogLevels(a, b func(string, ...interface{})) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
