// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package util

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
)

func TestSimple(t *testing.T) {
	allErrHandler := NewEphemeralErrorHandler(2500*time.Millisecond, "", time.Second)
	err := errors.New("sample error")
	logLevel := allErrHandler.LogLevel(err, log.Error)
	if !CompareLogLevels(log.Debug, logLevel) {
		t.Fatalf("incorrect loglevel output. Want: Debug")
	}

	time.Sleep(1 * time.Second)
	logLevel = allErrHandler.LogLevel(err, log.Error)
	if !CompareLogLevels(log.Warn, logLevel) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}

	time.Sleep(2 * time.Second)
	logLevel = allErrHandler.LogLevel(err, log.Error)
	if !CompareLogLevels(log.Error, logLevel) {
		t.Fatalf("incorrect loglevel output. Want: Error")
	}
}

func TestComplex(t *testing.T) {
	// Simulation: errorA happens continuously for 2 seconds and then errorB happens
	errorAHandler := NewEphemeralErrorHandler(time.Second, "errorA", 0)
	errorBHandler := NewEphemeralErrorHandler(1500*time.Millisecond, "errorB", 0)

	// Computes result of chaining two ephemeral error handlers for a given recurring error
	chainingErrHandlers := func(err error) func(string, ...interface{}) {
		logLevel := log.Error
		logLevel = errorAHandler.LogLevel(err, logLevel)
		logLevel = errorBHandler.LogLevel(err, logLevel)
		return logLevel
	}

	errA := errors.New("this is a sample errorA")
	if !CompareLogLevels(log.Warn, chainingErrHandlers(errA)) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}
	time.Sleep(2 * time.Second)
	if !CompareLogLevels(log.Error, chainingErrHandlers(errA)) {
		t.Fatalf("incorrect loglevel output. Want: Error")
	}

	errB := errors.New("this is a sample errorB")
	if !CompareLogLevels(log.Warn, chainingErrHandlers(errB)) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}
	if !CompareLogLevels(log.Warn, chainingErrHandlers(errA)) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}

	errC := errors.New("random error")
	if !CompareLogLevels(log.Error, chainingErrHandlers(errC)) {
		t.Fatalf("incorrect loglevel output. Want: Error")
	}
}

func TestResetOnOtherError(t *testing.T) {
	handler := NewEphemeralErrorHandler(time.Hour, "dispute unresolved", 0)
	disputeErr := errors.New("epoch 4: dispute unresolved")
	if !CompareLogLevels(log.Warn, handler.LogLevel(disputeErr, log.Error)) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}
	if handler.FirstOccurrence.IsZero() {
		t.Fatalf("first occurrence not recorded")
	}
	if !CompareLogLevels(log.Info, handler.LogLevel(errors.New("storage closed"), log.Info)) {
		t.Fatalf("incorrect loglevel output. Want: Info")
	}
	if !handler.FirstOccurrence.IsZero() {
		t.Fatalf("first occurrence not reset")
	}
}

func TestClockDrivesEscalation(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	handler := NewEphemeralErrorHandler(time.Minute, "dispute unresolved", 0)
	handler.Clock = func() time.Time { return now }
	err := errors.New("epoch 2: dispute unresolved")

	if !CompareLogLevels(log.Warn, handler.LogLevel(err, log.Error)) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}
	now = now.Add(59 * time.Second)
	if !CompareLogLevels(log.Warn, handler.LogLevel(err, log.Error)) {
		t.Fatalf("incorrect loglevel output. Want: Warn")
	}
	now = now.Add(time.Second)
	if !CompareLogLevels(log.Error, handler.LogLevel(err, log.Error)) {
		t.Fatalf("incorrect loglevel output. Want: Error")
	}
}
