// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package testhelpers

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"regexp"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/offchainlabs/rollups-consensus/util/colors"
)

// Fail a test should an error occur
func RequireImpl(t testing.TB, err error, printables ...interface{}) {
	t.Helper()
	if err != nil {
		t.Fatal(colors.Red, printables, err, colors.Clear)
	}
}

func FailImpl(t testing.TB, printables ...interface{}) {
	t.Helper()
	t.Fatal(colors.Red, printables, colors.Clear)
}

func RandomizeSlice(slice []byte) []byte {
	_, err := rand.Read(slice)
	if err != nil {
		panic(err)
	}
	return slice
}

func RandomSlice(size uint64) []byte {
	return RandomizeSlice(make([]byte, size))
}

func RandomHash() common.Hash {
	var hash common.Hash
	RandomizeSlice(hash[:])
	return hash
}

func RandomAddress() common.Address {
	var address common.Address
	RandomizeSlice(address[:])
	return address
}

// RandomAddresses returns n distinct non-zero addresses.
func RandomAddresses(n int) []common.Address {
	seen := make(map[common.Address]bool, n)
	ret := make([]common.Address, 0, n)
	for len(ret) < n {
		addr := RandomAddress()
		if addr == (common.Address{}) || seen[addr] {
			continue
		}
		seen[addr] = true
		ret = append(ret, addr)
	}
	return ret
}

// LogHandler records every message that passes through it so tests can assert
// on what was logged.
type LogHandler struct {
	t       testing.TB
	mutex   *sync.Mutex
	records *[]slog.Record
	inner   slog.Handler
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *LogHandler) Handle(ctx context.Context, record slog.Record) error {
	if err := h.inner.Handle(ctx, record); err != nil {
		return err
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	*h.records = append(*h.records, record.Clone())
	return nil
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.inner = h.inner.WithAttrs(attrs)
	return &c
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	c := *h
	c.inner = h.inner.WithGroup(name)
	return &c
}

func (h *LogHandler) WasLogged(pattern string) bool {
	re, err := regexp.Compile(pattern)
	RequireImpl(h.t, err)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, record := range *h.records {
		if re.MatchString(record.Message) {
			return true
		}
	}
	return false
}

// WasLoggedAt is WasLogged restricted to records logged at level.
func (h *LogHandler) WasLoggedAt(level slog.Level, pattern string) bool {
	re, err := regexp.Compile(pattern)
	RequireImpl(h.t, err)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, record := range *h.records {
		if record.Level == level && re.MatchString(record.Message) {
			return true
		}
	}
	return false
}

func newLogHandler(t testing.TB) *LogHandler {
	return &LogHandler{
		t:       t,
		mutex:   &sync.Mutex{},
		records: &[]slog.Record{},
		inner:   log.NewTerminalHandler(os.Stderr, false),
	}
}

// InitTestLog installs a recording handler as the default logger. The
// previous default is restored when the test ends.
func InitTestLog(t testing.TB, level slog.Level) *LogHandler {
	handler := newLogHandler(t)
	glogger := log.NewGlogHandler(handler)
	glogger.Verbosity(level)
	previous := log.Root()
	log.SetDefault(log.NewLogger(glogger))
	t.Cleanup(func() { log.SetDefault(previous) })
	return handler
}
