// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package genericconf

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
)

func TestToSlogLevel(t *testing.T) {
	for input, want := range map[string]interface{}{
		"info":  log.LevelInfo,
		"DEBUG": log.LevelDebug,
		"warn":  log.LevelWarn,
		"1":     log.LevelError,
		"5":     log.LevelTrace,
		"crit":  log.LevelCrit,
	} {
		got, err := ToSlogLevel(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
	_, err := ToSlogLevel("loud")
	require.Error(t, err)
}

func TestHandlerFromLogType(t *testing.T) {
	var buf bytes.Buffer
	handler, err := HandlerFromLogType("json", &buf)
	require.NoError(t, err)
	log.NewLogger(handler).Info("hello", "epoch", 3)
	require.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	handler, err = HandlerFromLogType("plaintext", &buf)
	require.NoError(t, err)
	log.NewLogger(handler).Info("hello", "epoch", 3)
	require.True(t, strings.Contains(buf.String(), "epoch=3"), buf.String())

	_, err = HandlerFromLogType("xml", &buf)
	require.True(t, errors.Is(err, ErrUnknownLogType))
}

func TestInitLogToFile(t *testing.T) {
	dir := t.TempDir()
	prev := log.Root()
	t.Cleanup(func() {
		log.SetDefault(prev)
		require.NoError(t, globalFileLogger.close())
	})

	config := DefaultFileLoggingConfig
	config.Enable = true
	config.Compress = false
	require.NoError(t, InitLog("json", "info", &config, DefaultPathResolver(dir)))
	log.Info("written to file")
	require.NoError(t, globalFileLogger.close())

	contents, err := os.ReadFile(filepath.Join(dir, config.File))
	require.NoError(t, err)
	require.Contains(t, string(contents), "written to file")

	require.Error(t, InitLog("yaml", "info", &DefaultFileLoggingConfig, DefaultPathResolver(dir)))
}

func TestDefaultPathResolver(t *testing.T) {
	resolve := DefaultPathResolver("/var/lib/rollups")
	require.Equal(t, "/var/lib/rollups/state", resolve("state"))
	require.Equal(t, "/tmp/state", resolve("/tmp/state"))
}
