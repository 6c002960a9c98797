// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/offchainlabs/rollups-consensus/util/signature"
)

var ErrNotConnected = errors.New("rpc client not connected")

type ClientConfig struct {
	URL            string        `koanf:"url"`
	JWTSecret      string        `koanf:"jwtsecret"`
	Timeout        time.Duration `koanf:"timeout" reload:"hot"`
	Retries        uint          `koanf:"retries" reload:"hot"`
	ConnectionWait time.Duration `koanf:"connection-wait"`
	ArgLogLimit    uint          `koanf:"arg-log-limit" reload:"hot"`
	RetryErrors    string        `koanf:"retry-errors" reload:"hot"`
}

func (c *ClientConfig) Validate() error {
	if c.RetryErrors == "" {
		return nil
	}
	if _, err := regexp.Compile(c.RetryErrors); err != nil {
		return fmt.Errorf("invalid retry-errors %q: %w", c.RetryErrors, err)
	}
	return nil
}

type ClientConfigFetcher func() *ClientConfig

var TestClientConfig = ClientConfig{
	Timeout:     time.Second * 5,
	ArgLogLimit: 2048,
}

var DefaultClientConfig = ClientConfig{
	URL:            "ws://127.0.0.1:8547",
	Timeout:        time.Second * 30,
	ConnectionWait: time.Second * 10,
	ArgLogLimit:    2048,
}

func RPCClientAddOptions(prefix string, f *flag.FlagSet, defaultConfig *ClientConfig) {
	f.String(prefix+".url", defaultConfig.URL, "url of the rollups JSON-RPC server (ws:// or http://)")
	f.String(prefix+".jwtsecret", defaultConfig.JWTSecret, "32 byte hex JWT secret, or a path to a file containing it")
	f.Duration(prefix+".connection-wait", defaultConfig.ConnectionWait, "how long to keep dialing before giving up")
	f.Duration(prefix+".timeout", defaultConfig.Timeout, "per-call timeout (0 disables)")
	f.Uint(prefix+".arg-log-limit", defaultConfig.ArgLogLimit, "truncate each logged argument to this many bytes")
	f.Uint(prefix+".retries", defaultConfig.Retries, "extra attempts after a timed out call")
	f.String(prefix+".retry-errors", defaultConfig.RetryErrors, "also retry errors matching this regular expression")
}

// RpcClient wraps rpc.Client with per-call timeouts, retries and trimmed
// argument logging.
type RpcClient struct {
	config ClientConfigFetcher
	client *rpc.Client
	calls  atomic.Uint64
}

func NewRpcClient(config ClientConfigFetcher) *RpcClient {
	return &RpcClient{config: config}
}

func (c *RpcClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// limitString keeps the head and tail of str so the result is at most limit bytes.
func limitString(limit int, str string) string {
	if limit == 0 || len(str) <= limit {
		return str
	}
	half := limit/2 - 1
	return str[:half] + ".." + str[len(str)-half:]
}

func logArgs(limit int, args ...interface{}) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		encoded, err := json.Marshal(arg)
		if err != nil {
			b.WriteString(`"CANNOT MARSHALL:` + limitString(limit, err.Error()) + `"`)
			continue
		}
		b.WriteString(limitString(limit, string(encoded)))
	}
	b.WriteByte(']')
	return b.String()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func (c *RpcClient) retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	pattern := c.config().RetryErrors
	if pattern == "" {
		return false
	}
	match, regexErr := regexp.MatchString(pattern, err.Error())
	if regexErr != nil {
		log.Warn("rpcclient: bad retry-errors pattern, not retrying", "err", regexErr, "pattern", pattern)
		return false
	}
	return match
}

func (c *RpcClient) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if c.client == nil {
		return ErrNotConnected
	}
	config := c.config()
	callId := c.calls.Add(1)
	log.Trace("sending RPC request", "method", method, "callId", callId, "args", logArgs(int(config.ArgLogLimit), args...))
	var err error
	for attempt := uint(0); attempt <= config.Retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		callCtx, cancel := withTimeout(ctx, config.Timeout)
		err = c.client.CallContext(callCtx, result, method, args...)
		cancel()
		if err == nil {
			log.Trace("rpc response", "method", method, "callId", callId, "attempt", attempt, "result", limitString(int(config.ArgLogLimit), fmt.Sprintf("%+v", result)))
			return nil
		}
		log.Info("rpc call failed", "method", method, "callId", callId, "attempt", attempt, "err", err, "args", logArgs(0, args...))
		if !c.retryable(err) {
			return err
		}
	}
	return err
}

func (c *RpcClient) Subscribe(ctx context.Context, namespace string, channel interface{}, args ...interface{}) (*rpc.ClientSubscription, error) {
	if c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client.Subscribe(ctx, namespace, channel, args...)
}

func (c *RpcClient) dial(ctx context.Context, url string, jwt *[32]byte) (*rpc.Client, error) {
	dialCtx, cancel := withTimeout(ctx, c.config().Timeout)
	defer cancel()
	if jwt == nil {
		return rpc.DialContext(dialCtx, url)
	}
	return rpc.DialOptions(dialCtx, url, rpc.WithHTTPAuth(node.NewJWTAuth(*jwt)))
}

// Start dials the configured url, retrying once a second until
// connection-wait has passed. Malformed urls fail immediately.
func (c *RpcClient) Start(ctx context.Context) error {
	config := c.config()
	if config.URL == "" {
		return errors.New("no url provided for this connection")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	jwt, err := signature.LoadSigningKey(config.JWTSecret)
	if err != nil {
		return err
	}
	deadline := time.After(config.ConnectionWait)
	for {
		client, err := c.dial(ctx, config.URL, (*[32]byte)(jwt))
		if err == nil {
			c.client = client
			return nil
		}
		if strings.Contains(err.Error(), "parse") || strings.Contains(err.Error(), "malformed") {
			return fmt.Errorf("%w: url %s", err, config.URL)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("timeout trying to connect lastError: %w", err)
		case <-time.After(time.Second):
		}
	}
}
