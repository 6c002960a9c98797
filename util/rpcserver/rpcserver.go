// Copyright 2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/rollups-consensus/blob/main/LICENSE

package rpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/spf13/pflag"

	"github.com/offchainlabs/rollups-consensus/util/signature"
)

type Config struct {
	Enable               bool          `koanf:"enable"`
	Addr                 string        `koanf:"addr"`
	Port                 int           `koanf:"port"`
	CORSDomain           []string      `koanf:"corsdomain"`
	VHosts               []string      `koanf:"vhosts"`
	WSOrigins            []string      `koanf:"ws-origins"`
	JWTSecret            string        `koanf:"jwtsecret"`
	ReadTimeout          time.Duration `koanf:"read-timeout"`
	WriteTimeout         time.Duration `koanf:"write-timeout"`
	IdleTimeout          time.Duration `koanf:"idle-timeout"`
	BatchRequestLimit    int           `koanf:"batch-request-limit"`
	BatchResponseMaxSize int           `koanf:"batch-response-max-size"`
}

var DefaultConfig = Config{
	Enable:               true,
	Addr:                 "127.0.0.1",
	Port:                 8547,
	CORSDomain:           []string{},
	VHosts:               []string{"localhost"},
	WSOrigins:            []string{},
	JWTSecret:            "",
	ReadTimeout:          rpc.DefaultHTTPTimeouts.ReadTimeout,
	WriteTimeout:         rpc.DefaultHTTPTimeouts.WriteTimeout,
	IdleTimeout:          rpc.DefaultHTTPTimeouts.IdleTimeout,
	BatchRequestLimit:    node.DefaultConfig.BatchRequestLimit,
	BatchResponseMaxSize: node.DefaultConfig.BatchResponseMaxSize,
}

var TestConfig = Config{
	Enable:               true,
	Addr:                 "127.0.0.1",
	Port:                 0,
	VHosts:               []string{"*"},
	WSOrigins:            []string{"*"},
	ReadTimeout:          time.Second * 5,
	WriteTimeout:         time.Second * 5,
	IdleTimeout:          time.Second * 5,
	BatchRequestLimit:    100,
	BatchResponseMaxSize: 1_000_000,
}

func ConfigAddOptions(prefix string, f *pflag.FlagSet) {
	f.Bool(prefix+".enable", DefaultConfig.Enable, "serve the JSON-RPC API over HTTP and websocket")
	f.String(prefix+".addr", DefaultConfig.Addr, "JSON-RPC server listening interface")
	f.Int(prefix+".port", DefaultConfig.Port, "JSON-RPC server listening port (0 picks a free port)")
	f.StringSlice(prefix+".corsdomain", DefaultConfig.CORSDomain, "comma separated list of domains from which to accept cross origin requests (browser enforced)")
	f.StringSlice(prefix+".vhosts", DefaultConfig.VHosts, "comma separated list of virtual hostnames from which to accept requests (server enforced), accepts '*' wildcard")
	f.StringSlice(prefix+".ws-origins", DefaultConfig.WSOrigins, "origins from which to accept websocket requests")
	f.String(prefix+".jwtsecret", DefaultConfig.JWTSecret, "32 byte hex JWT secret, or a path to a file containing it, required from every caller (empty disables authentication)")
	f.Duration(prefix+".read-timeout", DefaultConfig.ReadTimeout, "HTTP read timeout")
	f.Duration(prefix+".write-timeout", DefaultConfig.WriteTimeout, "HTTP write timeout")
	f.Duration(prefix+".idle-timeout", DefaultConfig.IdleTimeout, "HTTP idle timeout")
	f.Int(prefix+".batch-request-limit", DefaultConfig.BatchRequestLimit, "maximum number of requests in a batch")
	f.Int(prefix+".batch-response-max-size", DefaultConfig.BatchResponseMaxSize, "maximum number of bytes returned from a batched call")
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid rpc port %d", c.Port)
	}
	if c.BatchRequestLimit < 0 || c.BatchResponseMaxSize < 0 {
		return errors.New("rpc batch limits must not be negative")
	}
	return nil
}

// Server serves a set of APIs over plain HTTP and websocket on one port.
// Websocket upgrades are routed to the websocket handler; subscriptions
// only work there.
type Server struct {
	rpc      *rpc.Server
	http     *http.Server
	listener net.Listener
}

func Start(config *Config, apis []rpc.API) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var jwtSecret []byte
	secret, err := signature.LoadSigningKey(config.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("loading jwt secret: %w", err)
	}
	if secret != nil {
		jwtSecret = secret.Bytes()
	}

	srv := rpc.NewServer()
	srv.SetBatchLimits(config.BatchRequestLimit, config.BatchResponseMaxSize)
	for _, api := range apis {
		if err := srv.RegisterName(api.Namespace, api.Service); err != nil {
			return nil, fmt.Errorf("registering %s api: %w", api.Namespace, err)
		}
	}

	httpHandler := node.NewHTTPHandlerStack(srv, config.CORSDomain, config.VHosts, jwtSecret)
	wsHandler := node.NewWSHandlerStack(srv.WebsocketHandler(config.WSOrigins), jwtSecret)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isWebsocket(r) {
			wsHandler.ServeHTTP(w, r)
			return
		}
		httpHandler.ServeHTTP(w, r)
	})

	listener, err := net.Listen("tcp", net.JoinHostPort(config.Addr, fmt.Sprint(config.Port)))
	if err != nil {
		srv.Stop()
		return nil, err
	}
	server := &Server{
		rpc: srv,
		http: &http.Server{
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
		},
		listener: listener,
	}
	go func() {
		err := server.http.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("rpc server stopped", "err", err)
		}
	}()
	log.Info("JSON-RPC server started", "http", server.HTTPEndpoint(), "ws", server.WSEndpoint(), "auth", jwtSecret != nil)
	return server, nil
}

func isWebsocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) HTTPEndpoint() string {
	return "http://" + s.listener.Addr().String()
}

func (s *Server) WSEndpoint() string {
	return "ws://" + s.listener.Addr().String()
}

// Shutdown stops accepting requests and closes open subscriptions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rpc.Stop()
	return s.http.Shutdown(ctx)
}
