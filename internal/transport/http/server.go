package httptransport

import (
	"context"
	"net"
	"net/http"
	"time"
)

// ServerConfig contains tunables for the HTTP server.
type ServerConfig struct {
	Address           string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	// BaseContext, when set, parents every request context. Cancelling it ends hijacked
	// practice streams, which http.Server.Shutdown does not track.
	BaseContext context.Context
}

// NewServer creates *http.Server with provided handler. Practice streams are long-lived
// WebSocket connections, so no whole-request read or write deadline is set here; the stream
// handler enforces its own per-message deadlines.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	server := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
	if cfg.BaseContext != nil {
		server.BaseContext = func(net.Listener) context.Context { return cfg.BaseContext }
	}
	return server
}
