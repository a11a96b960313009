// Package server implements the hector IRC server: the TCP listener,
// connection registration and the command capabilities dispatched by
// sessions.
package server

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"github.com/clintecker/hector/pkg/channel"
	"github.com/clintecker/hector/pkg/session"
	"github.com/clintecker/hector/pkg/store"
)

// Dependencies holds external dependencies for the server. The caller owns
// the identity store and closes it after Run returns.
type Dependencies struct {
	Identities store.IdentityStore
	Logger     *slog.Logger
}

// Server is the main hector server.
type Server struct {
	cfg        Config
	log        *slog.Logger
	identities store.IdentityStore
	sessions   *session.Registry
	channels   *channel.Registry
	metrics    *Metrics

	mu       sync.Mutex
	conns    map[*Conn]struct{}
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a new Server instance.
func New(cfg Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:        cfg,
		log:        logger,
		identities: deps.Identities,
		channels:   channel.NewRegistry(logger),
		conns:      make(map[*Conn]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
	s.metrics = NewMetrics(
		func() int { return s.sessions.Len() },
		func() int { return s.channels.Len() },
	)
	s.sessions = session.NewRegistry(session.Options{
		ServerName: cfg.ServerName,
		Commands:   s.metrics.Instrument(s.commands()),
		Channels:   s.channels,
		Presence:   s.channels,
		KeepAlive:  s.newKeepAlive,
		Logger:     logger,
	})
	return s
}

// Sessions returns the nickname registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Channels returns the channel registry.
func (s *Server) Channels() *channel.Registry {
	return s.channels
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) track(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}
