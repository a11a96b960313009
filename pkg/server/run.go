package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clintecker/hector/pkg/version"
)

const metricsLogInterval = time.Minute

// Run listens on the configured address and serves until ctx is cancelled
// or Shutdown is called.
func (s *Server) Run(ctx context.Context) error {
	if s.identities == nil {
		return fmt.Errorf("server: missing identity store dependency")
	}
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln. The metrics endpoint runs alongside when
// a metrics address is configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-s.ctx.Done():
		}
		s.Shutdown()
		return nil
	})
	g.Go(func() error {
		err := s.acceptLoop(s.ctx, ln)
		s.cancel()
		return err
	})
	if s.cfg.MetricsAddr != "" {
		g.Go(func() error {
			mctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				<-s.ctx.Done()
				cancel()
			}()
			return s.serveMetrics(mctx)
		})
	}

	s.metrics.StartPeriodicLog(s.log, metricsLogInterval, s.ctx.Done())
	s.log.Info("hector server running",
		"version", version.Full(),
		"server_name", s.cfg.ServerName,
		"addr", ln.Addr().String(),
	)
	return g.Wait()
}

// Shutdown stops accepting connections and closes every open connection.
func (s *Server) Shutdown() {
	s.cancel()

	s.mu.Lock()
	ln := s.listener
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, c := range conns {
		s.closeLink(c, "Server shutting down")
	}
}
