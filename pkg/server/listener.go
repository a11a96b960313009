package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/clintecker/hector/pkg/protocol"
	"github.com/clintecker/hector/pkg/session"
)

// acceptLoop accepts connections until the listener is closed.
func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	s.log.Info("listening", "addr", ln.Addr().String())
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Error("accept error", "err", err)
			continue
		}
		go s.ServeConn(ctx, nc)
	}
}

// ServeConn runs one client connection to completion: registration, then
// dispatch of every line to the session until the connection closes.
func (s *Server) ServeConn(ctx context.Context, nc net.Conn) {
	c := newConn(nc, s.cfg.SendQueueSize, s.log)
	s.track(c)
	s.metrics.connectionsTotal.Inc()
	s.metrics.connectionsActive.Inc()
	c.log.Debug("connection accepted")

	defer func() {
		_ = c.Close()
		<-c.Flushed()
		s.untrack(c)
		s.metrics.connectionsActive.Dec()
		c.log.Debug("connection finished", "reason", c.Reason())
	}()

	lines := protocol.NewLineReader(nc, s.cfg.MaxLineLength)

	_ = nc.SetReadDeadline(time.Now().Add(s.cfg.RegistrationTimeout))
	sess, err := s.register(ctx, c, lines)
	if err != nil {
		c.log.Debug("registration ended", "err", err)
		return
	}
	_ = nc.SetReadDeadline(time.Time{})

	s.serve(sess, c, lines)
}

// serve reads lines for a registered session until the connection closes,
// then tears the session down. Overlong lines are answered with 417 and
// dropped.
func (s *Server) serve(sess *session.Session, c *Conn, lines *protocol.LineReader) {
	var readErr error
	for !c.Closed() {
		line, err := lines.ReadLine()
		if errors.Is(err, protocol.ErrLineTooLong) {
			_ = sess.RespondWith(protocol.ErrInputTooLong, me, session.Lit("Input line was too long"))
			continue
		}
		if err != nil {
			readErr = err
			break
		}
		req, err := protocol.ParseRequest(line)
		if err != nil {
			continue
		}
		if err := sess.Receive(req); err != nil {
			sess.Logger().Warn("command failed", "command", req.Command, "err", err)
		}
	}

	if sess.Destroyed() {
		return
	}
	reason := c.Reason()
	if reason == "" {
		reason = "Connection closed"
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			reason = "Read error"
		}
	}
	_ = sess.BroadcastOthers("QUIT", session.Lit(reason))
	sess.Destroy()
	sess.Logger().Info("session closed", "nick", sess.Nickname(), "reason", reason)
}
