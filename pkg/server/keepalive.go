package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/clintecker/hector/pkg/protocol"
	"github.com/clintecker/hector/pkg/session"
)

// keepAlive pings a session every interval and closes its connection when a
// PING goes unanswered for a whole interval.
type keepAlive struct {
	srv      *Server
	sess     *session.Session
	interval time.Duration

	ponged   atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
}

func (s *Server) newKeepAlive(sess *session.Session) session.KeepAlive {
	return &keepAlive{
		srv:      s,
		sess:     sess,
		interval: s.cfg.PingInterval,
		stop:     make(chan struct{}),
	}
}

func (k *keepAlive) Start() {
	if k.interval <= 0 {
		return
	}
	k.ponged.Store(true)
	go k.loop()
}

func (k *keepAlive) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })
}

func (k *keepAlive) Pong() {
	k.ponged.Store(true)
}

func (k *keepAlive) loop() {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-k.stop:
			return
		case <-ticker.C:
			if k.ponged.Swap(false) {
				_ = k.sess.Conn().Send(protocol.Message{Command: "PING", Params: []string{k.srv.cfg.ServerName}})
				continue
			}
			k.srv.metrics.pingTimeouts.Inc()
			k.sess.Logger().Info("ping timeout", "nick", k.sess.Nickname())
			k.srv.closeLink(k.sess.Conn(), "Ping timeout")
			return
		}
	}
}
