package session

import (
	"errors"
	"sync"

	"github.com/clintecker/hector/pkg/model"
	"github.com/clintecker/hector/pkg/protocol"
)

var errFakeSend = errors.New("fake send failure")

// fakeConn records every message sent to it.
type fakeConn struct {
	mu     sync.Mutex
	sent   []protocol.Message
	fail   bool
	closed bool
}

func (c *fakeConn) Send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errFakeSend
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, m := range c.sent {
		out[i] = m.String()
	}
	return out
}

// recordingHooks counts presence and keep-alive calls.
type recordingHooks struct {
	mu      sync.Mutex
	started int
	stopped int
	peers   map[*Session][]*Session
}

func (h *recordingHooks) Start(*Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started++
}

func (h *recordingHooks) Stop(*Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped++
}

func (h *recordingHooks) Peers(s *Session) []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peers[s]
}

type countingKeepAlive struct {
	mu                   sync.Mutex
	starts, stops, pongs int
}

func (k *countingKeepAlive) Start() { k.mu.Lock(); k.starts++; k.mu.Unlock() }

func (k *countingKeepAlive) Stop() { k.mu.Lock(); k.stops++; k.mu.Unlock() }

func (k *countingKeepAlive) Pong() { k.mu.Lock(); k.pongs++; k.mu.Unlock() }

func newTestRegistry(commands Commands) *Registry {
	return NewRegistry(Options{ServerName: "irc.test", Commands: commands})
}

func mustCreate(r *Registry, nick, user, realname string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	s, err := r.Create(nick, conn, &model.Identity{Username: user}, realname)
	if err != nil {
		panic(err)
	}
	return s, conn
}
