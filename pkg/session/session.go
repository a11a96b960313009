package session

import (
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"github.com/clintecker/hector/pkg/model"
	"github.com/clintecker/hector/pkg/protocol"
)

// Session is a registered connection. Receive is called from a single
// goroutine per connection; every other method is safe for concurrent use.
type Session struct {
	mu       sync.RWMutex
	nickname string

	conn     Conn
	identity *model.Identity
	realname string
	registry *Registry
	log      *slog.Logger

	// request is only touched by the goroutine calling Receive.
	request   *protocol.Request
	keepAlive KeepAlive
	destroyed atomic.Bool
}

func (s *Session) start() {
	s.registry.presence.Start(s)
	s.keepAlive.Start()
}

// Name implements Destination.
func (s *Session) Name() string { return s.Nickname() }

// IsChannel implements Destination.
func (s *Session) IsChannel() bool { return false }

// Nickname returns the nickname as the client last set it.
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

func (s *Session) Username() string { return s.identity.Username }

func (s *Session) Realname() string { return s.realname }

// Hostname is the server name; client addresses are never exposed.
func (s *Session) Hostname() string { return s.registry.serverName }

func (s *Session) Identity() *model.Identity { return s.identity }

func (s *Session) Conn() Conn { return s.conn }

// Request returns the request being dispatched, or nil between dispatches.
func (s *Session) Request() *protocol.Request { return s.request }

// Logger returns the session's logger.
func (s *Session) Logger() *slog.Logger { return s.log }

// Registry returns the registry the session belongs to.
func (s *Session) Registry() *Registry { return s.registry }

// Source composes nickname!username@hostname.
func (s *Session) Source() string {
	return s.Nickname() + "!" + s.Username() + "@" + s.Hostname()
}

// WhoFields returns the parameters of a WHO reply line for s.
func (s *Session) WhoFields() []string {
	host := s.Hostname()
	return []string{s.Username(), host, host, s.Nickname(), "H", "0 " + s.realname}
}

// Who composes the WHO summary: username, server twice, nickname, status,
// hop count and realname.
func (s *Session) Who() string {
	f := s.WhoFields()
	return strings.Join(f[:5], " ") + " :" + f[5]
}

// Rename moves the session to a new nickname. The nickname field is only
// updated once the registry accepted the change.
func (s *Session) Rename(nickname string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.registry.Rename(s.nickname, nickname); err != nil {
		return err
	}
	s.log.Debug("session renamed", "from", s.nickname, "to", nickname)
	s.nickname = nickname
	return nil
}

// Destroy stops the presence and keep-alive hooks and removes the session
// from the registry. Calls after the first are no-ops.
func (s *Session) Destroy() {
	if !s.destroyed.CompareAndSwap(false, true) {
		return
	}
	s.registry.presence.Stop(s)
	s.keepAlive.Stop()
	s.registry.remove(s)
	s.log.Debug("session destroyed", "nick", s.Nickname())
}

// Destroyed reports whether Destroy has been called.
func (s *Session) Destroyed() bool { return s.destroyed.Load() }

// Pong records liveness for the keep-alive hook.
func (s *Session) Pong() { s.keepAlive.Pong() }

// Peers returns s and every session that shares presence with it.
func (s *Session) Peers() []*Session {
	return lo.Uniq(append([]*Session{s}, s.registry.presence.Peers(s)...))
}

// Broadcast sends a line from s to all of its peers, s included.
func (s *Session) Broadcast(command string, args ...Arg) error {
	return BroadcastTo(s.Peers(), nil, s.Source(), command, args...)
}

// BroadcastOthers sends a line from s to its peers, s excluded.
func (s *Session) BroadcastOthers(command string, args ...Arg) error {
	return BroadcastTo(s.Peers(), s, s.Source(), command, args...)
}

// RespondWith sends a line from the server to s.
func (s *Session) RespondWith(command string, args ...Arg) error {
	return s.RespondAs(s.registry.serverName, command, args...)
}

// RespondAs sends a line with the given source to s.
func (s *Session) RespondAs(source, command string, args ...Arg) error {
	return s.conn.Send(protocol.Message{
		Source:  source,
		Command: command,
		Params:  s.resolve(args),
	})
}

// Deliver implements Destination: the message arrives attributed to from.
func (s *Session) Deliver(messageType string, from *Session, text string) error {
	return s.RespondAs(from.Source(), messageType, Self(FieldNickname), Lit(text))
}
