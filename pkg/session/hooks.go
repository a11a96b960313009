package session

import "github.com/clintecker/hector/pkg/protocol"

// Conn is the transport side of a session. Send may enqueue and return
// before the line reaches the wire.
type Conn interface {
	Send(msg protocol.Message) error
	Close() error
	Closed() bool
}

// Destination is anything a message can be addressed to: a Session or a
// channel.
type Destination interface {
	Name() string
	IsChannel() bool
	Deliver(messageType string, from *Session, text string) error
}

// ChannelFinder looks up "#"-prefixed destinations.
type ChannelFinder interface {
	FindChannel(name string) (Destination, bool)
}

// Presence tracks which sessions can see each other.
type Presence interface {
	Start(s *Session)
	Stop(s *Session)
	Peers(s *Session) []*Session
}

// KeepAlive is the liveness hook owned by one session.
type KeepAlive interface {
	Start()
	Stop()
	Pong()
}

type nopPresence struct{}

func (nopPresence) Start(*Session) {}

func (nopPresence) Stop(*Session) {}

func (nopPresence) Peers(s *Session) []*Session { return []*Session{s} }

type nopKeepAlive struct{}

func (nopKeepAlive) Start() {}

func (nopKeepAlive) Stop() {}

func (nopKeepAlive) Pong() {}

type noChannels struct{}

func (noChannels) FindChannel(string) (Destination, bool) { return nil, false }
