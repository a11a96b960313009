package server

import (
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clintecker/hector/pkg/protocol"
)

var (
	ErrConnClosed    = errors.New("server: connection closed")
	ErrSendQueueFull = errors.New("server: send queue full")
)

const writeTimeout = 10 * time.Second

// Conn is the transport behind a session. Sends are queued and written by a
// dedicated goroutine; closing flushes whatever is already queued before the
// socket is closed.
type Conn struct {
	id  uuid.UUID
	nc  net.Conn
	log *slog.Logger

	queue   chan protocol.Message
	done    chan struct{} // closed by CloseWithReason
	flushed chan struct{} // closed when the writer has exited

	mu     sync.Mutex
	closed bool
	reason string
}

func newConn(nc net.Conn, queueSize int, logger *slog.Logger) *Conn {
	id := uuid.New()
	c := &Conn{
		id:      id,
		nc:      nc,
		log:     logger.With("conn", id.String(), "remote", nc.RemoteAddr().String()),
		queue:   make(chan protocol.Message, queueSize),
		done:    make(chan struct{}),
		flushed: make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

// ID returns the connection's unique id.
func (c *Conn) ID() uuid.UUID { return c.id }

// Send queues msg. A connection whose queue is full is closed.
func (c *Conn) Send(msg protocol.Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	select {
	case c.queue <- msg:
		c.mu.Unlock()
		return nil
	default:
	}
	c.mu.Unlock()

	c.log.Warn("send queue full, dropping connection", "command", msg.Command)
	_ = c.CloseWithReason("SendQ exceeded")
	return ErrSendQueueFull
}

// Close closes the connection with a generic reason.
func (c *Conn) Close() error {
	return c.CloseWithReason("Connection closed")
}

// CloseWithReason marks the connection closed. The first reason wins.
func (c *Conn) CloseWithReason(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.reason = reason
	close(c.done)
	return nil
}

// Closed reports whether the connection has been closed.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Reason returns the close reason, empty while open.
func (c *Conn) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Flushed is closed once queued lines are written and the socket is closed.
func (c *Conn) Flushed() <-chan struct{} { return c.flushed }

func (c *Conn) writeLoop() {
	defer close(c.flushed)
	defer func() { _ = c.nc.Close() }()

	for {
		select {
		case msg := <-c.queue:
			if err := c.write(msg); err != nil {
				c.log.Debug("write failed", "err", err)
				_ = c.CloseWithReason("Write error")
				return
			}
		case <-c.done:
			c.drain()
			return
		}
	}
}

func (c *Conn) drain() {
	for {
		select {
		case msg := <-c.queue:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(msg protocol.Message) error {
	_ = c.nc.SetWriteDeadline(time.Now().Add(writeTimeout))
	return protocol.WriteMessage(c.nc, msg)
}
