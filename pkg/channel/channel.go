// Package channel implements "#"-prefixed broadcast groups.
package channel

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/clintecker/hector/pkg/session"
)

// Channel is a named group of sessions. It is a session.Destination.
type Channel struct {
	name string

	mu      sync.RWMutex
	topic   string
	members map[*session.Session]struct{}
}

func newChannel(name string) *Channel {
	return &Channel{
		name:    name,
		members: make(map[*session.Session]struct{}),
	}
}

// Name returns the channel name as first joined.
func (c *Channel) Name() string { return c.name }

// IsChannel implements session.Destination.
func (c *Channel) IsChannel() bool { return true }

// Topic returns the current topic, empty when unset.
func (c *Channel) Topic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topic
}

func (c *Channel) SetTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic = topic
}

// Has reports whether s is a member.
func (c *Channel) Has(s *session.Session) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[s]
	return ok
}

// Len returns the member count.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.members)
}

// Members returns a snapshot of the members ordered by nickname.
func (c *Channel) Members() []*session.Session {
	c.mu.RLock()
	members := lo.Keys(c.members)
	c.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		return members[i].Nickname() < members[j].Nickname()
	})
	return members
}

// Nicknames returns the member nicknames ordered alphabetically.
func (c *Channel) Nicknames() []string {
	return lo.Map(c.Members(), func(s *session.Session, _ int) string {
		return s.Nickname()
	})
}

// Broadcast sends a line to every member except the given session.
func (c *Channel) Broadcast(except *session.Session, source, command string, args ...session.Arg) error {
	return session.BroadcastTo(c.Members(), except, source, command, args...)
}

// Deliver implements session.Destination: every member but the sender
// receives the message addressed to the channel.
func (c *Channel) Deliver(messageType string, from *session.Session, text string) error {
	return c.Broadcast(from, from.Source(), messageType, session.Lit(c.name), session.Lit(text))
}

func (c *Channel) add(s *session.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[s]; ok {
		return false
	}
	c.members[s] = struct{}{}
	return true
}

// remove drops s and reports whether the channel is now empty.
func (c *Channel) remove(s *session.Session) (removed, empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, removed = c.members[s]
	delete(c.members, s)
	return removed, len(c.members) == 0
}
