package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/clintecker/hector/pkg/model"
	"github.com/clintecker/hector/pkg/session"
)

var (
	ErrNoSuchChannel = errors.New("no such channel")
	ErrNotOnChannel  = errors.New("not on channel")
)

// Registry holds every channel with at least one member. Lock order is
// registry before channel.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel // normalized name -> channel
	log      *slog.Logger
}

// NewRegistry creates an empty channel registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		channels: make(map[string]*Channel),
		log:      logger,
	}
}

// Find returns the channel with the given name, or nil.
func (r *Registry) Find(name string) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[model.NormalizeChannelName(name)]
}

// FindChannel implements session.ChannelFinder.
func (r *Registry) FindChannel(name string) (session.Destination, bool) {
	ch := r.Find(name)
	if ch == nil {
		return nil, false
	}
	return ch, true
}

// Len returns the number of channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Join adds s to the named channel, creating it on first join. The returned
// bool is false when s was already a member.
func (r *Registry) Join(name string, s *session.Session) (*Channel, bool, error) {
	if err := model.ValidateChannelName(name); err != nil {
		return nil, false, fmt.Errorf("channel: join %s: %w: %w", name, ErrNoSuchChannel, err)
	}
	key := model.NormalizeChannelName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[key]
	if !ok {
		ch = newChannel(name)
		r.channels[key] = ch
		r.log.Debug("channel created", "channel", name)
	}
	return ch, ch.add(s), nil
}

// Part removes s from the named channel. Channels left empty are dropped.
func (r *Registry) Part(name string, s *session.Session) (*Channel, error) {
	key := model.NormalizeChannelName(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[key]
	if !ok {
		return nil, fmt.Errorf("channel: part %s: %w", name, ErrNoSuchChannel)
	}
	removed, empty := ch.remove(s)
	if empty {
		delete(r.channels, key)
		r.log.Debug("channel removed", "channel", ch.name)
	}
	if !removed {
		return ch, fmt.Errorf("channel: part %s: %w", name, ErrNotOnChannel)
	}
	return ch, nil
}

// Channels returns the channels s belongs to, ordered by name.
func (r *Registry) Channels(s *session.Session) []*Channel {
	r.mu.RLock()
	chans := lo.Filter(lo.Values(r.channels), func(ch *Channel, _ int) bool {
		return ch.Has(s)
	})
	r.mu.RUnlock()

	sort.Slice(chans, func(i, j int) bool { return chans[i].name < chans[j].name })
	return chans
}

// Start implements session.Presence. Sessions join channels explicitly.
func (r *Registry) Start(*session.Session) {}

// Stop implements session.Presence by parting every channel s is in.
func (r *Registry) Stop(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, ch := range r.channels {
		if _, empty := ch.remove(s); empty {
			delete(r.channels, key)
		}
	}
}

// Peers implements session.Presence: s and everyone sharing a channel with s.
func (r *Registry) Peers(s *session.Session) []*session.Session {
	peers := lo.FlatMap(r.Channels(s), func(ch *Channel, _ int) []*session.Session {
		return ch.Members()
	})
	return lo.Uniq(append([]*session.Session{s}, peers...))
}
