// Package session tracks connected IRC identities.
//
// A Registry owns the table from normalized nickname to Session and is the
// only shared mutable state between connections. Every check-then-mutate
// sequence (Create, Rename, Delete) runs under the registry's write lock, so
// two connections can never register the same normalized nickname.
//
// A Session dispatches inbound requests to the capability registered under
// the request's command, and sends replies through its Conn. Lines addressed
// to many sessions go through BroadcastTo.
package session

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/clintecker/hector/pkg/model"
)

// nicknamePattern is a word character followed by up to 15 word characters
// or hyphens. Word characters are letters, letter numbers, marks, decimal
// digits and connector punctuation; superscripts and fractions are not.
var nicknamePattern = regexp.MustCompile(`^[\p{L}\p{Nl}\p{M}\p{Nd}\p{Pc}][\p{L}\p{Nl}\p{M}\p{Nd}\p{Pc}-]{0,15}$`)

// Normalize validates a nickname and returns its registry key.
func Normalize(nickname string) (string, error) {
	if !nicknamePattern.MatchString(nickname) {
		return "", nameError(ErrErroneousNickname, nickname)
	}
	return strings.ToLower(nickname), nil
}

// Options configures the sessions a Registry creates.
type Options struct {
	ServerName string
	Commands   Commands
	Channels   ChannelFinder
	Presence   Presence
	KeepAlive  func(*Session) KeepAlive
	Logger     *slog.Logger
}

// Registry maps normalized nicknames to sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session // normalized nickname -> session

	serverName string
	commands   Commands
	channels   ChannelFinder
	presence   Presence
	keepAlive  func(*Session) KeepAlive
	log        *slog.Logger
}

// NewRegistry creates an empty registry. Nil options fall back to no-op
// collaborators.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		sessions:   make(map[string]*Session),
		serverName: opts.ServerName,
		commands:   opts.Commands,
		channels:   opts.Channels,
		presence:   opts.Presence,
		keepAlive:  opts.KeepAlive,
		log:        opts.Logger,
	}
	if r.serverName == "" {
		r.serverName = "localhost"
	}
	if r.commands == nil {
		r.commands = Commands{}
	}
	if r.channels == nil {
		r.channels = noChannels{}
	}
	if r.presence == nil {
		r.presence = nopPresence{}
	}
	if r.keepAlive == nil {
		r.keepAlive = func(*Session) KeepAlive { return nopKeepAlive{} }
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// Nicknames returns every registered normalized nickname, in no particular order.
func (r *Registry) Nicknames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.sessions)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Find returns the session registered under nickname, or nil.
func (r *Registry) Find(nickname string) *Session {
	key, err := Normalize(nickname)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[key]
}

// Create registers a new session. The presence and keep-alive hooks are
// started once the session is visible in the registry.
func (r *Registry) Create(nickname string, conn Conn, identity *model.Identity, realname string) (*Session, error) {
	key, err := Normalize(nickname)
	if err != nil {
		return nil, err
	}
	s := r.newSession(nickname, conn, identity, realname)

	r.mu.Lock()
	if _, taken := r.sessions[key]; taken {
		r.mu.Unlock()
		return nil, nameError(ErrNicknameInUse, nickname)
	}
	r.sessions[key] = s
	r.mu.Unlock()

	s.start()
	r.log.Debug("session created", "nick", nickname, "user", identity.Username)
	return s, nil
}

// Rename moves the session registered under from to the key for to. The
// registry is unchanged on error. Renaming a session to a case variant of its
// own nickname is allowed.
func (r *Registry) Rename(from, to string) (*Session, error) {
	toKey, err := Normalize(to)
	if err != nil {
		return nil, err
	}
	fromKey, err := Normalize(from)
	if err != nil {
		return nil, nameError(ErrNotRegistered, from)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.sessions[fromKey]
	if holder, taken := r.sessions[toKey]; taken && holder != s {
		return nil, nameError(ErrNicknameInUse, to)
	}
	if s == nil {
		return nil, nameError(ErrNotRegistered, from)
	}
	delete(r.sessions, fromKey)
	r.sessions[toKey] = s
	return s, nil
}

// Delete removes the entry for nickname if present.
func (r *Registry) Delete(nickname string) {
	key, err := Normalize(nickname)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}

// Reset drops every session without running their destroy hooks.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}

// remove deletes s only if it still owns its nickname, so a late destroy
// cannot evict a newer session that took the name over.
func (r *Registry) remove(s *Session) {
	key, err := Normalize(s.Nickname())
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[key] == s {
		delete(r.sessions, key)
	}
}

func (r *Registry) newSession(nickname string, conn Conn, identity *model.Identity, realname string) *Session {
	s := &Session{
		nickname: nickname,
		conn:     conn,
		identity: identity,
		realname: realname,
		registry: r,
		log:      r.log.With("user", identity.Username),
	}
	s.keepAlive = r.keepAlive(s)
	if s.keepAlive == nil {
		s.keepAlive = nopKeepAlive{}
	}
	return s
}
