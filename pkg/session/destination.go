package session

import "strings"

// IsChannelName reports whether name addresses a channel rather than a
// session.
func IsChannelName(name string) bool {
	return strings.HasPrefix(name, "#")
}

// Find resolves a message target: "#" names through the channel finder,
// everything else through the nickname registry.
func (s *Session) Find(name string) (Destination, error) {
	if IsChannelName(name) {
		if ch, ok := s.registry.channels.FindChannel(name); ok && ch != nil {
			return ch, nil
		}
		return nil, nameError(ErrNoSuchNickOrChannel, name)
	}
	if target := s.registry.Find(name); target != nil {
		return target, nil
	}
	return nil, nameError(ErrNoSuchNickOrChannel, name)
}
