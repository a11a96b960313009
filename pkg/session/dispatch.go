package session

import (
	"fmt"
	"strings"

	"github.com/clintecker/hector/pkg/protocol"
)

// Capability handles one command. The request being handled is available
// through Session.Request.
type Capability func(s *Session) error

// Commands maps an upper-case command name to its capability.
type Commands map[string]Capability

// Lookup returns the capability for command, matched case-insensitively.
func (c Commands) Lookup(command string) (Capability, bool) {
	capability, ok := c[strings.ToUpper(command)]
	return capability, ok
}

// Receive dispatches req to the matching capability. Commands without a
// capability are ignored. Nickname and destination errors are answered with
// their numeric reply and not returned; any other error is.
func (s *Session) Receive(req *protocol.Request) error {
	capability, ok := s.registry.commands.Lookup(req.Command)
	if !ok {
		s.log.Debug("ignoring command", "command", req.Command)
		return nil
	}

	s.request = req
	defer func() { s.request = nil }()

	err := invoke(capability, s)
	if err == nil {
		return nil
	}
	if _, ok := ErrorReply(err); ok {
		return s.RespondError(err)
	}
	return fmt.Errorf("session: %s: %w", req.Command, err)
}

func invoke(capability Capability, s *Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCapabilityPanic, r)
		}
	}()
	return capability(s)
}
