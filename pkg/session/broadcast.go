package session

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// BroadcastTo sends one line to every session in sessions except the one
// identical to except. A failed send is logged and collected; the remaining
// sessions are still attempted. Duplicate entries receive a single send.
func BroadcastTo(sessions []*Session, except *Session, source, command string, args ...Arg) error {
	var errs []error
	for _, s := range lo.Uniq(sessions) {
		if s == nil || s == except {
			continue
		}
		if err := s.RespondAs(source, command, args...); err != nil {
			s.log.Warn("broadcast send failed", "command", command, "error", err)
			errs = append(errs, fmt.Errorf("session: broadcast %s to %s: %w", command, s.Nickname(), err))
		}
	}
	return errors.Join(errs...)
}
