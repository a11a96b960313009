package session

import (
	"errors"

	"github.com/clintecker/hector/pkg/protocol"
)

var (
	ErrNicknameInUse       = errors.New("nickname is already in use")
	ErrErroneousNickname   = errors.New("erroneous nickname")
	ErrNoSuchNickOrChannel = errors.New("no such nick/channel")
	ErrNotRegistered       = errors.New("nickname is not registered")
	ErrCapabilityPanic     = errors.New("session: capability panicked")
)

// NameError carries the offending nickname or channel name of a protocol
// error. Match the kind with errors.Is and extract the name with errors.As.
type NameError struct {
	Err  error
	Name string
}

func (e *NameError) Error() string { return e.Name + ": " + e.Err.Error() }

func (e *NameError) Unwrap() error { return e.Err }

func nameError(err error, name string) error {
	return &NameError{Err: err, Name: name}
}

// numericFor maps the protocol error kinds to their numeric reply.
func numericFor(err error) (code, text string, ok bool) {
	switch {
	case errors.Is(err, ErrNicknameInUse):
		return protocol.ErrNicknameInUse, "Nickname is already in use", true
	case errors.Is(err, ErrErroneousNickname):
		return protocol.ErrErroneusNickname, "Erroneous nickname", true
	case errors.Is(err, ErrNoSuchNickOrChannel):
		return protocol.ErrNoSuchNick, "No such nick/channel", true
	}
	return "", "", false
}

// ErrorReply returns the numeric reply for a protocol error, if it is one.
// The reply is "<code> <name> :<text>".
func ErrorReply(err error) (protocol.Message, bool) {
	var nameErr *NameError
	if !errors.As(err, &nameErr) {
		return protocol.Message{}, false
	}
	code, text, ok := numericFor(nameErr.Err)
	if !ok {
		return protocol.Message{}, false
	}
	return protocol.Message{Command: code, Params: []string{nameErr.Name, text}}, true
}

// RespondError sends the numeric reply for a nickname or destination error
// to s. Any other error is returned unchanged.
func (s *Session) RespondError(err error) error {
	reply, ok := ErrorReply(err)
	if !ok {
		return err
	}
	reply.Source = s.registry.serverName
	return s.conn.Send(reply)
}
