// Package protocol defines the line format spoken between hector and IRC clients.
//
// Only the subset needed by the server is understood: an optional source
// prefix, a command word, space separated middle parameters and one trailing
// parameter introduced by " :". Message tags and CTCP are not interpreted.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// MaxLineLength is the RFC 1459 line limit, CRLF excluded.
	MaxLineLength = 510

	// LineTerminator ends every line written by the server.
	LineTerminator = "\r\n"
)

var (
	ErrEmptyLine      = errors.New("protocol: empty line")
	ErrMissingCommand = errors.New("protocol: missing command")
)

// Request is one parsed inbound line.
type Request struct {
	Prefix  string   // source prefix sent by the client, usually empty
	Command string   // upper-cased command word, the dispatch event name
	Params  []string // middle params followed by the trailing param, if any
}

// Param returns the i-th parameter or "" when absent.
func (r *Request) Param(i int) string {
	if i < 0 || i >= len(r.Params) {
		return ""
	}
	return r.Params[i]
}

// ParseRequest parses a single line without its terminator.
func ParseRequest(line string) (*Request, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil, ErrEmptyLine
	}

	req := &Request{}
	if strings.HasPrefix(line, ":") {
		prefix, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return nil, ErrMissingCommand
		}
		req.Prefix = prefix
		line = rest
	}

	var trailing string
	hasTrailing := false
	if i := strings.Index(line, " :"); i >= 0 {
		trailing = line[i+2:]
		line = line[:i]
		hasTrailing = true
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrMissingCommand
	}
	req.Command = strings.ToUpper(fields[0])
	req.Params = fields[1:]
	if hasTrailing {
		req.Params = append(req.Params, trailing)
	}
	return req, nil
}

// Message is one outbound line.
type Message struct {
	Source  string // omitted from the line when empty
	Command string
	Params  []string
}

// String formats the message without the line terminator. The last param is
// written as a trailing param whenever it would not survive as a middle one.
func (m Message) String() string {
	var b strings.Builder
	if m.Source != "" {
		b.WriteByte(':')
		b.WriteString(m.Source)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for i, p := range m.Params {
		p = sanitize(p)
		b.WriteByte(' ')
		if i == len(m.Params)-1 && needsTrailing(p) {
			b.WriteByte(':')
		}
		b.WriteString(p)
	}
	return b.String()
}

// WriteMessage writes a CRLF terminated line.
func WriteMessage(w io.Writer, msg Message) error {
	if _, err := io.WriteString(w, msg.String()+LineTerminator); err != nil {
		return fmt.Errorf("protocol: write %s: %w", msg.Command, err)
	}
	return nil
}

func needsTrailing(p string) bool {
	return p == "" || strings.Contains(p, " ") || strings.HasPrefix(p, ":")
}

// sanitize strips characters that would let a param terminate the line early.
func sanitize(s string) string {
	if !strings.ContainsAny(s, "\r\n\x00") {
		return s
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n':
			return ' '
		case 0:
			return -1
		}
		return r
	}, s)
}
