package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/clintecker/hector/pkg/model"
	"github.com/clintecker/hector/pkg/protocol"
	"github.com/clintecker/hector/pkg/session"
	"github.com/clintecker/hector/pkg/version"
)

var (
	errClientQuit          = errors.New("server: client quit before registering")
	errRegistrationTimeout = errors.New("server: registration timed out")
)

// registration collects PASS, USER and NICK, which may arrive in any order.
type registration struct {
	password string
	username string
	realname string
	nickname string
	identity *model.Identity // set once authenticated
}

func (r *registration) complete() bool {
	return r.username != "" && r.nickname != ""
}

// register reads lines until the connection is registered and returns the
// new session.
func (s *Server) register(ctx context.Context, c *Conn, lines *protocol.LineReader) (*session.Session, error) {
	var reg registration

	for {
		line, err := lines.ReadLine()
		if errors.Is(err, protocol.ErrLineTooLong) {
			s.replyError(c, protocol.ErrInputTooLong, "", "Input line was too long")
			continue
		}
		if err != nil {
			return nil, s.registrationEnded(c, err)
		}
		req, err := protocol.ParseRequest(line)
		if err != nil {
			continue
		}

		switch req.Command {
		case "PASS":
			if len(req.Params) < 1 {
				s.replyError(c, protocol.ErrNeedMoreParams, req.Command, "Not enough parameters")
				continue
			}
			reg.password = req.Param(0)
		case "USER":
			if len(req.Params) < 4 || req.Param(0) == "" {
				s.replyError(c, protocol.ErrNeedMoreParams, req.Command, "Not enough parameters")
				continue
			}
			reg.username = req.Param(0)
			reg.realname = truncateRealname(req.Param(3))
		case "NICK":
			nick := req.Param(0)
			if nick == "" {
				s.replyError(c, protocol.ErrNoNicknameGiven, "", "No nickname given")
				continue
			}
			if _, err := session.Normalize(nick); err != nil {
				s.replyNameError(c, err)
				continue
			}
			reg.nickname = nick
		case "PING":
			_ = c.Send(protocol.Message{Source: s.cfg.ServerName, Command: "PONG", Params: []string{s.cfg.ServerName, req.Param(0)}})
			continue
		case "QUIT":
			s.closeLink(c, "Client quit")
			return nil, errClientQuit
		case "CAP":
			continue
		default:
			s.replyError(c, protocol.ErrNotRegistered, "", "You have not registered")
			continue
		}

		if !reg.complete() {
			continue
		}
		sess, err := s.completeRegistration(ctx, c, &reg)
		if err == nil {
			return sess, nil
		}
		if _, ok := session.ErrorReply(err); ok {
			s.replyNameError(c, err)
			reg.nickname = ""
			continue
		}
		return nil, err
	}
}

func (s *Server) registrationEnded(c *Conn, err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		s.closeLink(c, "Registration timeout")
		return errRegistrationTimeout
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		err = io.EOF
	}
	return fmt.Errorf("server: register: %w", err)
}

// completeRegistration authenticates once and creates the session. A
// nickname error leaves the authenticated identity in reg so the client can
// retry with another NICK.
func (s *Server) completeRegistration(ctx context.Context, c *Conn, reg *registration) (*session.Session, error) {
	if reg.identity == nil {
		id, err := s.identities.Authenticate(ctx, reg.username, reg.password)
		if err != nil {
			s.metrics.authFailures.Inc()
			c.log.Info("authentication failed", "user", reg.username, "err", err)
			s.replyError(c, protocol.ErrPasswdMismatch, "", "Invalid password")
			s.closeLink(c, "Invalid password")
			return nil, fmt.Errorf("server: authenticate %q: %w", reg.username, err)
		}
		reg.identity = id
	}

	sess, err := s.sessions.Create(reg.nickname, c, reg.identity, reg.realname)
	if err != nil {
		return nil, err
	}
	s.metrics.registrations.Inc()
	sess.Logger().Info("session registered", "nick", sess.Nickname())
	s.welcome(sess)
	return sess, nil
}

func (s *Server) welcome(sess *session.Session) {
	server := s.cfg.ServerName
	_ = sess.RespondWith(protocol.RplWelcome, me, session.Lit("Welcome to the Internet Relay Network "+sess.Source()))
	_ = sess.RespondWith(protocol.RplYourHost, me, session.Lit("Your host is "+server+", running version "+version.Server()))
	_ = sess.RespondWith(protocol.RplCreated, me, session.Lit("This server was created "+version.Date()))
	_ = sess.RespondWith(protocol.RplMyInfo, me, session.Lit(server), session.Lit(version.Server()))
}

// replyError sends an error numeric: "<code> [<name>] :<text>".
func (s *Server) replyError(c session.Conn, code, name, text string) {
	params := []string{text}
	if name != "" {
		params = []string{name, text}
	}
	_ = c.Send(protocol.Message{Source: s.cfg.ServerName, Command: code, Params: params})
}

func (s *Server) replyNameError(c session.Conn, err error) {
	if reply, ok := session.ErrorReply(err); ok {
		reply.Source = s.cfg.ServerName
		_ = c.Send(reply)
	}
}

// closeLink sends the ERROR line and closes the connection once it is
// flushed.
func (s *Server) closeLink(c session.Conn, reason string) {
	_ = c.Send(protocol.Message{Command: "ERROR", Params: []string{"Closing Link: " + s.cfg.ServerName + " (" + reason + ")"}})
	if rc, ok := c.(interface{ CloseWithReason(string) error }); ok {
		_ = rc.CloseWithReason(reason)
		return
	}
	_ = c.Close()
}

func truncateRealname(realname string) string {
	if model.ValidateRealname(realname) == nil {
		return realname
	}
	return string([]rune(realname)[:model.MaxRealnameLength])
}
