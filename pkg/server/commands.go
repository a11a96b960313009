package server

import (
	"strings"

	"github.com/clintecker/hector/pkg/protocol"
	"github.com/clintecker/hector/pkg/session"
)

var me = session.Self(session.FieldNickname)

// commands builds the capability table shared by every session.
func (s *Server) commands() session.Commands {
	return session.Commands{
		"NICK":    s.handleNick,
		"PRIVMSG": s.handlePrivmsg,
		"NOTICE":  s.handleNotice,
		"PING":    s.handlePing,
		"PONG":    s.handlePong,
		"QUIT":    s.handleQuit,
		"PASS":    s.handleReregister,
		"USER":    s.handleReregister,
		"JOIN":    s.handleJoin,
		"PART":    s.handlePart,
		"NAMES":   s.handleNames,
		"TOPIC":   s.handleTopic,
		"MODE":    s.handleMode,
		"WHO":     s.handleWho,
		"WHOIS":   s.handleWhois,
	}
}

func (s *Server) needMoreParams(sess *session.Session) error {
	return sess.RespondWith(protocol.ErrNeedMoreParams, session.Lit(sess.Request().Command), session.Lit("Not enough parameters"))
}

func (s *Server) handleNick(sess *session.Session) error {
	nick := sess.Request().Param(0)
	if nick == "" {
		return sess.RespondWith(protocol.ErrNoNicknameGiven, session.Lit("No nickname given"))
	}
	if nick == sess.Nickname() {
		return nil
	}

	old := sess.Source()
	if err := sess.Rename(nick); err != nil {
		return err
	}
	return session.BroadcastTo(sess.Peers(), nil, old, "NICK", session.Lit(nick))
}

func (s *Server) handlePrivmsg(sess *session.Session) error {
	return s.relay(sess, false)
}

func (s *Server) handleNotice(sess *session.Session) error {
	return s.relay(sess, true)
}

// relay delivers PRIVMSG and NOTICE to each comma separated target. NOTICE
// never produces error replies.
func (s *Server) relay(sess *session.Session, notice bool) error {
	req := sess.Request()
	if req.Param(0) == "" {
		if notice {
			return nil
		}
		return sess.RespondWith(protocol.ErrNoRecipient, session.Lit("No recipient given ("+req.Command+")"))
	}
	text := req.Param(1)
	if text == "" {
		if notice {
			return nil
		}
		return sess.RespondWith(protocol.ErrNoTextToSend, session.Lit("No text to send"))
	}

	for _, target := range strings.Split(req.Param(0), ",") {
		dest, err := sess.Find(target)
		if err != nil {
			if notice {
				continue
			}
			if err := sess.RespondError(err); err != nil {
				return err
			}
			continue
		}
		if err := dest.Deliver(req.Command, sess, text); err != nil {
			sess.Logger().Debug("delivery incomplete", "target", target, "err", err)
		}
		s.metrics.messagesRelayed.Inc()
	}
	return nil
}

func (s *Server) handlePing(sess *session.Session) error {
	origin := sess.Request().Param(0)
	if origin == "" {
		return sess.RespondWith(protocol.ErrNoOrigin, session.Lit("No origin specified"))
	}
	return sess.RespondWith("PONG", session.Lit(s.cfg.ServerName), session.Lit(origin))
}

func (s *Server) handlePong(sess *session.Session) error {
	sess.Pong()
	return nil
}

func (s *Server) handleQuit(sess *session.Session) error {
	reason := sess.Request().Param(0)
	if reason == "" {
		reason = "Client quit"
	}
	_ = sess.BroadcastOthers("QUIT", session.Lit(reason))
	sess.Destroy()
	s.closeLink(sess.Conn(), reason)
	sess.Logger().Info("session quit", "nick", sess.Nickname(), "reason", reason)
	return nil
}

func (s *Server) handleReregister(sess *session.Session) error {
	return sess.RespondWith(protocol.ErrAlreadyRegistred, session.Lit("You may not reregister"))
}

func (s *Server) handleMode(sess *session.Session) error {
	req := sess.Request()
	target := req.Param(0)
	if target == "" {
		return s.needMoreParams(sess)
	}

	if session.IsChannelName(target) {
		ch := s.channels.Find(target)
		if ch == nil {
			return sess.RespondWith(protocol.ErrNoSuchChannel, session.Lit(target), session.Lit("No such channel"))
		}
		return sess.RespondWith(protocol.RplChannelModeIs, me, session.Lit(ch.Name()), session.Lit("+"))
	}

	if s.sessions.Find(target) == nil {
		return sess.RespondWith(protocol.ErrNoSuchNick, session.Lit(target), session.Lit("No such nick/channel"))
	}
	if !strings.EqualFold(target, sess.Nickname()) {
		return sess.RespondWith(protocol.ErrUsersDontMatch, session.Lit("Cant change mode for other users"))
	}
	return sess.RespondWith(protocol.RplUmodeIs, me, session.Lit("+"))
}

func (s *Server) handleWho(sess *session.Session) error {
	mask := sess.Request().Param(0)
	if mask == "" {
		mask = "*"
	}

	switch {
	case session.IsChannelName(mask):
		if ch := s.channels.Find(mask); ch != nil {
			for _, member := range ch.Members() {
				if err := s.sendWhoReply(sess, ch.Name(), member); err != nil {
					return err
				}
			}
		}
	default:
		if target := s.sessions.Find(mask); target != nil {
			if err := s.sendWhoReply(sess, "*", target); err != nil {
				return err
			}
		}
	}
	return sess.RespondWith(protocol.RplEndOfWho, me, session.Lit(mask), session.Lit("End of WHO list"))
}

func (s *Server) sendWhoReply(sess *session.Session, channelName string, target *session.Session) error {
	args := append([]session.Arg{me, session.Lit(channelName)}, session.Lits(target.WhoFields()...)...)
	return sess.RespondWith(protocol.RplWhoReply, args...)
}

func (s *Server) handleWhois(sess *session.Session) error {
	req := sess.Request()
	nick := req.Param(len(req.Params) - 1)
	if nick == "" {
		return sess.RespondWith(protocol.ErrNoNicknameGiven, session.Lit("No nickname given"))
	}

	target := s.sessions.Find(nick)
	if target == nil {
		if err := sess.RespondWith(protocol.ErrNoSuchNick, session.Lit(nick), session.Lit("No such nick/channel")); err != nil {
			return err
		}
		return sess.RespondWith(protocol.RplEndOfWhois, me, session.Lit(nick), session.Lit("End of WHOIS list"))
	}

	name := session.Lit(target.Nickname())
	if err := sess.RespondWith(protocol.RplWhoisUser, me, name,
		session.Lit(target.Username()), session.Lit(target.Hostname()), session.Lit("*"), session.Lit(target.Realname())); err != nil {
		return err
	}
	if err := sess.RespondWith(protocol.RplWhoisServer, me, name, session.Lit(s.cfg.ServerName), session.Lit("hector")); err != nil {
		return err
	}
	if chans := s.channels.Channels(target); len(chans) > 0 {
		names := make([]string, len(chans))
		for i, ch := range chans {
			names[i] = ch.Name()
		}
		if err := sess.RespondWith(protocol.RplWhoisChannels, me, name, session.Lit(strings.Join(names, " "))); err != nil {
			return err
		}
	}
	return sess.RespondWith(protocol.RplEndOfWhois, me, name, session.Lit("End of WHOIS list"))
}
