package server

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/clintecker/hector/pkg/channel"
	"github.com/clintecker/hector/pkg/model"
	"github.com/clintecker/hector/pkg/protocol"
	"github.com/clintecker/hector/pkg/session"
)

// namesPerReply bounds the nicknames sent in one 353 line.
const namesPerReply = 30

func noSuchChannel(sess *session.Session, name string) error {
	return sess.RespondWith(protocol.ErrNoSuchChannel, session.Lit(name), session.Lit("No such channel"))
}

func (s *Server) handleJoin(sess *session.Session) error {
	names := sess.Request().Param(0)
	if names == "" {
		return s.needMoreParams(sess)
	}

	for _, name := range strings.Split(names, ",") {
		ch, joined, err := s.channels.Join(name, sess)
		if errors.Is(err, channel.ErrNoSuchChannel) {
			if err := noSuchChannel(sess, name); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if !joined {
			continue
		}

		_ = ch.Broadcast(nil, sess.Source(), "JOIN", session.Lit(ch.Name()))
		if topic := ch.Topic(); topic != "" {
			if err := sess.RespondWith(protocol.RplTopic, me, session.Lit(ch.Name()), session.Lit(topic)); err != nil {
				return err
			}
		}
		if err := s.sendNames(sess, ch); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handlePart(sess *session.Session) error {
	req := sess.Request()
	names := req.Param(0)
	if names == "" {
		return s.needMoreParams(sess)
	}

	for _, name := range strings.Split(names, ",") {
		ch := s.channels.Find(name)
		if ch == nil {
			if err := noSuchChannel(sess, name); err != nil {
				return err
			}
			continue
		}
		if !ch.Has(sess) {
			if err := sess.RespondWith(protocol.ErrNotOnChannel, session.Lit(ch.Name()), session.Lit("You're not on that channel")); err != nil {
				return err
			}
			continue
		}

		args := []session.Arg{session.Lit(ch.Name())}
		if reason := req.Param(1); reason != "" {
			args = append(args, session.Lit(reason))
		}
		_ = ch.Broadcast(nil, sess.Source(), "PART", args...)
		if _, err := s.channels.Part(name, sess); err != nil {
			sess.Logger().Debug("part raced", "channel", name, "err", err)
		}
	}
	return nil
}

func (s *Server) handleNames(sess *session.Session) error {
	names := sess.Request().Param(0)
	if names == "" {
		return sess.RespondWith(protocol.RplEndOfNames, me, session.Lit("*"), session.Lit("End of NAMES list"))
	}

	for _, name := range strings.Split(names, ",") {
		ch := s.channels.Find(name)
		if ch == nil {
			if err := sess.RespondWith(protocol.RplEndOfNames, me, session.Lit(name), session.Lit("End of NAMES list")); err != nil {
				return err
			}
			continue
		}
		if err := s.sendNames(sess, ch); err != nil {
			return err
		}
	}
	return nil
}

// sendNames sends the 353 member lines followed by 366.
func (s *Server) sendNames(sess *session.Session, ch *channel.Channel) error {
	for _, chunk := range lo.Chunk(ch.Nicknames(), namesPerReply) {
		if err := sess.RespondWith(protocol.RplNamReply, me, session.Lit("="), session.Lit(ch.Name()),
			session.Lit(strings.Join(chunk, " "))); err != nil {
			return err
		}
	}
	return sess.RespondWith(protocol.RplEndOfNames, me, session.Lit(ch.Name()), session.Lit("End of NAMES list"))
}

func (s *Server) handleTopic(sess *session.Session) error {
	req := sess.Request()
	name := req.Param(0)
	if name == "" {
		return s.needMoreParams(sess)
	}
	ch := s.channels.Find(name)
	if ch == nil {
		return noSuchChannel(sess, name)
	}

	if len(req.Params) < 2 {
		topic := ch.Topic()
		if topic == "" {
			return sess.RespondWith(protocol.RplNoTopic, me, session.Lit(ch.Name()), session.Lit("No topic is set"))
		}
		return sess.RespondWith(protocol.RplTopic, me, session.Lit(ch.Name()), session.Lit(topic))
	}

	if !ch.Has(sess) {
		return sess.RespondWith(protocol.ErrNotOnChannel, session.Lit(ch.Name()), session.Lit("You're not on that channel"))
	}
	topic := req.Param(1)
	if model.ValidateTopic(topic) != nil {
		topic = string([]rune(topic)[:model.MaxTopicLength])
	}
	ch.SetTopic(topic)
	return ch.Broadcast(nil, sess.Source(), "TOPIC", session.Lit(ch.Name()), session.Lit(topic))
}
