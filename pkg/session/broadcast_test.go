package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBroadcastToExcludesByIdentity(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	a, aConn := mustCreate(r, "a", "a", "")
	b, bConn := mustCreate(r, "b", "b", "")
	c, cConn := mustCreate(r, "c", "c", "")

	req.NoError(BroadcastTo([]*Session{a, b, c}, b, "src", "NOTICE", Lit("*"), Lit("hello all")))

	req.Equal([]string{":src NOTICE * :hello all"}, aConn.lines())
	req.Empty(bConn.lines())
	req.Equal([]string{":src NOTICE * :hello all"}, cConn.lines())
}

func TestBroadcastToSendsOncePerSession(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	a, aConn := mustCreate(r, "a", "a", "")
	b, bConn := mustCreate(r, "b", "b", "")

	req.NoError(BroadcastTo([]*Session{a, b, a, nil, b}, nil, "src", "PING", Lit("x")))
	req.Len(aConn.lines(), 1)
	req.Len(bConn.lines(), 1)
}

func TestBroadcastToResolvesPerRecipient(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	a, aConn := mustCreate(r, "alice", "a", "")
	b, bConn := mustCreate(r, "bob", "b", "")

	req.NoError(BroadcastTo([]*Session{a, b}, nil, "irc.test", "NOTICE", Self(FieldNickname), Lit("hi")))
	req.Equal([]string{":irc.test NOTICE alice hi"}, aConn.lines())
	req.Equal([]string{":irc.test NOTICE bob hi"}, bConn.lines())
}

func TestBroadcastToIsolatesFailures(t *testing.T) {
	req := require.New(t)
	r := newTestRegistry(nil)
	a, aConn := mustCreate(r, "a", "a", "")
	b, bConn := mustCreate(r, "b", "b", "")
	c, cConn := mustCreate(r, "c", "c", "")
	bConn.fail = true

	err := BroadcastTo([]*Session{a, b, c}, nil, "src", "PRIVMSG", Lit("#x"), Lit("msg"))
	req.ErrorIs(err, errFakeSend)
	req.Len(aConn.lines(), 1)
	req.Empty(bConn.lines())
	req.Len(cConn.lines(), 1)
}

func TestBroadcastToEmpty(t *testing.T) {
	if err := BroadcastTo(nil, nil, "src", "PING"); err != nil {
		t.Errorf("BroadcastTo(nil): unexpected error: %v", err)
	}
}
