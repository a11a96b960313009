package server

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clintecker/hector/pkg/crypto"
	"github.com/clintecker/hector/pkg/logging"
	"github.com/clintecker/hector/pkg/store"
)

const (
	testServerName = "irc.test"
	testPassword   = "secret"
	waitTimeout    = 2 * time.Second
)

// cheap keeps argon2 fast in tests.
var cheap = crypto.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 16}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ServerName = testServerName
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	cfg.PingInterval = time.Minute
	cfg.RegistrationTimeout = 5 * time.Second
	return cfg
}

// newTestServer creates a server whose identity store knows sam, bob and
// alice, all with testPassword.
func newTestServer(t *testing.T, mutate ...func(*Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	st := store.NewMemoryWithParams(cheap)
	for _, user := range []string{"sam", "bob", "alice"} {
		_, err := st.CreateIdentity(context.Background(), user, testPassword)
		require.NoError(t, err)
	}

	srv := New(cfg, Dependencies{Identities: st, Logger: logging.Discard()})
	t.Cleanup(srv.Shutdown)
	return srv
}

// testClient is the client end of an in-memory connection served by srv.
type testClient struct {
	t     *testing.T
	nc    net.Conn
	lines chan string
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	go srv.ServeConn(srv.ctx, serverSide)
	return newTestClient(t, clientSide)
}

func newTestClient(t *testing.T, nc net.Conn) *testClient {
	c := &testClient{t: t, nc: nc, lines: make(chan string, 1024)}
	go func() {
		defer close(c.lines)
		r := bufio.NewReader(nc)
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			c.lines <- strings.TrimRight(line, "\r\n")
		}
	}()
	t.Cleanup(func() { _ = nc.Close() })
	return c
}

func (c *testClient) send(line string) {
	c.t.Helper()
	_ = c.nc.SetWriteDeadline(time.Now().Add(waitTimeout))
	_, err := io.WriteString(c.nc, line+"\r\n")
	require.NoError(c.t, err, "send %q", line)
}

// expect skips lines until one contains substr.
func (c *testClient) expect(substr string) string {
	c.t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %q", substr)
			}
			if strings.Contains(line, substr) {
				return line
			}
		case <-timeout:
			c.t.Fatalf("timed out waiting for %q", substr)
		}
	}
}

// expectClosed waits for the server to close the connection.
func (c *testClient) expectClosed() {
	c.t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		case <-timeout:
			c.t.Fatal("timed out waiting for the connection to close")
		}
	}
}

// register logs in as user with the given nickname and waits for 001.
func (c *testClient) register(user, nick string) {
	c.t.Helper()
	c.send("PASS " + testPassword)
	c.send("USER " + user + " 0 * :" + strings.ToUpper(user[:1]) + user[1:] + " Test")
	c.send("NICK " + nick)
	c.expect(" 001 " + nick + " ")
}

func login(t *testing.T, srv *Server, nick string) *testClient {
	t.Helper()
	c := dial(t, srv)
	c.register(nick, nick)
	return c
}
