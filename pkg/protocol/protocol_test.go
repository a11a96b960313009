package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *Request
	}{
		{"bare command", "QUIT", &Request{Command: "QUIT", Params: []string{}}},
		{"lowercase command", "nick sam", &Request{Command: "NICK", Params: []string{"sam"}}},
		{"trailing", "PRIVMSG #ruby :hello there", &Request{Command: "PRIVMSG", Params: []string{"#ruby", "hello there"}}},
		{"trailing only", "NICK :sam", &Request{Command: "NICK", Params: []string{"sam"}}},
		{"empty trailing", "TOPIC #ruby :", &Request{Command: "TOPIC", Params: []string{"#ruby", ""}}},
		{"colon inside trailing", "PRIVMSG sam :a :b", &Request{Command: "PRIVMSG", Params: []string{"sam", "a :b"}}},
		{"user line", "USER sam * 0 :Sam Stephenson", &Request{Command: "USER", Params: []string{"sam", "*", "0", "Sam Stephenson"}}},
		{"prefix", ":sam!sam@localhost PING token", &Request{Prefix: "sam!sam@localhost", Command: "PING", Params: []string{"token"}}},
		{"crlf", "PONG hector\r\n", &Request{Command: "PONG", Params: []string{"hector"}}},
		{"extra spaces", "JOIN   #a  ", &Request{Command: "JOIN", Params: []string{"#a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(tt.line)
			if err != nil {
				t.Fatalf("ParseRequest(%q): unexpected error: %v", tt.line, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRequest(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr error
	}{
		{"empty", "", ErrEmptyLine},
		{"blank", "   \r\n", ErrEmptyLine},
		{"prefix only", ":sam", ErrMissingCommand},
		{"prefix and spaces", ":sam   ", ErrMissingCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseRequest(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
		})
	}
}

func TestRequestParam(t *testing.T) {
	req := &Request{Command: "USER", Params: []string{"sam", "*"}}
	if got := req.Param(0); got != "sam" {
		t.Errorf("Param(0) = %q, want %q", got, "sam")
	}
	if got := req.Param(5); got != "" {
		t.Errorf("Param(5) = %q, want empty", got)
	}
	if got := req.Param(-1); got != "" {
		t.Errorf("Param(-1) = %q, want empty", got)
	}
}

func TestMessageString(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"numeric", Message{Source: "hector.irc", Command: "001", Params: []string{"sam", "Welcome to IRC"}}, ":hector.irc 001 sam :Welcome to IRC"},
		{"no source", Message{Command: "ERROR", Params: []string{"Closing Link"}}, "ERROR :Closing Link"},
		{"single word last", Message{Source: "sam!sam@hector.irc", Command: "NICK", Params: []string{"samuel"}}, ":sam!sam@hector.irc NICK samuel"},
		{"empty last", Message{Command: "TOPIC", Params: []string{"#ruby", ""}}, "TOPIC #ruby :"},
		{"colon last", Message{Command: "PRIVMSG", Params: []string{"sam", ":)"}}, "PRIVMSG sam ::)"},
		{"no params", Message{Command: "PING"}, "PING"},
		{"injection stripped", Message{Command: "PRIVMSG", Params: []string{"sam", "hi\r\nQUIT"}}, "PRIVMSG sam :hi  QUIT"},
		{"nul stripped", Message{Command: "PRIVMSG", Params: []string{"sam", "a\x00b"}}, "PRIVMSG sam ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, Message{Command: "PING", Params: []string{"hector.irc"}}); err != nil {
		t.Fatalf("WriteMessage: unexpected error: %v", err)
	}
	if got, want := buf.String(), "PING hector.irc\r\n"; got != want {
		t.Errorf("WriteMessage wrote %q, want %q", got, want)
	}
}
