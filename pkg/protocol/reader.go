package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrLineTooLong reports an inbound line over the reader's limit. The line
// has been discarded through its terminator and reading may continue.
var ErrLineTooLong = errors.New("protocol: line too long")

// LineReader reads CRLF or LF terminated lines of bounded length.
type LineReader struct {
	r   *bufio.Reader
	max int
}

// NewLineReader returns a reader accepting lines of at most max bytes,
// terminator excluded.
func NewLineReader(r io.Reader, max int) *LineReader {
	return &LineReader{
		r:   bufio.NewReaderSize(r, max+len(LineTerminator)),
		max: max,
	}
}

// ReadLine returns the next line without its terminator. A final line
// without a terminator is returned before io.EOF.
func (l *LineReader) ReadLine() (string, error) {
	line, err := l.r.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = l.r.ReadSlice('\n')
		}
		if err != nil {
			return "", err
		}
		return "", ErrLineTooLong
	}
	if err != nil && (len(line) == 0 || !errors.Is(err, io.EOF)) {
		return "", err
	}

	text := strings.TrimRight(string(line), "\r\n")
	if len(text) > l.max {
		return "", ErrLineTooLong
	}
	return text, nil
}
