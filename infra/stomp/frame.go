package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// STOMP commands used by the client.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdDisconnect  = "DISCONNECT"
	CmdMessage     = "MESSAGE"
	CmdReceipt     = "RECEIPT"
	CmdError       = "ERROR"
)

// ErrBadFrame reports bytes that are not a STOMP frame.
var ErrBadFrame = errors.New("stomp: malformed frame")

// Frame is one STOMP frame. Headers keep their wire order; on repeated keys
// the first occurrence wins.
type Frame struct {
	Command string
	Headers [][2]string
	Body    []byte
}

// NewFrame builds a frame from alternating key, value pairs.
func NewFrame(command string, kv ...string) *Frame {
	f := &Frame{Command: command}
	for i := 0; i+1 < len(kv); i += 2 {
		f.Headers = append(f.Headers, [2]string{kv[i], kv[i+1]})
	}
	return f
}

// Get returns the first value of key.
func (f *Frame) Get(key string) (string, bool) {
	for _, h := range f.Headers {
		if h[0] == key {
			return h[1], true
		}
	}
	return "", false
}

// escaped reports whether header escaping applies; CONNECT and CONNECTED are
// exempt for 1.0 compatibility.
func (f *Frame) escaped() bool {
	return f.Command != CmdConnect && f.Command != CmdConnected
}

var (
	escaper   = strings.NewReplacer("\\", "\\\\", "\r", "\\r", "\n", "\\n", ":", "\\c")
	unescaper = strings.NewReplacer("\\\\", "\\", "\\r", "\r", "\\n", "\n", "\\c", ":")
)

// Marshal encodes the frame including the trailing NUL.
func (f *Frame) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for _, h := range f.Headers {
		k, v := h[0], h[1]
		if f.escaped() {
			k, v = escaper.Replace(k), escaper.Replace(v)
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	if len(f.Body) > 0 {
		if _, ok := f.Get("content-length"); !ok {
			b.WriteString("content-length:")
			b.WriteString(strconv.Itoa(len(f.Body)))
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteByte(0)
	return b.Bytes()
}

// Parse decodes every frame in data. Bare end-of-line heartbeats are skipped,
// so a heartbeat-only message yields no frames and no error.
func Parse(data []byte) ([]*Frame, error) {
	var frames []*Frame
	for {
		data = skipEOL(data)
		if len(data) == 0 {
			return frames, nil
		}
		f, rest, err := parseOne(data)
		if err != nil {
			return frames, err
		}
		frames = append(frames, f)
		data = rest
	}
}

func skipEOL(data []byte) []byte {
	for len(data) > 0 && (data[0] == '\n' || data[0] == '\r') {
		data = data[1:]
	}
	return data
}

func readLine(data []byte) (string, []byte, bool) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return "", data, false
	}
	return strings.TrimSuffix(string(data[:i]), "\r"), data[i+1:], true
}

func parseOne(data []byte) (*Frame, []byte, error) {
	cmd, data, ok := readLine(data)
	if !ok || cmd == "" {
		return nil, nil, fmt.Errorf("%w: missing command", ErrBadFrame)
	}
	f := &Frame{Command: cmd}
	for {
		var line string
		line, data, ok = readLine(data)
		if !ok {
			return nil, nil, fmt.Errorf("%w: unterminated headers", ErrBadFrame)
		}
		if line == "" {
			break
		}
		k, v, found := strings.Cut(line, ":")
		if !found {
			return nil, nil, fmt.Errorf("%w: header %q", ErrBadFrame, line)
		}
		if f.escaped() {
			k, v = unescaper.Replace(k), unescaper.Replace(v)
		}
		f.Headers = append(f.Headers, [2]string{k, v})
	}
	if cl, ok := f.Get("content-length"); ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 || n+1 > len(data) || data[n] != 0 {
			return nil, nil, fmt.Errorf("%w: content-length %q", ErrBadFrame, cl)
		}
		f.Body = data[:n]
		return f, data[n+1:], nil
	}
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: missing NUL", ErrBadFrame)
	}
	f.Body = data[:end]
	return f, data[end+1:], nil
}
