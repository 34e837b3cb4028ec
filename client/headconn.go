package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/http/httpguts"
)

// maxHeadLine bounds a single buffered response head line. Longer lines
// are passed through unfiltered and left to net/http's own limits.
const maxHeadLine = 1 << 20

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// headConn records the raw lines of every response head read from the
// connection and withholds lines net/http would reject, so a response
// carrying a malformed header line is still parsed.
//
// A head is expected after each request written to the connection. Once
// the blank line ending it is read, bytes pass through untouched.
type headConn struct {
	net.Conn

	mu       sync.Mutex
	inHead   bool
	atStatus bool
	status   string
	pending  []byte
	out      []byte
	readErr  error
	lines    []string
}

func newHeadConn(conn net.Conn) *headConn {
	return &headConn{Conn: conn}
}

// Write arms head parsing when p starts a new request. Encrypted or
// continuation writes leave the state alone.
func (c *headConn) Write(p []byte) (int, error) {
	if startsRequest(p) {
		c.mu.Lock()
		if !c.inHead {
			c.inHead = true
			c.atStatus = true
			c.pending = nil
			c.lines = nil
		}
		c.mu.Unlock()
	}

	return c.Conn.Write(p)
}

func (c *headConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for {
		c.mu.Lock()
		if len(c.out) > 0 {
			n := copy(p, c.out)
			c.out = c.out[n:]
			c.mu.Unlock()
			return n, nil
		}
		if err := c.readErr; err != nil {
			c.readErr = nil
			c.mu.Unlock()
			return 0, err
		}
		c.mu.Unlock()

		buf := make([]byte, len(p))
		n, err := c.Conn.Read(buf)

		c.mu.Lock()
		if c.inHead {
			c.filter(buf[:n])
		} else {
			c.out = append(c.out, buf[:n]...)
		}
		if err != nil {
			c.out = append(c.out, c.pending...)
			c.pending = nil
			c.readErr = err
		}
		c.mu.Unlock()
	}
}

// head returns the raw lines of the last response head, status line and
// blank terminator included.
func (c *headConn) head() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.lines)
}

func (c *headConn) filter(data []byte) {
	for len(data) > 0 {
		if !c.inHead {
			c.out = append(c.out, data...)
			return
		}

		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			c.pending = append(c.pending, data...)
			if len(c.pending) > maxHeadLine {
				c.out = append(c.out, c.pending...)
				c.pending = nil
				c.inHead = false
			}
			return
		}

		raw := append(c.pending, data[:i+1]...)
		c.pending = nil
		data = data[i+1:]
		c.line(raw)
	}
}

func (c *headConn) line(raw []byte) {
	text := strings.TrimRight(string(raw), "\r\n")

	if c.atStatus {
		c.atStatus = false
		c.status = text
		c.lines = []string{string(raw)}
		c.out = append(c.out, raw...)
		return
	}

	c.lines = append(c.lines, string(raw))

	switch {
	case text == "":
		c.out = append(c.out, raw...)
		if informational(c.status) {
			c.atStatus = true
		} else {
			c.inHead = false
		}
	case wellFormed(text):
		c.out = append(c.out, raw...)
	}
}

// wellFormed reports whether net/http accepts line as a header field.
func wellFormed(line string) bool {
	name, value, ok := strings.Cut(line, ":")
	return ok && httpguts.ValidHeaderFieldName(name) && httpguts.ValidHeaderFieldValue(value)
}

// informational reports a 1xx interim status other than 101, after
// which another head follows on the same connection.
func informational(status string) bool {
	fields := strings.Fields(status)
	return len(fields) > 1 && strings.HasPrefix(fields[1], "1") && fields[1] != "101"
}

// startsRequest reports whether p begins with a request line, i.e. an
// upper case method token followed by a space.
func startsRequest(p []byte) bool {
	i := bytes.IndexByte(p, ' ')
	if i <= 0 || i > 10 {
		return false
	}
	for _, b := range p[:i] {
		if b < 'A' || b > 'Z' {
			return false
		}
	}

	return true
}

// wrapDialers installs dialers on t that hand out headConns. TLS is
// negotiated by the dialer itself so the wrapper sees plaintext, which
// limits the connection to HTTP/1.1.
func wrapDialers(t *http.Transport) {
	dial := t.DialContext
	if dial == nil {
		dial = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	}

	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return newHeadConn(conn), nil
	}

	if dialTLS := t.DialTLSContext; dialTLS != nil {
		t.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialTLS(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return newHeadConn(conn), nil
		}
		return
	}

	var cfg *tls.Config
	if t.TLSClientConfig != nil {
		cfg = t.TLSClientConfig.Clone()
	} else {
		cfg = &tls.Config{}
	}
	cfg.NextProtos = []string{"http/1.1"}
	handshakeTimeout := t.TLSHandshakeTimeout

	t.ForceAttemptHTTP2 = false
	t.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	t.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		raw, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		conf := cfg.Clone()
		if conf.ServerName == "" {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}
			conf.ServerName = host
		}

		if handshakeTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, handshakeTimeout)
			defer cancel()
		}

		conn := tls.Client(raw, conf)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, err
		}

		return newHeadConn(conn), nil
	}
}
