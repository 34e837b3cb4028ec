package response

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrMalformedHeader is reported by a strict Collector for a header
// line without a ':' separator.
var ErrMalformedHeader = errors.New("malformed header line")

// Collector accumulates raw response header lines into a lower-cased,
// multi-value header map. Lines without a ':' separator are dropped.
type Collector struct {
	headers   map[string][]string
	strict    bool
	malformed []string
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithStrict makes the Collector remember malformed lines so that
// [Collector.Err] can report them. Status lines and blank lines are
// never considered malformed.
func WithStrict() CollectorOption {
	return func(c *Collector) {
		c.strict = true
	}
}

// NewCollector returns an empty Collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{headers: make(map[string][]string)}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Collect consumes a single raw header line and returns the number of
// bytes consumed, which is always len(line).
func (c *Collector) Collect(line string) int {
	n := len(line)

	name, value, ok := strings.Cut(line, ":")
	if !ok {
		if c.strict && !isFraming(line) {
			c.malformed = append(c.malformed, line)
		}
		return n
	}

	key := strings.ToLower(strings.TrimSpace(name))
	c.headers[key] = append(c.headers[key], strings.TrimSpace(value))

	return n
}

// Headers returns a copy of the collected headers.
func (c *Collector) Headers() map[string][]string {
	return copyHeaders(c.headers)
}

// Err returns an error wrapping ErrMalformedHeader for the first
// malformed line seen in strict mode, or nil.
func (c *Collector) Err() error {
	if len(c.malformed) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %q (%d total)", ErrMalformedHeader, c.malformed[0], len(c.malformed))
}

// CollectHeader replays an already parsed response head through c as
// the raw lines a line-oriented transport would deliver: the status
// line, one "Name: value" line per value, and the blank terminator.
func CollectHeader(c *Collector, proto, status string, header http.Header) {
	c.Collect(proto + " " + status + "\r\n")

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, v := range header[name] {
			c.Collect(name + ": " + v + "\r\n")
		}
	}

	c.Collect("\r\n")
}

func isFraming(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "HTTP/")
}

func copyHeaders(src map[string][]string) map[string][]string {
	dst := make(map[string][]string, len(src))
	for k, v := range src {
		dst[k] = slices.Clone(v)
	}

	return dst
}
