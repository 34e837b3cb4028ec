package client

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/adamwoolhether/httprequest/client/throttle"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a [Client] via [New].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	rtSet             bool
	timeout           *time.Duration
	userAgent         string
	referer           string
	headers           map[string]string
	cookiePath        string
	noCookies         bool
	verifyPeer        bool
	verifyHost        bool
	throttle          *throttle.Config
	noFollowRedirects bool
	maxRedirects      int
	tracer            trace.Tracer
	compression       bool
	strictHeaders     bool
}

// WithClient uses the Transport and CheckRedirect policy of hc.
// Timeouts and cookies remain managed by the [Client].
func WithClient(hc *http.Client) Option {
	return func(o *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		o.client = hc
		return nil
	}
}

// WithTransport sets the [http.RoundTripper] that performs the exchange.
// A nil transport makes [New] fail with [ErrTransportUnavailable].
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		o.rt = rt
		o.rtSet = true
		return nil
	}
}

// WithTimeout sets the per-call timeout. The default is 3 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		o.timeout = &d
		return nil
	}
}

// WithUserAgent sets the initial User-Agent. An empty value keeps
// [DefaultUserAgent].
func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

// WithDefaultReferer sets the Referer sent with every call.
func WithDefaultReferer(referer string) Option {
	return func(o *options) error {
		if referer != "" {
			if err := validateURL("referer", referer); err != nil {
				return err
			}
		}
		o.referer = referer
		return nil
	}
}

// WithDefaultHeaders sets the custom headers sent with every call.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(o *options) error {
		o.headers = maps.Clone(headers)
		return nil
	}
}

// WithCookiePath uses path as the cookie file instead of a generated
// temporary file.
func WithCookiePath(path string) Option {
	return func(o *options) error {
		o.cookiePath = path
		return nil
	}
}

// WithoutCookies starts the client with cookie persistence disabled.
func WithoutCookies() Option {
	return func(o *options) error {
		o.noCookies = true
		return nil
	}
}

// WithTLSVerification controls certificate chain (peer) and host name
// (host) verification. Both are disabled unless enabled here.
func WithTLSVerification(peer, host bool) Option {
	return func(o *options) error {
		o.verifyPeer = peer
		o.verifyHost = host
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(o *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects returns the first response instead of following redirects.
func WithNoFollowRedirects() Option {
	return func(o *options) error {
		o.noFollowRedirects = true
		return nil
	}
}

// WithMaxRedirects sets how many redirects are followed before the call
// fails with [CodeTooManyRedirects]. The default is 10.
func WithMaxRedirects(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("max redirects[%d] must be greater than zero", n)
		}
		o.maxRedirects = n
		return nil
	}
}

// WithTracer records one client span per call.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		if tracer == nil {
			return errors.New("tracer must not be nil")
		}
		o.tracer = tracer
		return nil
	}
}

// WithCompression advertises gzip and decodes compressed responses
// transparently.
func WithCompression() Option {
	return func(o *options) error {
		o.compression = true
		return nil
	}
}

// WithStrictHeaders fails a call whose response holds a header line
// without a ':' separator. By default such lines are dropped.
func WithStrictHeaders() Option {
	return func(o *options) error {
		o.strictHeaders = true
		return nil
	}
}

// CallOption is a functional option for [Client.Get] and [Client.Head].
// Call options apply to one call only and never change the client.
type CallOption func(*callOpts) error

type callOpts struct {
	params  url.Values
	headers *map[string]string
	referer *string
}

// WithParams appends params to the URL as an encoded query string.
func WithParams(params url.Values) CallOption {
	return func(o *callOpts) error {
		o.params = params
		return nil
	}
}

// WithHeaders replaces the custom headers for this call. An empty map
// sends no custom headers.
func WithHeaders(headers map[string]string) CallOption {
	return func(o *callOpts) error {
		cpy := maps.Clone(headers)
		o.headers = &cpy
		return nil
	}
}

// WithReferer overrides the Referer for this call. An empty value sends
// no Referer.
func WithReferer(referer string) CallOption {
	return func(o *callOpts) error {
		if referer != "" {
			if err := validateURL("referer", referer); err != nil {
				return err
			}
		}
		o.referer = &referer
		return nil
	}
}
