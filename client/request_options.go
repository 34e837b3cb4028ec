package client

import (
	"maps"
	"time"
)

// RequestOptions is the immutable set of settings applied to every call
// a [Client] makes. Each With method returns an updated copy and leaves
// the receiver untouched.
type RequestOptions struct {
	userAgent      string
	referer        string
	headers        map[string]string
	cookiesEnabled bool
	timeout        time.Duration
	verifyPeer     bool
	verifyHost     bool
}

func defaultRequestOptions() RequestOptions {
	return RequestOptions{
		userAgent:      DefaultUserAgent,
		cookiesEnabled: true,
		timeout:        defaultTimeout,
	}
}

// WithUserAgent sets the User-Agent header. An empty value removes it,
// in which case no User-Agent header is sent at all.
func (o RequestOptions) WithUserAgent(ua string) RequestOptions {
	o.userAgent = ua
	return o
}

// WithReferer sets the Referer header. An empty value removes it.
// A non-empty value must be an absolute URL, otherwise the receiver is
// returned unchanged together with an [InvalidArgumentError].
func (o RequestOptions) WithReferer(referer string) (RequestOptions, error) {
	if referer != "" {
		if err := validateURL("referer", referer); err != nil {
			return o, err
		}
	}

	o.referer = referer
	return o, nil
}

// WithHeaders replaces the full set of custom headers. An empty map
// clears them.
func (o RequestOptions) WithHeaders(headers map[string]string) RequestOptions {
	if len(headers) == 0 {
		o.headers = nil
		return o
	}

	o.headers = maps.Clone(headers)
	return o
}

// WithCookies toggles use of the client's cookie file.
func (o RequestOptions) WithCookies(enabled bool) RequestOptions {
	o.cookiesEnabled = enabled
	return o
}

// WithTimeout sets the per-call timeout. Zero disables it.
func (o RequestOptions) WithTimeout(d time.Duration) RequestOptions {
	o.timeout = d
	return o
}

// WithTLSVerification sets whether peer certificates and host names are
// verified.
func (o RequestOptions) WithTLSVerification(peer, host bool) RequestOptions {
	o.verifyPeer = peer
	o.verifyHost = host
	return o
}

// UserAgent returns the configured user agent, if any.
func (o RequestOptions) UserAgent() (string, bool) { return o.userAgent, o.userAgent != "" }

// Referer returns the configured referer, if any.
func (o RequestOptions) Referer() (string, bool) { return o.referer, o.referer != "" }

// Headers returns a copy of the custom headers.
func (o RequestOptions) Headers() map[string]string { return maps.Clone(o.headers) }

func (o RequestOptions) CookiesEnabled() bool   { return o.cookiesEnabled }
func (o RequestOptions) Timeout() time.Duration { return o.timeout }

// TLSVerification reports whether peer certificates and host names are
// verified. Both default to false.
func (o RequestOptions) TLSVerification() (peer, host bool) {
	return o.verifyPeer, o.verifyHost
}

// merge applies call scoped overrides on top of o.
func (o RequestOptions) merge(call callOpts) RequestOptions {
	if call.headers != nil {
		o = o.WithHeaders(*call.headers)
	}
	if call.referer != nil {
		o.referer = *call.referer
	}

	return o
}
