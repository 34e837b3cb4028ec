package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/adamwoolhether/httprequest/client/cookie"
	"github.com/adamwoolhether/httprequest/client/response"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Client issues GET and HEAD requests with a shared set of defaults.
// The defaults are replaced copy-on-write, so a Client is safe for
// concurrent use.
type Client struct {
	mu        sync.RWMutex
	defaults  RequestOptions
	transport http.RoundTripper
	conns     *http.Transport
	build     options

	base          http.RoundTripper
	checkRedirect func(*http.Request, []*http.Request) error
	cookies       *cookie.Store
	strict        bool
	logger        *slog.Logger
	tracer        trace.Tracer
}

// New builds a Client. The transport is resolved before anything else;
// if none is usable New fails with [ErrTransportUnavailable].
func New(logger *slog.Logger, optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	base := resolveTransport(opts)
	if base == nil {
		if logger != nil {
			logger.Log(context.Background(), LevelCritical, "no usable http transport configured")
		}
		return nil, ErrTransportUnavailable
	}

	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	transport, conns, err := buildTransport(base, opts, logger)
	if err != nil {
		return nil, err
	}

	defaults := defaultRequestOptions()
	if opts.userAgent != "" {
		defaults.userAgent = opts.userAgent
	}
	if opts.timeout != nil {
		defaults.timeout = *opts.timeout
	}
	defaults.referer = opts.referer
	defaults = defaults.WithHeaders(opts.headers).WithCookies(!opts.noCookies)
	defaults = defaults.WithTLSVerification(opts.verifyPeer, opts.verifyHost)
	warnRelaxedTLS(logger, opts.verifyPeer, opts.verifyHost)

	tracer := opts.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	c := &Client{
		defaults:      defaults,
		transport:     transport,
		conns:         conns,
		build:         opts,
		base:          base,
		checkRedirect: checkRedirect(opts),
		cookies:       cookie.NewStore(logger, opts.cookiePath),
		strict:        opts.strictHeaders,
		logger:        logger,
		tracer:        tracer,
	}

	return c, nil
}

// Options returns a snapshot of the client defaults.
func (c *Client) Options() RequestOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.defaults
}

func (c *Client) snapshot() (RequestOptions, http.RoundTripper) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.defaults, c.transport
}

func (c *Client) update(fn func(RequestOptions) RequestOptions) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.defaults = fn(c.defaults)
	return c
}

// SetUserAgent sets the default User-Agent. An empty value removes the
// header entirely.
func (c *Client) SetUserAgent(ua string) *Client {
	return c.update(func(o RequestOptions) RequestOptions { return o.WithUserAgent(ua) })
}

// SetReferer sets the default Referer. An empty value removes it. An
// invalid URL is rejected and the current referer is kept.
func (c *Client) SetReferer(referer string) (*Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := c.defaults.WithReferer(referer)
	if err != nil {
		return c, err
	}
	c.defaults = updated

	return c, nil
}

// SetHeaders replaces the default custom headers. An empty map clears them.
func (c *Client) SetHeaders(headers map[string]string) *Client {
	return c.update(func(o RequestOptions) RequestOptions { return o.WithHeaders(headers) })
}

// SetTLSVerification changes certificate chain (peer) and host name
// (host) verification for subsequent calls. The transport chain is
// rebuilt, which also resets a configured throttle.
func (c *Client) SetTLSVerification(peer, host bool) (*Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	build := c.build
	build.verifyPeer = peer
	build.verifyHost = host

	transport, conns, err := buildTransport(c.base, build, c.logger)
	if err != nil {
		return c, err
	}

	if c.conns != nil {
		c.conns.CloseIdleConnections()
	}

	c.build = build
	c.transport = transport
	c.conns = conns
	c.defaults = c.defaults.WithTLSVerification(peer, host)
	warnRelaxedTLS(c.logger, peer, host)

	return c, nil
}

// EnableCookies attaches the cookie file to subsequent calls.
func (c *Client) EnableCookies() *Client {
	return c.update(func(o RequestOptions) RequestOptions { return o.WithCookies(true) })
}

// DisableCookies stops attaching the cookie file. The file is kept.
func (c *Client) DisableCookies() *Client {
	return c.update(func(o RequestOptions) RequestOptions { return o.WithCookies(false) })
}

// SetCookiePath switches to the cookie file at path, or to a new
// temporary file when path is empty, and enables cookies.
func (c *Client) SetCookiePath(path string) (*Client, error) {
	if _, err := c.cookies.SetPath(path); err != nil {
		return c, fmt.Errorf("setting cookie path: %w", err)
	}

	return c.EnableCookies(), nil
}

// CookiePath returns the cookie file path, creating it if needed.
func (c *Client) CookiePath() (string, error) {
	return c.cookies.Path()
}

// Close removes the cookie files owned by the client and closes idle
// connections. Calls made afterwards run without cookies.
func (c *Client) Close() {
	c.cookies.Close()

	c.mu.RLock()
	conns := c.conns
	c.mu.RUnlock()

	if conns != nil {
		conns.CloseIdleConnections()
	}
}

// Get retrieves rawURL. Any HTTP status is returned as a response; only a
// failed exchange yields a [TransportError].
func (c *Client) Get(ctx context.Context, rawURL string, opts ...CallOption) (*response.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, opts...)
}

// Head is like Get but never retrieves a body.
func (c *Client) Head(ctx context.Context, rawURL string, opts ...CallOption) (*response.Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, opts...)
}

func (c *Client) do(ctx context.Context, method, rawURL string, optFns ...CallOption) (*response.Response, error) {
	if err := validateURL("url", rawURL); err != nil {
		return nil, err
	}

	var call callOpts
	for _, opt := range optFns {
		if err := opt(&call); err != nil {
			return nil, err
		}
	}

	reqURL := rawURL
	if len(call.params) > 0 {
		reqURL = rawURL + "?" + call.params.Encode()
	}

	defaults, transport := c.snapshot()
	opts := defaults.merge(call)

	requestID := uuid.NewString()
	logger := c.logger.With("request_id", requestID, "method", method)
	logger.Debug("request", "url", reqURL)

	ctx, span := c.tracer.Start(ctx, "httprequest."+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", reqURL),
			attribute.String("request_id", requestID),
		),
	)
	defer span.End()

	resp, err := c.exec(ctx, logger, transport, method, reqURL, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))

	return resp, nil
}

// exec performs one exchange with the merged options and builds the response.
func (c *Client) exec(ctx context.Context, logger *slog.Logger, transport http.RoundTripper, method, reqURL string, opts RequestOptions) (*response.Response, error) {
	u, err := url.Parse(reqURL)
	if err != nil {
		return nil, &InvalidArgumentError{Field: "url", Value: reqURL, Reason: err.Error()}
	}

	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		tErr := &TransportError{
			Code:    CodeUnsupportedProtocol,
			Message: fmt.Sprintf("protocol %q not supported", u.Scheme),
			URL:     reqURL,
			Err:     fmt.Errorf("unsupported protocol scheme %q", u.Scheme),
		}
		logger.Error("transport failure", "code", int(tErr.Code), "error", tErr.Message)
		return nil, tErr
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	// The connection of the last hop carries the raw head of the final response.
	var head atomic.Pointer[headConn]
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			raw, _ := info.Conn.(*headConn)
			head.Store(raw)
		},
	})

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, &InvalidArgumentError{Field: "url", Value: reqURL, Reason: err.Error()}
	}
	applyHeaders(req, opts)

	hc := &http.Client{
		Transport:     transport,
		CheckRedirect: c.checkRedirect,
	}

	var jar *cookie.Jar
	if opts.cookiesEnabled {
		jar, err = c.cookies.Load()
		switch {
		case errors.Is(err, cookie.ErrClosed):
			logger.Debug("cookie store closed, sending without cookies")
		case err != nil:
			return nil, fmt.Errorf("loading cookies: %w", err)
		default:
			hc.Jar = jar
		}
	}

	resp, err := hc.Do(req)
	if err != nil {
		tErr := newTransportError(reqURL, err)
		logger.Error("transport failure", "code", int(tErr.Code), "error", tErr.Message)
		return nil, tErr
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	var collectorOpts []response.CollectorOption
	if c.strict {
		collectorOpts = append(collectorOpts, response.WithStrict())
	}
	collector := response.NewCollector(collectorOpts...)
	if raw := head.Load(); raw != nil {
		for _, line := range raw.head() {
			collector.Collect(line)
		}
	} else {
		response.CollectHeader(collector, resp.Proto, resp.Status, resp.Header)
	}

	if err := collector.Err(); err != nil {
		tErr := &TransportError{Code: CodeWriteError, Message: err.Error(), URL: reqURL, Err: err}
		logger.Error("transport failure", "code", int(tErr.Code), "error", tErr.Message)
		return nil, tErr
	}

	var body []byte
	if method != http.MethodHead {
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			tErr := newTransportError(reqURL, err)
			logger.Error("transport failure", "code", int(tErr.Code), "error", tErr.Message)
			return nil, tErr
		}
	}

	if jar != nil {
		if err := c.cookies.Save(jar); err != nil {
			logger.Error("failed to save cookies", "error", err)
		}
	}

	contentType := resp.Header.Get("Content-Type")
	headers := collector.Headers()

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Debug("response",
			"status", resp.StatusCode,
			"content_type", contentType,
			"final_url", resp.Request.URL.String(),
		)
		if jar != nil {
			logger.Debug("response cookies", "cookies", jar.Entries())
		}
		logger.Debug("response headers", "headers", headers)
		logger.Debug("response body", "body", string(body))
	}

	return response.New(resp.StatusCode, contentType, headers, string(body)), nil
}

// applyHeaders sets the User-Agent, Referer and custom headers on req.
// Custom headers win over the dedicated settings.
func applyHeaders(req *http.Request, opts RequestOptions) {
	// An empty value suppresses net/http's default User-Agent.
	req.Header.Set("User-Agent", opts.userAgent)

	if opts.referer != "" {
		req.Header.Set("Referer", opts.referer)
	}

	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}
}

func warnRelaxedTLS(logger *slog.Logger, peer, host bool) {
	if !peer || !host {
		logger.Warn("tls verification relaxed", "verify_peer", peer, "verify_host", host)
	}
}
