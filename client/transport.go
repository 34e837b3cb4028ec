package client

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/adamwoolhether/httprequest/client/throttle"
	"github.com/klauspost/compress/gzhttp"
)

// resolveTransport picks the base RoundTripper the same way [New]
// documents: WithTransport, then the Transport of WithClient, then
// http.DefaultTransport.
func resolveTransport(opts options) http.RoundTripper {
	switch {
	case opts.rtSet:
		return opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		return opts.client.Transport
	default:
		return http.DefaultTransport
	}
}

// buildTransport layers TLS verification, compression and throttling on
// top of base. When base is an *http.Transport the returned clone is
// also reported so its idle connections can be closed.
func buildTransport(base http.RoundTripper, opts options, logger *slog.Logger) (http.RoundTripper, *http.Transport, error) {
	transport := base

	var conns *http.Transport
	if ht, ok := base.(*http.Transport); ok {
		conns = ht.Clone()
		conns.TLSClientConfig = tlsConfig(conns.TLSClientConfig, opts.verifyPeer, opts.verifyHost)
		wrapDialers(conns)
		transport = conns
	} else {
		logger.Debug("raw response heads unavailable for custom transport", "type", fmt.Sprintf("%T", base))
		if !opts.verifyPeer || !opts.verifyHost {
			logger.Warn("tls verification settings not applied to custom transport", "type", fmt.Sprintf("%T", base))
		}
	}

	if opts.compression {
		transport = gzhttp.Transport(transport)
	}

	if opts.throttle != nil {
		rt, err := throttle.New(*opts.throttle, logger, transport)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}

	return transport, conns, nil
}

// tlsConfig returns a copy of base adjusted for the requested checks.
// Go cannot skip one check natively, so partial verification disables
// the built-in checks and performs the remaining one in VerifyConnection.
func tlsConfig(base *tls.Config, verifyPeer, verifyHost bool) *tls.Config {
	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{}
	}

	if verifyPeer && verifyHost {
		return cfg
	}

	cfg.InsecureSkipVerify = true
	if !verifyPeer && !verifyHost {
		return cfg
	}

	roots := cfg.RootCAs
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("tls: no peer certificates")
		}
		leaf := cs.PeerCertificates[0]

		if verifyHost {
			return leaf.VerifyHostname(cs.ServerName)
		}

		vopts := x509.VerifyOptions{
			Roots:         roots,
			Intermediates: x509.NewCertPool(),
		}
		for _, cert := range cs.PeerCertificates[1:] {
			vopts.Intermediates.AddCert(cert)
		}

		_, err := leaf.Verify(vopts)
		return err
	}

	return cfg
}

func checkRedirect(opts options) func(*http.Request, []*http.Request) error {
	if opts.noFollowRedirects {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	limit := defaultMaxRedirects
	if opts.maxRedirects > 0 {
		limit = opts.maxRedirects
	}

	var custom func(*http.Request, []*http.Request) error
	if opts.client != nil {
		custom = opts.client.CheckRedirect
	}

	return func(req *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, limit)
		}
		if custom != nil {
			return custom(req, via)
		}
		return nil
	}
}
