package client

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adamwoolhether/httprequest/client/throttle"
	"gopkg.in/yaml.v3"
)

// Settings is the file representation of a client configuration.
//
//	user_agent: myapp/1.0
//	referer: https://example.com/
//	timeout: 5s
//	cookies:
//	  path: /var/lib/myapp/cookies.txt
//	tls:
//	  verify_peer: true
//	  verify_host: true
//	throttle:
//	  rps: 10
//	  burst: 5
type Settings struct {
	UserAgent       string            `yaml:"user_agent"`
	Referer         string            `yaml:"referer" validate:"omitempty,url"`
	Headers         map[string]string `yaml:"headers"`
	Timeout         time.Duration     `yaml:"timeout" validate:"gte=0"`
	Cookies         CookieSettings    `yaml:"cookies"`
	TLS             TLSSettings       `yaml:"tls"`
	Throttle        *throttle.Config  `yaml:"throttle"`
	FollowRedirects *bool             `yaml:"follow_redirects"`
	MaxRedirects    int               `yaml:"max_redirects" validate:"gte=0"`
	Compression     bool              `yaml:"compression"`
	StrictHeaders   bool              `yaml:"strict_headers"`
}

type CookieSettings struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TLSSettings struct {
	VerifyPeer bool `yaml:"verify_peer"`
	VerifyHost bool `yaml:"verify_host"`
}

// ReadSettings decodes and validates YAML settings from r. Unknown keys
// are rejected.
func ReadSettings(r io.Reader) (Settings, error) {
	var s Settings

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}

	if err := validateStruct(s); err != nil {
		return Settings{}, fmt.Errorf("validating settings: %w", err)
	}

	return s, nil
}

// LoadSettings reads settings from the file at path.
func LoadSettings(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("opening settings: %w", err)
	}
	defer f.Close()

	return ReadSettings(f)
}

// Options converts s to client options. Zero values leave the client
// defaults in place.
func (s Settings) Options() []Option {
	opts := []Option{
		WithTLSVerification(s.TLS.VerifyPeer, s.TLS.VerifyHost),
	}

	if s.UserAgent != "" {
		opts = append(opts, WithUserAgent(s.UserAgent))
	}
	if s.Referer != "" {
		opts = append(opts, WithDefaultReferer(s.Referer))
	}
	if len(s.Headers) > 0 {
		opts = append(opts, WithDefaultHeaders(s.Headers))
	}
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	if s.Cookies.Path != "" {
		opts = append(opts, WithCookiePath(s.Cookies.Path))
	}
	if s.Cookies.Enabled != nil && !*s.Cookies.Enabled {
		opts = append(opts, WithoutCookies())
	}
	if s.Throttle != nil {
		opts = append(opts, WithThrottle(s.Throttle.RPS, s.Throttle.Burst))
	}
	if s.FollowRedirects != nil && !*s.FollowRedirects {
		opts = append(opts, WithNoFollowRedirects())
	}
	if s.MaxRedirects > 0 {
		opts = append(opts, WithMaxRedirects(s.MaxRedirects))
	}
	if s.Compression {
		opts = append(opts, WithCompression())
	}
	if s.StrictHeaders {
		opts = append(opts, WithStrictHeaders())
	}

	return opts
}
