package throttle

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
)

// Config holds the requests per second and burst capacity of a limiter.
type Config struct {
	RPS   int `yaml:"rps" validate:"gt=0"`
	Burst int `yaml:"burst" validate:"gt=0"`
}

// Validate checks that both limits are positive.
func (c Config) Validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("rps[%d] and burst[%d] %w", c.RPS, c.Burst, ErrMustNotBeZero)
	}

	return nil
}

// Transport is an http.RoundTripper that waits on a shared token bucket
// before handing each request to the next RoundTripper.
type Transport struct {
	limiter *rate.Limiter
	cfg     Config
	next    http.RoundTripper
	logger  *slog.Logger
}

// New wraps next with a limiter built from cfg. A nil logger disables
// wait logging.
func New(cfg Config, logger *slog.Logger, next http.RoundTripper) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if next == nil {
		next = http.DefaultTransport
	}

	return &Transport{
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cfg:     cfg,
		next:    next,
		logger:  logger,
	}, nil
}

// Config returns the limits the Transport was built with.
func (t *Transport) Config() Config { return t.cfg }

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()

	if t.logger != nil && t.limiter.Tokens() < 1 {
		start := time.Now()
		t.logger.Debug("throttle tokens exhausted", "rate", t.cfg.RPS, "burst", t.cfg.Burst, "host", r.URL.Host)
		defer func() {
			t.logger.Debug("throttle wait complete", "waited", time.Since(start).String())
		}()
	}

	if err := t.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	return t.next.RoundTrip(r)
}
