// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound HTTP requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [New]:
//
//	rt, err := throttle.New(throttle.Config{RPS: 10, Burst: 5}, slog.Default(), http.DefaultTransport)
//	httpClient := &http.Client{Transport: rt}
//
// When the bucket is empty, outbound requests block until a token
// becomes available. A wait that cannot finish before the request
// context ends fails with [ErrWaitingFailed].
package throttle
