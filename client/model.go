package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/adamwoolhether/httprequest/client/throttle"
)

// User agent presets.
const (
	DefaultUserAgent          = "HTTPRequest-Wrapper - https://github.com/adamwoolhether/httprequest"
	UserAgentChromeWindows10  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"
	UserAgentFirefoxWindows10 = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/118.0"
)

const (
	defaultTimeout      = 3 * time.Second
	defaultMaxRedirects = 10
)

// LevelCritical is logged when the client cannot be constructed.
const LevelCritical = slog.LevelError + 4

var (
	// ErrTransportUnavailable is returned by [New] when no usable
	// transport is configured.
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrInvalidArgument is the sentinel wrapped by [InvalidArgumentError].
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTransport is the sentinel wrapped by [TransportError].
	ErrTransport = errors.New("transport error")
	// ErrTooManyRedirects is wrapped when the redirect limit is reached.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// InvalidArgumentError is returned for a malformed URL or referer.
type InvalidArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%v: %s %s: %q", ErrInvalidArgument, e.Field, e.Reason, e.Value)
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// ErrorCode classifies a transport failure. Values follow libcurl's
// CURLcode numbering.
type ErrorCode int

const (
	CodeUnsupportedProtocol    ErrorCode = 1
	CodeCouldntResolveHost     ErrorCode = 6
	CodeCouldntConnect         ErrorCode = 7
	CodeWriteError             ErrorCode = 23
	CodeOperationTimedOut      ErrorCode = 28
	CodeSSLConnectError        ErrorCode = 35
	CodeAbortedByCallback      ErrorCode = 42
	CodeTooManyRedirects       ErrorCode = 47
	CodeRecvError              ErrorCode = 56
	CodePeerFailedVerification ErrorCode = 60
)

var codeNames = map[ErrorCode]string{
	CodeUnsupportedProtocol:    "unsupported protocol",
	CodeCouldntResolveHost:     "couldn't resolve host",
	CodeCouldntConnect:         "couldn't connect",
	CodeWriteError:             "write error",
	CodeOperationTimedOut:      "operation timed out",
	CodeSSLConnectError:        "ssl connect error",
	CodeAbortedByCallback:      "aborted",
	CodeTooManyRedirects:       "too many redirects",
	CodeRecvError:              "failure receiving data",
	CodePeerFailedVerification: "peer failed verification",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return fmt.Sprintf("code(%d)", int(c))
}

// TransportError is returned when the exchange could not complete.
// A response with any HTTP status is never a TransportError.
type TransportError struct {
	Code    ErrorCode
	Message string
	URL     string
	Err     error
}

func newTransportError(rawURL string, err error) *TransportError {
	return &TransportError{
		Code:    classify(err),
		Message: err.Error(),
		URL:     rawURL,
		Err:     err,
	}
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v (%d, %s): %s", ErrTransport, e.Code, e.Code, e.Message)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Timeout reports whether the failure was a timeout.
func (e *TransportError) Timeout() bool {
	return e.Code == CodeOperationTimedOut
}

func classify(err error) ErrorCode {
	var (
		netErr      net.Error
		dnsErr      *net.DNSError
		opErr       *net.OpError
		verifyErr   *tls.CertificateVerificationError
		unknownAuth x509.UnknownAuthorityError
		hostErr     x509.HostnameError
		rootsErr    x509.SystemRootsError
		invalidErr  x509.CertificateInvalidError
		recordErr   tls.RecordHeaderError
		alertErr    tls.AlertError
	)

	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return CodeTooManyRedirects
	case errors.Is(err, context.Canceled):
		return CodeAbortedByCallback
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, throttle.ErrWaitingFailed),
		errors.As(err, &netErr) && netErr.Timeout():
		return CodeOperationTimedOut
	case errors.As(err, &dnsErr):
		return CodeCouldntResolveHost
	case errors.As(err, &verifyErr),
		errors.As(err, &unknownAuth),
		errors.As(err, &hostErr),
		errors.As(err, &rootsErr),
		errors.As(err, &invalidErr):
		return CodePeerFailedVerification
	case errors.As(err, &recordErr), errors.As(err, &alertErr):
		return CodeSSLConnectError
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return CodeCouldntConnect
	default:
		return CodeRecvError
	}
}
