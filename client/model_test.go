package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/adamwoolhether/httprequest/client/throttle"
)

func TestClassify(t *testing.T) {
	testCases := map[string]struct {
		err error
		exp ErrorCode
	}{
		"deadline":          {err: &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, exp: CodeOperationTimedOut},
		"cancelled":         {err: &url.Error{Op: "Get", URL: "http://x", Err: context.Canceled}, exp: CodeAbortedByCallback},
		"throttleCancelled": {err: fmt.Errorf("%w: %w", throttle.ErrWaitingFailed, context.Canceled), exp: CodeAbortedByCallback},
		"throttleDeadline":  {err: fmt.Errorf("%w: %w", throttle.ErrWaitingFailed, context.DeadlineExceeded), exp: CodeOperationTimedOut},
		"throttleBudget":    {err: fmt.Errorf("%w: %w", throttle.ErrWaitingFailed, errors.New("rate: Wait(n=1) would exceed context deadline")), exp: CodeOperationTimedOut},
		"redirects":         {err: fmt.Errorf("%w: stopped after 1", ErrTooManyRedirects), exp: CodeTooManyRedirects},
		"dns":               {err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "x.invalid"}}, exp: CodeCouldntResolveHost},
		"dial":              {err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, exp: CodeCouldntConnect},
		"other":             {err: errors.New("unexpected EOF"), exp: CodeRecvError},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := classify(tc.err); got != tc.exp {
				t.Errorf("exp code %d, got %d", tc.exp, got)
			}
		})
	}
}
