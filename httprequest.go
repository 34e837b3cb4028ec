// Package httprequest exposes the client constructor.
package httprequest

import (
	"log/slog"

	"github.com/adamwoolhether/httprequest/client"
)

// NewClient instantiates a new *Client with the provided options.
// A nil logger falls back to slog.Default().
func NewClient(logger *slog.Logger, opts ...client.Option) (*client.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	return client.New(logger, opts...)
}
