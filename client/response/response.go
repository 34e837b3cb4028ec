// Package response normalizes HTTP transport output into an immutable
// [Response] with case-insensitive, multi-value header access and
// content-type classification.
package response

import (
	"maps"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Response is the normalized result of a completed HTTP exchange.
// It is never partially populated and is safe to share once built.
type Response struct {
	code        int
	contentType string
	headers     map[string][]string
	body        string
}

// New builds a Response. Header names are trimmed and lower-cased;
// values keep their order. The headers map is copied.
func New(code int, contentType string, headers map[string][]string, body string) *Response {
	// Keys that normalize alike are merged in sorted order.
	normalized := make(map[string][]string, len(headers))
	for _, k := range slices.Sorted(maps.Keys(headers)) {
		key := normalizeKey(k)
		normalized[key] = append(normalized[key], headers[k]...)
	}

	return &Response{
		code:        code,
		contentType: contentType,
		headers:     normalized,
		body:        body,
	}
}

// StatusCode returns the final HTTP status code.
func (r *Response) StatusCode() int { return r.code }

// ContentType returns the declared media type, which may be empty.
func (r *Response) ContentType() string { return r.contentType }

// Body returns the response body. It is always empty for HEAD.
func (r *Response) Body() string { return r.body }

// HasHeader reports whether the named header was received.
func (r *Response) HasHeader(name string) bool {
	_, ok := r.headers[normalizeKey(name)]
	return ok
}

// HeaderValues returns every value received for the named header in
// arrival order, or nil.
func (r *Response) HeaderValues(name string) []string {
	return slices.Clone(r.headers[normalizeKey(name)])
}

// Header returns the first value received for the named header.
func (r *Response) Header(name string) string {
	if v := r.headers[normalizeKey(name)]; len(v) > 0 {
		return v[0]
	}

	return ""
}

// Headers returns a copy of all received headers keyed by lower-cased name.
func (r *Response) Headers() map[string][]string {
	return copyHeaders(r.headers)
}

// Is reports whether the declared content type belongs to kind.
func (r *Response) Is(kind Kind) bool {
	return Classify(kind, r.contentType)
}

// DetectedContentType sniffs the media type from the body bytes.
// It returns an empty string when there is no body.
func (r *Response) DetectedContentType() string {
	if r.body == "" {
		return ""
	}

	return mimetype.Detect([]byte(r.body)).String()
}

func (r *Response) IsSuccess() bool     { return r.code >= 200 && r.code < 300 }
func (r *Response) IsRedirect() bool    { return r.code >= 300 && r.code < 400 }
func (r *Response) IsClientError() bool { return r.code >= 400 && r.code < 500 }
func (r *Response) IsServerError() bool { return r.code >= 500 && r.code < 600 }

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
