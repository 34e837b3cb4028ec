// Package client provides a small HTTP client for GET and HEAD requests
// built on [net/http].
//
// # Building a Client
//
// Use [New] with a logger and functional options:
//
//	c, err := client.New(logger,
//		client.WithTimeout(10*time.Second),
//		client.WithUserAgent(client.UserAgentFirefoxWindows10),
//		client.WithTLSVerification(true, true),
//	)
//	defer c.Close()
//
// Options can also be read from a YAML file with [LoadSettings] and
// passed on with [Settings.Options].
//
// # Making Requests
//
// [Client.Get] and [Client.Head] return a
// [github.com/adamwoolhether/httprequest/client/response.Response] for
// every HTTP status. Only a failed exchange returns an error, a
// [TransportError] carrying an [ErrorCode]:
//
//	resp, err := c.Get(ctx, "https://example.com/api",
//		client.WithParams(url.Values{"q": {"go"}}),
//		client.WithHeaders(map[string]string{"Accept": "application/json"}),
//	)
//	if resp.Is(response.JSON) { ... }
//
// Call options apply to a single call. Defaults are changed with the
// Set methods, e.g. [Client.SetUserAgent] and [Client.SetHeaders].
//
// # Cookies
//
// Cookies are enabled by default and persisted to a temporary file in
// Netscape format, so a session carries over between calls. See
// [Client.SetCookiePath] and the
// [github.com/adamwoolhether/httprequest/client/cookie] package.
package client
