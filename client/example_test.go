package client_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/adamwoolhether/httprequest/client"
	"github.com/adamwoolhether/httprequest/client/response"
)

func ExampleNew() {
	c, err := client.New(slog.New(slog.DiscardHandler),
		client.WithTimeout(10*time.Second),
		client.WithUserAgent("example/1.0"),
		client.WithTLSVerification(true, true),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	ua, _ := c.Options().UserAgent()
	fmt.Println(ua)
	// Output: example/1.0
}

func ExampleClient_Get() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"q":%q}`, r.URL.Query().Get("q"))
	}))
	defer ts.Close()

	c, err := client.New(slog.New(slog.DiscardHandler))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	resp, err := c.Get(context.Background(), ts.URL,
		client.WithParams(url.Values{"q": {"gopher"}}),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.StatusCode(), resp.Is(response.JSON), resp.Body())
	// Output: 200 true {"q":"gopher"}
}

func ExampleClient_Head() {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	c, err := client.New(slog.New(slog.DiscardHandler))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	resp, err := c.Head(context.Background(), ts.URL+"/missing")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(resp.StatusCode(), resp.IsClientError(), len(resp.Body()))
	// Output: 404 true 0
}

func ExampleTransportError() {
	c, err := client.New(slog.New(slog.DiscardHandler))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	_, err = c.Get(context.Background(), "gopher://example.com/")

	var tErr *client.TransportError
	if errors.As(err, &tErr) {
		fmt.Println(int(tErr.Code), tErr.Code)
	}
	// Output: 1 unsupported protocol
}

func ExampleReadSettings() {
	s, err := client.ReadSettings(strings.NewReader(`
user_agent: settings/1.0
timeout: 2s
tls:
  verify_peer: true
  verify_host: true
`))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	c, err := client.New(slog.New(slog.DiscardHandler), s.Options()...)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer c.Close()

	ua, _ := c.Options().UserAgent()
	fmt.Println(ua, c.Options().Timeout())
	// Output: settings/1.0 2s
}
