package httprequest_test

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/adamwoolhether/httprequest"
	"github.com/adamwoolhether/httprequest/client"
	"github.com/adamwoolhether/httprequest/client/response"
)

func ExampleNewClient() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"msg":"hello"}`)
	}))
	defer ts.Close()

	c, err := httprequest.NewClient(slog.New(slog.DiscardHandler), client.WithTimeout(5*time.Second))
	if err != nil {
		fmt.Println("build error:", err)
		return
	}
	defer c.Close()

	resp, err := c.Get(context.Background(), ts.URL)
	if err != nil {
		fmt.Println("request error:", err)
		return
	}

	fmt.Println(resp.StatusCode(), resp.Is(response.JSON), resp.Body())
	// Output: 200 true {"msg":"hello"}
}
