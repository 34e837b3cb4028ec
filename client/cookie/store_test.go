package cookie

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestStore_LazyPath(t *testing.T) {
	s := NewStore(testLogger(), "")

	path, err := s.Path()
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if !strings.HasPrefix(filepath.Base(path), strings.TrimSuffix(TempPattern, "*")) {
		t.Errorf("exp generated name to use pattern %q, got %q", TempPattern, path)
	}

	again, err := s.Path()
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if again != path {
		t.Errorf("exp path to survive across calls; first %q, second %q", path, again)
	}

	s.Close()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("exp cookie file removed on close, stat err: %v", err)
	}
}

func TestStore_SetPath(t *testing.T) {
	s := NewStore(testLogger(), "")

	first, err := s.Path()
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	second, err := s.SetPath("")
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if first == second {
		t.Fatal("exp a new unique path")
	}

	if _, err := os.Stat(first); err != nil {
		t.Errorf("exp previous file to be left in place, got: %v", err)
	}

	custom := filepath.Join(t.TempDir(), "cookies.txt")
	got, err := s.SetPath(custom)
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if got != custom {
		t.Errorf("exp path %q, got %q", custom, got)
	}

	s.Close()

	for _, p := range []string{first, second} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("exp generated file %q removed on close, stat err: %v", p, err)
		}
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := NewStore(testLogger(), filepath.Join(t.TempDir(), "missing.txt"))
	defer s.Close()

	jar, err := s.Load()
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	if n := len(jar.Entries()); n != 0 {
		t.Errorf("exp empty jar, got %d entries", n)
	}
}

func TestStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	s := NewStore(testLogger(), path)
	defer s.Close()

	jar, err := s.Load()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}

	u, _ := url.Parse("http://www.example.com/app/page")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "session", Value: "abc", HttpOnly: true},
		{Name: "theme", Value: "dark", Domain: ".example.com", Path: "/", MaxAge: 3600},
		{Name: "gone", Value: "x", MaxAge: -1},
	})

	if err := s.Save(jar); err != nil {
		t.Fatalf("saving: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading cookie file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte(fileHeader)) {
		t.Errorf("exp Netscape header, got:\n%s", data)
	}

	reloaded, err := s.Load()
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}

	got := map[string]string{}
	for _, c := range reloaded.Cookies(u) {
		got[c.Name] = c.Value
	}

	exp := map[string]string{"session": "abc", "theme": "dark"}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("reloaded cookies (-exp +got):\n%s", diff)
	}

	other, _ := url.Parse("http://api.example.com/")
	var names []string
	for _, c := range reloaded.Cookies(other) {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"theme"}, names); diff != "" {
		t.Errorf("domain cookie visibility (-exp +got):\n%s", diff)
	}
}

func TestDecode(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()

	file := strings.Join([]string{
		fileHeader,
		"",
		".example.com\tTRUE\t/\tFALSE\t" + strconv.FormatInt(future, 10) + "\ttheme\tdark",
		"#HttpOnly_www.example.com\tFALSE\t/app\tTRUE\t0\tsession\tabc",
		"# comment line",
		"too\tfew\tfields",
		"example.com\tFALSE\t/\tFALSE\tnotanumber\tbad\tvalue",
		"example.com\tFALSE\t/\tFALSE\t0\tempty\t",
	}, "\n")

	entries, err := decode(strings.NewReader(file))
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}

	exp := []Entry{
		{Domain: "example.com", Path: "/", Expires: time.Unix(future, 0), Name: "theme", Value: "dark"},
		{Domain: "www.example.com", HostOnly: true, Path: "/app", Secure: true, HTTPOnly: true, Name: "session", Value: "abc"},
		{Domain: "example.com", HostOnly: true, Path: "/", Name: "empty", Value: ""},
	}
	if diff := cmp.Diff(exp, entries); diff != "" {
		t.Errorf("decoded entries (-exp +got):\n%s", diff)
	}
}

func TestEncodeDecode(t *testing.T) {
	entries := []Entry{
		{Domain: "example.com", Path: "/", Name: "a", Value: "1"},
		{Domain: "example.com", HostOnly: true, Path: "/x", Secure: true, HTTPOnly: true, Expires: time.Unix(4102444800, 0), Name: "b", Value: "2"},
	}

	var buf bytes.Buffer
	if err := encode(&buf, entries); err != nil {
		t.Fatalf("encoding: %v", err)
	}

	got, err := decode(&buf)
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}

	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("entries (-exp +got):\n%s", diff)
	}
}

func TestDefaultPath(t *testing.T) {
	testCases := map[string]string{
		"":         "/",
		"/":        "/",
		"/a":       "/",
		"/a/b":     "/a",
		"/a/b/":    "/a/b",
		"relative": "/",
	}

	for in, exp := range testCases {
		if got := defaultPath(in); got != exp {
			t.Errorf("defaultPath(%q) = %q, exp %q", in, got, exp)
		}
	}
}

func TestStore_Closed(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	s := NewStore(testLogger(), "")
	s.Close()

	if _, err := s.Path(); !errors.Is(err, ErrClosed) {
		t.Errorf("exp ErrClosed from Path, got: %v", err)
	}
	if _, err := s.SetPath(""); !errors.Is(err, ErrClosed) {
		t.Errorf("exp ErrClosed from SetPath, got: %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrClosed) {
		t.Errorf("exp ErrClosed from Load, got: %v", err)
	}

	jar, err := NewJar()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(jar); !errors.Is(err, ErrClosed) {
		t.Errorf("exp ErrClosed from Save, got: %v", err)
	}

	leftover, err := filepath.Glob(filepath.Join(os.TempDir(), TempPattern))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftover) != 0 {
		t.Errorf("exp no cookie files after close, got %v", leftover)
	}
}

func TestJar_DomainAttribute(t *testing.T) {
	testCases := map[string]struct {
		host    string
		domain  string
		expDom  string
		expHost bool
		stored  bool
	}{
		"publicSuffix":       {host: "www.example.co.uk", domain: "co.uk"},
		"publicSuffixDotted": {host: "www.example.co.uk", domain: ".co.uk"},
		"unrelated":          {host: "www.example.com", domain: "other.com"},
		"ipMismatch":         {host: "10.0.0.1", domain: "0.0.1"},
		"registrable":        {host: "www.example.co.uk", domain: "example.co.uk", expDom: "example.co.uk", stored: true},
		"sameHost":           {host: "example.com", domain: "example.com", expDom: "example.com", stored: true},
		"suffixIsHost":       {host: "co.uk", domain: "co.uk", expDom: "co.uk", expHost: true, stored: true},
		"ipExact":            {host: "10.0.0.1", domain: "10.0.0.1", expDom: "10.0.0.1", expHost: true, stored: true},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			jar, err := NewJar()
			if err != nil {
				t.Fatal(err)
			}

			u := &url.URL{Scheme: "http", Host: tc.host, Path: "/"}
			jar.SetCookies(u, []*http.Cookie{{Name: "id", Value: "v", Domain: tc.domain, Path: "/"}})

			entries := jar.Entries()
			if !tc.stored {
				if len(entries) != 0 {
					t.Errorf("exp cookie to be rejected, got %v", entries)
				}
				if sent := jar.Cookies(u); len(sent) != 0 {
					t.Errorf("exp jar to reject cookie, got %v", sent)
				}
				return
			}

			if len(entries) != 1 {
				t.Fatalf("exp one entry, got %v", entries)
			}
			if entries[0].Domain != tc.expDom || entries[0].HostOnly != tc.expHost {
				t.Errorf("exp domain %q host-only %v, got %q %v", tc.expDom, tc.expHost, entries[0].Domain, entries[0].HostOnly)
			}
			if sent := jar.Cookies(u); len(sent) != 1 {
				t.Errorf("exp jar to send the cookie, got %v", sent)
			}
		})
	}
}

func TestStore_RejectedCookieNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	s := NewStore(testLogger(), path)

	jar, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	jar.SetCookies(&url.URL{Scheme: "https", Host: "www.example.co.uk", Path: "/"}, []*http.Cookie{
		{Name: "evil", Value: "1", Domain: "co.uk", Path: "/"},
		{Name: "good", Value: "1", Domain: "example.co.uk", Path: "/"},
	})
	if err := s.Save(jar); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "evil") {
		t.Errorf("exp rejected cookie not written, got:\n%s", data)
	}
	if !strings.Contains(string(data), ".example.co.uk\tTRUE\t/\tFALSE\t0\tgood\t1") {
		t.Errorf("exp accepted cookie written, got:\n%s", data)
	}
}
