package cookie

import (
	"cmp"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Entry is one persisted cookie.
type Entry struct {
	Domain   string
	HostOnly bool
	Path     string
	Secure   bool
	HTTPOnly bool
	Expires  time.Time // zero for session cookies
	Name     string
	Value    string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s%s=%s", e.Domain, e.Path, e.Name)
}

func (e Entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !e.Expires.After(now)
}

type entryKey struct {
	domain string
	path   string
	name   string
}

// Jar is an [http.CookieJar] that remembers every cookie it accepts so
// the session can be written back to a cookie file.
type Jar struct {
	jar *cookiejar.Jar

	mu      sync.Mutex
	entries map[entryKey]Entry
	now     func() time.Time
}

// NewJar returns an empty Jar using the public suffix list for domain
// cookie checks.
func NewJar() (*Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Jar{
		jar:     jar,
		entries: make(map[entryKey]Entry),
		now:     time.Now,
	}, nil
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	host := strings.ToLower(u.Hostname())

	for _, c := range cookies {
		e, ok := toEntry(host, u.Path, c, now)
		if !ok {
			continue
		}

		key := entryKey{domain: e.Domain, path: e.Path, name: e.Name}
		if e.expired(now) {
			delete(j.entries, key)
			continue
		}
		j.entries[key] = e
	}
}

// Entries returns the live cookies ordered by domain, path and name.
func (j *Jar) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if !e.expired(now) {
			out = append(out, e)
		}
	}

	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Domain, b.Domain),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Name, b.Name),
		)
	})

	return out
}

// load seeds the jar with previously persisted entries.
func (j *Jar) load(entries []Entry) {
	now := j.now()
	for _, e := range entries {
		if e.expired(now) {
			continue
		}

		scheme := "http"
		if e.Secure {
			scheme = "https"
		}

		c := &http.Cookie{
			Name:     e.Name,
			Value:    e.Value,
			Path:     e.Path,
			Secure:   e.Secure,
			HttpOnly: e.HTTPOnly,
			Expires:  e.Expires,
		}
		if !e.HostOnly {
			c.Domain = e.Domain
		}

		j.SetCookies(&url.URL{Scheme: scheme, Host: e.Domain, Path: e.Path}, []*http.Cookie{c})
	}
}

func toEntry(host, reqPath string, c *http.Cookie, now time.Time) (Entry, bool) {
	if c.Name == "" {
		return Entry{}, false
	}

	e := Entry{
		Domain:   host,
		HostOnly: true,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
		Name:     c.Name,
		Value:    c.Value,
	}

	if c.Domain != "" {
		domain, hostOnly, ok := cookieDomain(host, c.Domain)
		if !ok {
			return Entry{}, false
		}
		e.Domain = domain
		e.HostOnly = hostOnly
	}

	if !strings.HasPrefix(e.Path, "/") {
		e.Path = defaultPath(reqPath)
	}

	switch {
	case c.MaxAge < 0:
		e.Expires = now.Add(-time.Second)
	case c.MaxAge > 0:
		e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
	case !c.Expires.IsZero():
		e.Expires = c.Expires
	}

	return e, true
}

// cookieDomain applies the Domain attribute rules of net/http/cookiejar
// so only cookies the jar accepted are recorded. A Domain equal to a
// public suffix is accepted only as a host cookie of that exact host.
func cookieDomain(host, attr string) (domain string, hostOnly, ok bool) {
	if isIP(host) {
		return host, true, attr == host
	}

	domain = strings.ToLower(strings.TrimPrefix(attr, "."))
	if domain == "" || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return "", false, false
	}

	if ps, _ := publicsuffix.PublicSuffix(domain); ps != "" && !strings.HasSuffix(domain, "."+ps) {
		if domain == host {
			return host, true, true
		}
		return "", false, false
	}

	if domain != host && !strings.HasSuffix(host, "."+domain) {
		return "", false, false
	}

	return domain, false, true
}

// isIP reports whether host is an IP literal, for which the jar only
// keeps host-only cookies.
func isIP(host string) bool {
	return strings.Count(host, ":") > 1 || strings.Trim(host, "0123456789.") == ""
}

// defaultPath implements the RFC 6265 default-path algorithm.
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}

	dir := path.Dir(p)
	if strings.HasSuffix(p, "/") {
		dir = strings.TrimSuffix(p, "/")
	}
	if dir == "" || dir == "." {
		return "/"
	}

	return dir
}
