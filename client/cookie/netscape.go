package cookie

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	fileHeader     = "# Netscape HTTP Cookie File"
	httpOnlyPrefix = "#HttpOnly_"
)

// decode reads cookies in the Netscape cookie file format used by curl.
// Lines that do not hold exactly seven tab separated fields are skipped.
func decode(r io.Reader) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")

		var httpOnly bool
		if strings.HasPrefix(line, httpOnlyPrefix) {
			line = strings.TrimPrefix(line, httpOnlyPrefix)
			httpOnly = true
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			continue
		}

		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			continue
		}

		e := Entry{
			Domain:   strings.ToLower(strings.TrimPrefix(fields[0], ".")),
			HostOnly: !strings.EqualFold(fields[1], "TRUE"),
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			HTTPOnly: httpOnly,
			Name:     fields[5],
			Value:    fields[6],
		}
		if expiry > 0 {
			e.Expires = time.Unix(expiry, 0)
		}

		entries = append(entries, e)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning cookie file: %w", err)
	}

	return entries, nil
}

// encode writes entries in the Netscape cookie file format.
func encode(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s\n# This file was generated by httprequest. Edit at your own risk.\n\n", fileHeader)

	for _, e := range entries {
		domain := e.Domain
		if !e.HostOnly {
			domain = "." + domain
		}
		if e.HTTPOnly {
			domain = httpOnlyPrefix + domain
		}

		var expiry int64
		if !e.Expires.IsZero() {
			expiry = e.Expires.Unix()
		}

		fmt.Fprintf(bw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			domain, boolField(!e.HostOnly), e.Path, boolField(e.Secure), expiry, e.Name, e.Value)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing cookie file: %w", err)
	}

	return nil
}

func boolField(b bool) string {
	if b {
		return "TRUE"
	}

	return "FALSE"
}
