package testutil

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/charset"
)

// SplitURL splits raw at the first '?' into a path and its query
// arguments. Arguments without '=' are skipped, names and values are
// percent-decoded, and a repeated name keeps its last value.
func SplitURL(raw string) (string, map[string]string) {
	args := make(map[string]string)
	path, query, found := strings.Cut(raw, "?")
	if !found {
		return path, args
	}
	for _, arg := range strings.Split(query, "&") {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			continue
		}
		args[unquote(name)] = unquote(value)
	}
	return path, args
}

// unquote percent-decodes s one escape at a time. A '%' that does not
// start a valid two-digit hex escape is kept as it is, so one bad escape
// does not stop the rest of the value from decoding. '+' is left alone.
func unquote(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}

// UniContent decodes the response body using its declared charset,
// defaulting to UTF-8.
func UniContent(t T, resp *Response) string {
	t.Helper()
	label := resp.Charset()
	if label == "" {
		return string(resp.Body)
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(resp.Body))
	require.NoError(t, err, "decoding %s body of %s", label, resp.Path)
	data, err := io.ReadAll(r)
	require.NoError(t, err, "decoding %s body of %s", label, resp.Path)
	return string(data)
}

var blankRuns = regexp.MustCompile(`(\n\s+){2,}`)

// TextContent returns the text of an HTML response with runs of blank
// lines collapsed.
func TextContent(t T, resp *Response) string {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(UniContent(t, resp)))
	require.NoError(t, err, "parsing %s", resp.Path)
	return blankRuns.ReplaceAllString(doc.Text(), "\n\n")
}

// Keyed is a stored model with an integer primary key.
type Keyed interface {
	PK() int64
}

// ReloadObjects fetches a fresh copy of each object by primary key, in
// argument order. A failed fetch fails the test.
//
//	doc, user = ReloadObject(t, st.DocumentByID, doc), ReloadObject(t, st.UserByID, user)
func ReloadObjects[M Keyed](t T, fetch func(context.Context, int64) (M, error), objs ...M) []M {
	t.Helper()
	ctx, cancel := StoreContext(t)
	defer cancel()

	out := make([]M, 0, len(objs))
	for _, o := range objs {
		fresh, err := fetch(ctx, o.PK())
		require.NoError(t, err, "reloading object %d", o.PK())
		out = append(out, fresh)
	}
	return out
}

// ReloadObject fetches a fresh copy of obj.
func ReloadObject[M Keyed](t T, fetch func(context.Context, int64) (M, error), obj M) M {
	t.Helper()
	return ReloadObjects(t, fetch, obj)[0]
}

// WithFileContaining writes contents to a new temporary file, calls fn
// with its name and removes the file however fn returns.
func WithFileContaining[C ~string | ~[]byte](t T, contents C, fn func(name string)) {
	t.Helper()
	f, err := os.CreateTemp("", "datatracker-test-*")
	require.NoError(t, err, "creating temp file")
	name := f.Name()
	defer os.Remove(name)

	_, err = f.Write([]byte(contents))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	require.NoError(t, err, "writing temp file")

	fn(name)
}
