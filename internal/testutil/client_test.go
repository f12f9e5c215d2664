package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/htmlcheck"
)

func page(body string) string {
	return "<!DOCTYPE html>\n<html lang=\"en\">\n<head><title>Test</title></head>\n<body>\n" + body + "\n</body>\n</html>\n"
}

// htmlServer serves each body at its path with a text/html content type.
func htmlServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range pages {
		body := body
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if r.URL.Query().Get("status") == "404" {
				w.WriteHeader(http.StatusNotFound)
			}
			w.Write([]byte(body))
		})
	}
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestVerifyingClient_IgnoredIssues(t *testing.T) {
	captureDiagnostics(t)
	ts := htmlServer(t, map[string]string{
		"/clean/":    page("<p>ok</p>"),
		"/required/": page(`<div required>field</div>`),
		"/icon/":     page(`<p><i class="bi bi-x"></i> close</p>`),
		"/anchor/":   page(`<p><a id="top" name="start" href="#top">top</a></p>`),
		"/empty/":    page(`<p><span></span><em></em><button type="button"></button> x</p>`),
	})

	for _, path := range []string{"/clean/", "/required/", "/icon/", "/anchor/", "/empty/"} {
		t.Run(path, func(t *testing.T) {
			var resp *Response
			r := runT(t, func(rt T) {
				resp = NewVerifyingClient(rt, ts.URL).Get(path)
			})
			assert.False(t, r.failed, r.output())
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestVerifyingClient_FailsOnOtherIssues(t *testing.T) {
	out := captureDiagnostics(t)
	ts := htmlServer(t, map[string]string{
		"/blink/":     page("<blink>old</blink>"),
		"/empty-p/":   page("<p></p>"),
		"/attribute/": page(`<div foo="1">x</div>`),
	})

	tests := []struct {
		path string
		want string
	}{
		{"/blink/", "<blink> is not recognized!"},
		{"/empty-p/", "trimming empty <p>"},
		{"/attribute/", `proprietary attribute "foo"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out.Reset()
			r := runT(t, func(rt T) {
				NewVerifyingClient(rt, ts.URL).Get(tt.path)
			})
			assert.True(t, r.aborted)
			assert.Contains(t, r.output(), tt.want)
			assert.Contains(t, r.output(), "invalid HTML")

			dump := out.String()
			assert.Contains(t, dump, "     1: <!DOCTYPE html>")
			assert.Contains(t, dump, "     5: ")
			assert.Contains(t, dump, tt.path)
		})
	}
}

func TestDumpNumbered(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 100*1024)
	var buf bytes.Buffer
	dumpNumbered(&buf, []byte("<p>\n"+long+"\nend"))

	assert.Equal(t, "\n     1: <p>\n     2: "+long+"\n     3: end\n", buf.String())
}

func TestIsIgnoredHTMLIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		issue htmlcheck.Issue
		want  bool
	}{
		{htmlcheck.Issue{Line: 12, Column: 4, Level: htmlcheck.Warning, Message: `<input> proprietary attribute "required"`}, true},
		{htmlcheck.Issue{Line: 1, Column: 1, Level: htmlcheck.Warning, Message: "trimming empty <span>"}, true},
		{htmlcheck.Issue{Line: 1, Column: 1, Level: htmlcheck.Warning, Message: "trimming empty <p>"}, false},
		{htmlcheck.Issue{Line: 3, Column: 9, Level: htmlcheck.Warning, Message: `<div> proprietary attribute "foo"`}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isIgnoredHTMLIssue(tt.issue), tt.issue.String())
	}
}

func TestVerifyingClient_SkipsNonHTMLAndErrors(t *testing.T) {
	captureDiagnostics(t)
	ts := htmlServer(t, map[string]string{"/bad/": page("<blink>x</blink>")})

	r := runT(t, func(rt T) {
		resp := NewVerifyingClient(rt, ts.URL).Get("/bad/?status=404")
		assert.Equal(rt, http.StatusNotFound, resp.StatusCode)
	})
	assert.False(t, r.failed, r.output())

	r = runT(t, func(rt T) {
		resp := NewClient(rt, ts.URL).Get("/bad/")
		assert.Equal(rt, http.StatusOK, resp.StatusCode)
	})
	assert.False(t, r.failed, "plain client does not verify")
}

func TestClient_RequestsAndCookies(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/echo/", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		seen = append(seen, r.Method+" "+r.Form.Encode())
		mu.Unlock()
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/set/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/echo/", http.StatusFound)
	})
	mux.HandleFunc("/cookie/", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sessionid")
		if err != nil {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(c.Value))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(t, ts.URL+"/")

	resp := c.Do(http.MethodGet, "/echo/?a=1", url.Values{"b": {"2"}})
	assert.Equal(t, "/echo/?a=1&b=2", resp.Path)
	c.Post("/echo/", url.Values{"title": {"x y"}})

	resp = c.Get("/cookie/")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = c.Get("/set/")
	assert.Equal(t, http.StatusFound, resp.StatusCode, "redirects are not followed")
	assert.Equal(t, "/echo/", resp.Location())

	resp = c.Get("/cookie/")
	assert.Equal(t, "abc", string(resp.Body))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"GET a=1&b=2", "POST title=x+y"}, seen)
}

func TestResponse_Headers(t *testing.T) {
	t.Parallel()

	r := &Response{Header: http.Header{
		"Content-Type": {"Text/Calendar; charset=UTF-8"},
		"Location":     {"/accounts/login/?next=%2Fsecr%2F"},
	}}
	assert.Equal(t, "text/calendar", r.ContentType())
	assert.Equal(t, "UTF-8", r.Charset())
	assert.Equal(t, "/accounts/login/?next=%2Fsecr%2F", r.Location())

	empty := &Response{Header: http.Header{}}
	assert.Equal(t, "", empty.ContentType())
	assert.Equal(t, "", empty.Charset())
}
