package testutil

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/htmlcheck"
)

// Paths used by Client.Login and Client.Logout.
const (
	LoginPath  = "/accounts/login/"
	LogoutPath = "/accounts/logout/"
)

// Checker issues matching these are known noise and never fail a test.
var ignoredHTMLIssues = []*regexp.Regexp{
	regexp.MustCompile(`.*proprietary attribute "required"`),
	regexp.MustCompile(`.*id and name attribute value mismatch`),
	regexp.MustCompile(`.*trimming empty <(i|em|button|span|optgroup)>`),
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Path is the request path, including any query.
	Path string
}

// ContentType returns the lower-cased media type without parameters.
func (r *Response) ContentType() string {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	}
	return mediaType
}

// Charset returns the declared charset, or "" when none is declared.
func (r *Response) Charset() string {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return params["charset"]
}

// Location returns the Location header.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// Client issues requests against one server. Redirects are returned,
// not followed. Cookies persist across requests.
type Client struct {
	t       T
	baseURL string
	http    *http.Client
	verify  bool
}

// NewVerifyingClient returns a Client that checks the HTML of every
// successful GET.
func NewVerifyingClient(t T, baseURL string) *Client {
	c := NewClient(t, baseURL)
	c.verify = true
	return c
}

// NewClient returns a Client without HTML verification.
func NewClient(t T, baseURL string) *Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &Client{
		t:       t,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Get issues a GET. On a verifying client a response with status below
// 300 and an HTML content type must pass the HTML checker.
func (c *Client) Get(path string) *Response {
	c.t.Helper()
	resp := c.Do(http.MethodGet, path, nil)
	if c.verify {
		c.verifyHTML(resp)
	}
	return resp
}

// Post submits form url-encoded.
func (c *Client) Post(path string, form url.Values) *Response {
	c.t.Helper()
	return c.Do(http.MethodPost, path, form)
}

// Do issues a request. For GET and HEAD the form is sent as the query
// string, otherwise as an url-encoded body. Transport errors fail the test.
func (c *Client) Do(method, path string, form url.Values) *Response {
	c.t.Helper()

	target := c.baseURL + path
	var body io.Reader
	if len(form) > 0 {
		if method == http.MethodGet || method == http.MethodHead {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + form.Encode()
		} else {
			body = strings.NewReader(form.Encode())
		}
	}

	req, err := http.NewRequest(method, target, body)
	require.NoError(c.t, err, "building %s %s", method, path)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err, "%s %s", method, path)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err, "reading response to %s %s", method, path)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Path:       req.URL.RequestURI(),
	}
}

// Login signs in through the login form and reports whether the
// credentials were accepted.
func (c *Client) Login(username, password string) bool {
	c.t.Helper()
	resp := c.Post(LoginPath, url.Values{"username": {username}, "password": {password}})
	return resp.StatusCode == http.StatusFound
}

// Logout signs out.
func (c *Client) Logout() {
	c.t.Helper()
	c.Post(LogoutPath, nil)
}

// verifyHTML runs the checker over a successful text/html response. Issues
// that match ignoredHTMLIssues are dropped. If anything is left, the body
// is written to DiagnosticOutput with line numbers, followed by the path,
// so the reported positions can be read against the markup, and the test
// stops.
//
// Redirects, errors and other content types are not checked.
func (c *Client) verifyHTML(resp *Response) {
	c.t.Helper()
	if resp.StatusCode >= 300 || resp.ContentType() != "text/html" {
		return
	}

	var unexpected []htmlcheck.Issue
	for _, issue := range htmlcheck.Check(resp.Body) {
		if !isIgnoredHTMLIssue(issue) {
			unexpected = append(unexpected, issue)
		}
	}
	if len(unexpected) == 0 {
		return
	}

	dumpNumbered(DiagnosticOutput, resp.Body)
	fmt.Fprintln(DiagnosticOutput, resp.Path)
	require.Failf(c.t, "invalid HTML", "GET %s:\n%s", resp.Path, htmlcheck.Format(unexpected))
}

// isIgnoredHTMLIssue matches against the formatted issue, position
// included, so patterns must allow a leading "line N column M - ".
func isIgnoredHTMLIssue(issue htmlcheck.Issue) bool {
	line := issue.String()
	for _, re := range ignoredHTMLIssues {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// dumpNumbered writes body with six-wide line numbers, starting at 1 to
// match the checker's positions. The scanner buffer is sized to the body,
// so a page with one very long line is still printed in full.
func dumpNumbered(w io.Writer, body []byte) {
	fmt.Fprintln(w)
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for n := 1; scanner.Scan(); n++ {
		fmt.Fprintf(w, "%6d: %s\n", n, scanner.Text())
	}
}
