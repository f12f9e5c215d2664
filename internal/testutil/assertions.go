package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/email"
	"github.com/ietf-tools/datatracker/internal/htmlcheck"
)

type loginOptions struct {
	password string
	method   string
	form     url.Values
}

// LoginOption configures LoginTestingUnauthorized.
type LoginOption func(*loginOptions)

// WithPassword sets the password. The default is username+"+password".
func WithPassword(password string) LoginOption {
	return func(o *loginOptions) { o.password = password }
}

// WithMethod sets the method of the unauthenticated request. The default is GET.
func WithMethod(method string) LoginOption {
	return func(o *loginOptions) { o.method = method }
}

// WithForm sets the form sent with the unauthenticated request.
func WithForm(form url.Values) LoginOption {
	return func(o *loginOptions) { o.form = form }
}

// LoginTestingUnauthorized requests url without a session and asserts it
// is refused with 403 or redirected to the login page. It then signs in
// as username and returns whether that succeeded.
func LoginTestingUnauthorized(t T, c *Client, username, url string, opts ...LoginOption) bool {
	t.Helper()
	o := loginOptions{method: http.MethodGet}
	for _, opt := range opts {
		opt(&o)
	}

	resp := c.Do(o.method, url, o.form)
	require.Contains(t, []int{http.StatusFound, http.StatusForbidden}, resp.StatusCode,
		"unauthorized %s %s returned unexpected status", o.method, url)
	if resp.StatusCode == http.StatusFound {
		require.Contains(t, resp.Location(), "/accounts/login",
			"unauthorized %s %s redirected away from login", o.method, url)
	}

	password := o.password
	if password == "" {
		password = username + "+password"
	}
	return c.Login(username, password)
}

// emailAddress is one normalized mailbox.
type emailAddress struct {
	Name    string
	Address string
}

// normalizeAddresses parses each header value as an address list and
// returns the mailboxes sorted by display name, then address. A value may
// hold several comma separated mailboxes, so the result can be longer
// than values. Values that do not parse are kept whole as a bare address
// and compare by their trimmed text.
func normalizeAddresses(values []string) []emailAddress {
	out := make([]emailAddress, 0, len(values))
	for _, v := range values {
		list, err := mail.ParseAddressList(v)
		if err != nil {
			out = append(out, emailAddress{Address: strings.TrimSpace(v)})
			continue
		}
		for _, a := range list {
			out = append(out, emailAddress{Name: a.Name, Address: a.Address})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// AssertSameEmail asserts that two lists of address header values name
// the same mailboxes, in any order.
func AssertSameEmail(t T, a, b []string, msgAndArgs ...any) bool {
	t.Helper()
	return assert.Equal(t, normalizeAddresses(a), normalizeAddresses(b), msgAndArgs...)
}

// DefaultFormErrorSelector matches fields marked invalid.
const DefaultFormErrorSelector = ".is-invalid"

// AssertNoFormPostErrors asserts that a form POST was accepted, which
// means it redirected. When the form came back with 200, the elements
// matching selector are reported. An empty selector means ".is-invalid".
func AssertNoFormPostErrors(t T, resp *Response, selector string) bool {
	t.Helper()
	if selector == "" {
		selector = DefaultFormErrorSelector
	}

	if resp.StatusCode == http.StatusOK {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
		require.NoError(t, err, "parsing form response")

		var errs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			h, err := goquery.OuterHtml(s)
			if err == nil {
				errs = append(errs, h)
			}
		})
		if len(errs) > 0 {
			explanation := fmt.Sprintf("%d != %d\nGot form back with errors:\n----\n%s",
				resp.StatusCode, http.StatusFound, strings.Join(errs, "\n----\n"))
			return assert.Fail(t, "form POST was rejected", explanation)
		}
	}
	return assert.Equal(t, http.StatusFound, resp.StatusCode, "form POST to %s did not redirect", resp.Path)
}

// MailboxQuery selects messages in AssertMailboxContains. Subject and
// Text match substrings. A zero Count means at least one match.
type MailboxQuery struct {
	Subject string
	Text    string
	Count   int
}

// AssertMailboxContains asserts that mailbox holds Count messages, or at
// least one when Count is zero, matching every non-empty field of q. An
// empty query is a usage error and fails the test immediately.
func AssertMailboxContains(t T, mailbox []*email.Message, q MailboxQuery) bool {
	t.Helper()
	if q.Subject == "" && q.Text == "" && q.Count == 0 {
		require.FailNow(t, "no assertion made", "AssertMailboxContains needs a subject, text or count")
	}

	matched := mailbox
	if q.Subject != "" {
		matched = filterMessages(matched, func(m *email.Message) bool {
			return strings.Contains(m.Subject, q.Subject)
		})
	}
	if q.Text != "" {
		matched = filterMessages(matched, func(m *email.Message) bool {
			return strings.Contains(email.PayloadText(m), q.Text)
		})
	}

	if q.Count > 0 {
		if len(matched) != q.Count {
			dumpMailbox(mailbox)
		}
		return assert.Len(t, matched, q.Count, "messages matching subject %q and text %q", q.Subject, q.Text)
	}
	return assert.NotEmpty(t, matched, "no message matches subject %q and text %q", q.Subject, q.Text)
}

// filterMessages returns the messages keep accepts, in mailbox order.
func filterMessages(in []*email.Message, keep func(*email.Message) bool) []*email.Message {
	var out []*email.Message
	for _, m := range in {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func dumpMailbox(mailbox []*email.Message) {
	fmt.Fprintf(DiagnosticOutput, "Wrong count in AssertMailboxContains(). The complete mailbox contains %d emails:\n\n", len(mailbox))
	for _, m := range mailbox {
		fmt.Fprint(DiagnosticOutput, m.String())
		fmt.Fprint(DiagnosticOutput, "\n\n")
	}
}

type icalExpectations struct {
	summaries []string
	uids      []string
	count     int
	hasCount  bool
}

// ICalOption adds an expectation to AssertICalResponseIsValid.
type ICalOption func(*icalExpectations)

// WithEventSummaries requires a SUMMARY line for each summary.
func WithEventSummaries(summaries ...string) ICalOption {
	return func(e *icalExpectations) { e.summaries = append(e.summaries, summaries...) }
}

// WithEventUIDs requires a UID line for each uid.
func WithEventUIDs(uids ...string) ICalOption {
	return func(e *icalExpectations) { e.uids = append(e.uids, uids...) }
}

// WithEventCount requires exactly n events.
func WithEventCount(n int) ICalOption {
	return func(e *icalExpectations) { e.count, e.hasCount = n, true }
}

// AssertICalResponseIsValid checks the shape of an iCalendar response:
// status 200, a text/calendar content type, and exactly one VCALENDAR
// with one PRODID and one VERSION. The options add per-event checks.
// Events beyond those expected are allowed unless WithEventCount is given.
func AssertICalResponseIsValid(t T, resp *Response, opts ...ICalOption) bool {
	t.Helper()
	var e icalExpectations
	for _, opt := range opts {
		opt(&e)
	}

	ok := assert.Equal(t, http.StatusOK, resp.StatusCode, "calendar response status")
	ok = assert.Equal(t, "text/calendar", resp.ContentType(), "calendar content type") && ok

	body := string(resp.Body)
	ok = assertCount(t, body, "BEGIN:VCALENDAR", 1) && ok
	ok = assertCount(t, body, "END:VCALENDAR", 1) && ok
	ok = assertCount(t, body, "PRODID:", 1) && ok
	ok = assertCount(t, body, "VERSION", 1) && ok

	for _, summary := range e.summaries {
		ok = assert.Contains(t, body, "SUMMARY:"+summary) && ok
	}
	for _, uid := range e.uids {
		ok = assert.Contains(t, body, "UID:"+uid) && ok
	}
	if e.hasCount {
		ok = assertCount(t, body, "BEGIN:VEVENT", e.count) && ok
		ok = assertCount(t, body, "END:VEVENT", e.count) && ok
		ok = assertCount(t, body, "UID", e.count) && ok
	}
	return ok
}

func assertCount(t T, body, needle string, want int) bool {
	t.Helper()
	return assert.Equal(t, want, strings.Count(body, needle), "occurrences of %q", needle)
}

// AssertValidHTML fails on any error-level issue the HTML checker reports.
func AssertValidHTML(t T, data []byte) bool {
	t.Helper()
	issues := htmlcheck.Check(data)
	if htmlcheck.HasErrors(issues) {
		return assert.Fail(t, "invalid HTML", htmlcheck.Format(issues))
	}
	return true
}

// AssertValidHTMLResponse asserts a 200 HTML response with valid markup.
func AssertValidHTMLResponse(t T, resp *Response) bool {
	t.Helper()
	if !AssertHTTPOK(t, resp) {
		return false
	}
	if !assert.Equal(t, "text/html", resp.ContentType(), "content type of %s", resp.Path) {
		return false
	}
	return AssertValidHTML(t, resp.Body)
}

// AssertHTTPOK asserts status 200.
func AssertHTTPOK(t T, resp *Response) bool {
	t.Helper()
	return assert.Equal(t, http.StatusOK, resp.StatusCode, "status of %s", resp.Path)
}

// AssertRedirects asserts that resp redirects to target with status.
// A relative Location is compared by path and query.
func AssertRedirects(t T, resp *Response, target string, status int) bool {
	t.Helper()
	ok := assert.Equal(t, status, resp.StatusCode, "redirect status of %s", resp.Path)
	loc, err := url.Parse(resp.Location())
	if !assert.NoError(t, err, "parsing Location of %s", resp.Path) {
		return false
	}
	got := loc.RequestURI()
	if loc.Path == "" {
		got = resp.Location()
	}
	return assert.Equal(t, target, got, "redirect target of %s", resp.Path) && ok
}
