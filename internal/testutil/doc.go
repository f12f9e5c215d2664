// Package testutil provides the helpers the datatracker test suites are
// written with.
//
// # Clients
//
//   - NewVerifyingClient(t, baseURL) - an HTTP client whose GETs of HTML
//     pages are run through the HTML checker; unexpected issues fail the test
//   - NewClient(t, baseURL) - the same client without verification
//   - (*Client).Login(username, password) - sign in through the login form
//
// # Test cases
//
//   - NewCase(t, opts...) - points the path settings at fresh temporary
//     directories for the duration of one test
//   - (*Case).TempDir(label) - creates another directory removed with the case
//
// # Assertions
//
//   - LoginTestingUnauthorized(t, c, username, url) - checks that an
//     anonymous request is refused, then signs in as username
//   - AssertSameEmail(t, a, b) - compares address lists ignoring order
//   - AssertNoFormPostErrors(t, resp, selector) - a POST was accepted
//   - AssertMailboxContains(t, mailbox, query) - mail was sent
//   - AssertICalResponseIsValid(t, resp, opts...) - an iCalendar feed
//   - AssertValidHTML, AssertValidHTMLResponse, AssertHTTPOK, AssertRedirects
//
// # Helpers
//
//   - SplitURL, UniContent, TextContent
//   - ReloadObject, ReloadObjects - fetch fresh copies from the store
//   - WithFileContaining - a temporary file removed when the callback returns
//   - SetupApp(t) - a seeded application behind an httptest.Server
//
// # Usage
//
//	func TestEditDocument(t *testing.T) {
//	    app := testutil.SetupApp(t)
//	    c := testutil.NewVerifyingClient(t, app.URL)
//	    edit := "/doc/draft-ietf-httpbis-semantics/edit/"
//	    require.True(t, testutil.LoginTestingUnauthorized(t, c, "plain", edit))
//	    r := c.Post(edit, url.Values{"title": {"HTTP Semantics"}, "rev": {"01"}})
//	    testutil.AssertNoFormPostErrors(t, r, "")
//	    testutil.AssertMailboxContains(t, app.Outbox.Messages(), testutil.MailboxQuery{Subject: "Document updated"})
//	}
package testutil

import (
	"io"
	"os"
)

// T is the part of testing.TB the helpers use.
type T interface {
	Errorf(format string, args ...any)
	FailNow()
	Helper()
	Name() string
	Cleanup(func())
	Logf(format string, args ...any)
}

// DiagnosticOutput receives body and mailbox dumps written before a
// helper fails.
var DiagnosticOutput io.Writer = os.Stdout
