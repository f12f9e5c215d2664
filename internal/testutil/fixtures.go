package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/auth"
	"github.com/ietf-tools/datatracker/internal/email"
	"github.com/ietf-tools/datatracker/internal/server"
	"github.com/ietf-tools/datatracker/internal/store"
)

// SampleRFCText is a minimal RFC text file.
const SampleRFCText = `Internet Engineering Task Force (IETF)                  R. Fielding, Ed.
Request for Comments: 9110                                         Adobe
Category: Standards Track                                     June 2022

                            HTTP Semantics

Abstract

   The Hypertext Transfer Protocol (HTTP) is a stateless application-
   level protocol for distributed, collaborative, hypertext information
   systems.
`

// SampleDraftText is a minimal Internet-Draft text file.
const SampleDraftText = `Network Working Group                                          A. Author
Internet-Draft                                                   Example
Intended status: Informational                             March 1, 2024

                     An Example Document for Testing
                     draft-ietf-example-testing-00

Abstract

   This document exists so that tests have something to read.
`

// Seeded meeting fixture.
const (
	SampleMeetingNumber = "119"
	SampleSessionUIDA   = "ietf-119-httpbis-1@datatracker.ietf.org"
	SampleSessionUIDB   = "ietf-119-quic-1@datatracker.ietf.org"
)

// SampleUser describes a seeded account. Its password is
// Username+"+password".
type SampleUser struct {
	Username string
	Email    string
	Name     string
	IsStaff  bool
}

// SampleUsers returns the accounts SetupApp seeds.
func SampleUsers() []SampleUser {
	return []SampleUser{
		{Username: "plain", Email: "plain@example.com", Name: "Plain Person"},
		{Username: "ad", Email: "ad@ietf.org", Name: "Area Director"},
		{Username: "secretary", Email: "secretary@ietf.org", Name: "IETF Secretariat", IsStaff: true},
	}
}

// SampleDocuments returns the documents SetupApp seeds.
func SampleDocuments() []store.Document {
	return []store.Document{
		{
			Name:     "draft-ietf-httpbis-semantics",
			Title:    "HTTP Semantics",
			Abstract: "This document describes the overall architecture of HTTP.",
			Rev:      "19",
			Notify:   "httpbis-chairs@ietf.org",
		},
		{
			Name:  "draft-ietf-quic-http",
			Title: "HTTP/3",
			Rev:   "34",
		},
		{
			Name:  "rfc9110",
			Title: "HTTP Semantics",
			Rev:   "00",
			State: store.StateRFC,
		},
	}
}

// App is a seeded application served by an httptest.Server.
type App struct {
	Server *server.Server
	Store  *store.Store
	// Outbox receives all mail the application sends.
	Outbox *email.Outbox
	HTTP   *httptest.Server
	URL    string

	Users     map[string]*store.User
	Documents map[string]*store.Document
	Meeting   *store.Meeting
	Sessions  []*store.Session
}

// SetupApp builds an application on an in-memory store, seeds it and
// starts it. Everything is closed when the test ends.
func SetupApp(t *testing.T) *App {
	t.Helper()
	ctx, cancel := StoreContext(t)
	defer cancel()

	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	outbox := email.NewOutbox()
	srv, err := server.NewServer(&server.Config{
		Store:    st,
		Mailer:   outbox,
		MailFrom: "Datatracker <noreply@ietf.org>",
		// Tests log in far more often than people do.
		RateLimit: server.RateLimitConfig{MaxAttempts: 1000, BlockAfter: 1000},
	})
	require.NoError(t, err)

	app := &App{
		Server:    srv,
		Store:     st,
		Outbox:    outbox,
		Users:     make(map[string]*store.User),
		Documents: make(map[string]*store.Document),
	}

	for _, u := range SampleUsers() {
		hash, err := auth.HashPasswordWithParams(u.Username+"+password", auth.FastParams)
		require.NoError(t, err)
		user := &store.User{Username: u.Username, Email: u.Email, Name: u.Name, PasswordHash: hash, IsStaff: u.IsStaff}
		require.NoError(t, st.CreateUser(ctx, user))
		app.Users[user.Username] = user
	}

	for _, d := range SampleDocuments() {
		doc := d
		require.NoError(t, st.CreateDocument(ctx, &doc))
		app.Documents[doc.Name] = &doc
	}

	start := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	app.Meeting = &store.Meeting{Number: SampleMeetingNumber, City: "Brisbane", StartDate: start, TimeZone: "Australia/Brisbane"}
	require.NoError(t, st.CreateMeeting(ctx, app.Meeting))
	for _, sess := range []*store.Session{
		{UID: SampleSessionUIDA, GroupAcronym: "httpbis", Name: "HTTP", Room: "Plaza P1", Start: start.Add(48 * time.Hour), Duration: 2 * time.Hour},
		{UID: SampleSessionUIDB, GroupAcronym: "quic", Room: "M1", Start: start.Add(50*time.Hour + 30*time.Minute), Duration: time.Hour},
	} {
		sess.MeetingID = app.Meeting.ID
		require.NoError(t, st.AddSession(ctx, sess))
		app.Sessions = append(app.Sessions, sess)
	}

	app.HTTP = httptest.NewServer(srv.Handler())
	t.Cleanup(app.HTTP.Close)
	app.URL = app.HTTP.URL
	return app
}
