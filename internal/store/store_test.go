package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "datatracker.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.CreateUser(ctx, &User{Username: "alice", Email: "alice@example.com"}))
	require.NoError(t, s.Close())

	// Reopening runs the migration again against the existing schema.
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(ctx))

	u, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
}

func TestUsers(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	u := &User{Username: "secretary", Email: "secretary@ietf.org", Name: "IETF Secretariat", PasswordHash: "h", IsStaff: true}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)
	assert.Equal(t, u.ID, u.PK())
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "secretary", got.Username)
	assert.Equal(t, "IETF Secretariat", got.Name)
	assert.True(t, got.IsStaff)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	err = s.CreateUser(ctx, &User{Username: "secretary"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.CreateUser(ctx, &User{}))
}

func TestDocuments(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"draft-ietf-quic-http", "draft-ietf-httpbis-semantics"} {
		require.NoError(t, s.CreateDocument(ctx, &Document{Name: name, Title: name}))
	}

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "draft-ietf-httpbis-semantics", docs[0].Name)
	assert.Equal(t, "00", docs[0].Rev)
	assert.Equal(t, StateActive, docs[0].State)

	d, err := s.DocumentByName(ctx, "draft-ietf-quic-http")
	require.NoError(t, err)
	before := d.UpdatedAt

	d.Title = "HTTP/3"
	d.Rev = "01"
	require.NoError(t, s.UpdateDocument(ctx, d))

	got, err := s.DocumentByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "HTTP/3", got.Title)
	assert.Equal(t, "01", got.Rev)
	assert.False(t, got.UpdatedAt.Before(before))

	err = s.UpdateDocument(ctx, &Document{ID: 999, Name: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.DocumentByName(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = s.CreateDocument(ctx, &Document{Name: "draft-ietf-quic-http"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMeetingsAndSessions(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)
	m := &Meeting{Number: "119", City: "Brisbane", StartDate: start}
	require.NoError(t, s.CreateMeeting(ctx, m))
	assert.Equal(t, "UTC", m.TimeZone)

	got, err := s.MeetingByNumber(ctx, "119")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.PK())
	assert.True(t, start.Equal(got.StartDate))

	_, err = s.MeetingByID(ctx, m.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)

	late := &Session{MeetingID: m.ID, UID: "s2", GroupAcronym: "quic", Start: start.Add(26 * time.Hour), Duration: time.Hour}
	early := &Session{MeetingID: m.ID, UID: "s1", GroupAcronym: "httpbis", Room: "Plaza", Start: start.Add(25*time.Hour + 500*time.Millisecond), Duration: 90 * time.Minute}
	require.NoError(t, s.AddSession(ctx, late))
	require.NoError(t, s.AddSession(ctx, early))

	sessions, err := s.SessionsForMeeting(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].UID)
	assert.Equal(t, "s2", sessions[1].UID)
	assert.Equal(t, 90*time.Minute, sessions[0].Duration)
	assert.True(t, early.End().Equal(sessions[0].End()))

	one, err := s.SessionByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, "quic", one.GroupAcronym)

	err = s.AddSession(ctx, &Session{MeetingID: 999, UID: "orphan", GroupAcronym: "x", Start: start})
	assert.Error(t, err, "foreign key should reject unknown meeting")

	assert.ErrorIs(t, s.AddSession(ctx, &Session{MeetingID: m.ID, UID: "s1", GroupAcronym: "x"}), ErrDuplicate)

	generated := &Session{MeetingID: m.ID, GroupAcronym: "tls", Start: start}
	require.NoError(t, s.AddSession(ctx, generated))
	assert.True(t, strings.HasSuffix(generated.UID, "@"+UIDDomain), generated.UID)
	reloaded, err := s.SessionByID(ctx, generated.ID)
	require.NoError(t, err)
	assert.Equal(t, generated.UID, reloaded.UID)
	assert.ErrorIs(t, s.CreateMeeting(ctx, &Meeting{Number: "119"}), ErrDuplicate)
}
