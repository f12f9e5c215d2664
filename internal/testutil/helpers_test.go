package testutil

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf-tools/datatracker/internal/store"
)

func TestSplitURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantPath string
		wantArgs map[string]string
	}{
		{"with query", "/x?a=1&b=2", "/x", map[string]string{"a": "1", "b": "2"}},
		{"no query", "/x", "/x", map[string]string{}},
		{"empty query", "/x?", "/x", map[string]string{}},
		{"last value wins", "/x?a=1&a=2", "/x", map[string]string{"a": "2"}},
		{"bare flag skipped", "/x?flag&b=2", "/x", map[string]string{"b": "2"}},
		{"value with equals", "/x?next=/a?b=c", "/x", map[string]string{"next": "/a?b=c"}},
		{"percent decoded, plus kept", "/x?q=a%20b+c&n%2Fm=1", "/x", map[string]string{"q": "a b+c", "n/m": "1"}},
		{"bad escape kept raw", "/x?q=%zz", "/x", map[string]string{"q": "%zz"}},
		{"bad escape beside good ones", "/x?q=a%20b%zz", "/x", map[string]string{"q": "a b%zz"}},
		{"truncated escape", "/x?q=%41%2&r=%e2%82%ac", "/x", map[string]string{"q": "A%2", "r": "€"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, args := SplitURL(tt.raw)
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestUniContent(t *testing.T) {
	t.Parallel()

	latin1 := &Response{
		Header: http.Header{"Content-Type": {"text/html; charset=iso-8859-1"}},
		Body:   []byte{'c', 'a', 'f', 0xe9},
	}
	assert.Equal(t, "café", UniContent(t, latin1))

	plain := &Response{Header: http.Header{"Content-Type": {"text/plain"}}, Body: []byte("café")}
	assert.Equal(t, "café", UniContent(t, plain))

	bogus := &Response{Header: http.Header{"Content-Type": {"text/plain; charset=x-bogus"}}, Body: []byte("x")}
	r := runT(t, func(t T) { UniContent(t, bogus) })
	assert.True(t, r.aborted)
}

func TestTextContent(t *testing.T) {
	t.Parallel()

	resp := &Response{
		Header: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		Body:   []byte("<html><body><h1>Title</h1>\n  \n  \n<p>Para</p></body></html>"),
	}
	assert.Equal(t, "Title\n\nPara", TextContent(t, resp))
}

func TestReloadObjects(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	a := &store.Document{Name: "draft-a", Title: "A"}
	b := &store.Document{Name: "draft-b", Title: "B"}
	require.NoError(t, st.CreateDocument(ctx, a))
	require.NoError(t, st.CreateDocument(ctx, b))

	// Change both rows behind the backs of a and b.
	for _, d := range []*store.Document{{ID: a.ID, Name: a.Name, Title: "A2"}, {ID: b.ID, Name: b.Name, Title: "B2"}} {
		require.NoError(t, st.UpdateDocument(ctx, d))
	}

	fresh := ReloadObjects(t, st.DocumentByID, b, a)
	require.Len(t, fresh, 2)
	assert.Equal(t, "B2", fresh[0].Title, "order follows the arguments")
	assert.Equal(t, "A2", fresh[1].Title)
	assert.Equal(t, "A", a.Title, "originals are untouched")

	assert.Equal(t, "A2", ReloadObject(t, st.DocumentByID, a).Title)

	r := runT(t, func(t T) {
		ReloadObject(t, st.DocumentByID, &store.Document{ID: 999})
	})
	assert.True(t, r.aborted)
	assert.Contains(t, r.output(), "reloading object 999")
}

func TestWithFileContaining(t *testing.T) {
	t.Parallel()

	var seen string
	WithFileContaining(t, "From: a@example.com\n\nhello\n", func(name string) {
		seen = name
		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, "From: a@example.com\n\nhello\n", string(data))
	})
	_, err := os.Stat(seen)
	assert.True(t, os.IsNotExist(err), "file should be removed")

	WithFileContaining(t, []byte{0x00, 0xff}, func(name string) {
		seen = name
		data, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, 0xff}, data)
	})
	_, err = os.Stat(seen)
	assert.True(t, os.IsNotExist(err))
}

func TestWithFileContaining_RemovedOnFailNow(t *testing.T) {
	t.Parallel()

	var seen string
	r := runT(t, func(t T) {
		WithFileContaining(t, "x", func(name string) {
			seen = name
			require.Fail(t, "boom")
		})
	})
	assert.True(t, r.aborted)
	require.NotEmpty(t, seen)
	_, err := os.Stat(seen)
	assert.True(t, os.IsNotExist(err))
}

func TestWithFileContaining_RemovedOnPanic(t *testing.T) {
	t.Parallel()

	var seen string
	assert.Panics(t, func() {
		WithFileContaining(t, "x", func(name string) {
			seen = name
			panic("boom")
		})
	})
	_, err := os.Stat(seen)
	assert.True(t, os.IsNotExist(err))
}

func TestContextWithTestDeadline(t *testing.T) {
	t.Parallel()

	r := &recorder{name: "no-deadline"}
	ctx, cancel := ContextWithTestDeadline(r, time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)

	ctx, cancel = StoreContext(t)
	defer cancel()
	deadline, ok = ctx.Deadline()
	require.True(t, ok)
	if testDeadline, has := t.Deadline(); has {
		assert.True(t, deadline.Before(testDeadline))
	}
}

func TestCleanupRegistry(t *testing.T) {
	dir := t.TempDir()
	leaked, err := os.MkdirTemp(dir, "leaked-")
	require.NoError(t, err)

	RegisterTempDir(leaked)
	assert.Contains(t, RegisteredTempDirs(), leaked)

	require.NoError(t, CleanupAllTempDirs())
	assert.NotContains(t, RegisteredTempDirs(), leaked)
	_, err = os.Stat(leaked)
	assert.True(t, os.IsNotExist(err))

	RegisterTempDir("/some/where")
	UnregisterTempDir("/some/where")
	assert.NotContains(t, RegisteredTempDirs(), "/some/where")
}
