package ical

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendar_Write(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 18, 9, 30, 0, 0, time.UTC)
	cal := &Calendar{
		ProdID: "-//IETF//datatracker//EN",
		Name:   "IETF 119 agenda",
		Events: []Event{
			{
				UID:      "ietf-119-1@datatracker.ietf.org",
				Summary:  "httpbis, session 1",
				Location: "Room A; Level 2",
				Start:    start,
				End:      start.Add(90 * time.Minute),
			},
			{
				UID:         "ietf-119-2@datatracker.ietf.org",
				Summary:     "quic",
				Description: "line one\nline two",
				Start:       start.Add(2 * time.Hour),
			},
		},
	}

	var sb strings.Builder
	require.NoError(t, cal.Write(&sb))
	out := sb.String()

	assert.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VCALENDAR"))
	assert.Equal(t, 1, strings.Count(out, "PRODID:"))
	assert.Equal(t, 1, strings.Count(out, "VERSION"))
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "X-WR-CALNAME:IETF 119 agenda\r\n")
	assert.Contains(t, out, "SUMMARY:httpbis\\, session 1\r\n")
	assert.Contains(t, out, "LOCATION:Room A\\; Level 2\r\n")
	assert.Contains(t, out, "DESCRIPTION:line one\\nline two\r\n")
	assert.Contains(t, out, "DTSTART:20240318T093000Z\r\n")
	assert.Contains(t, out, "DTEND:20240318T110000Z\r\n")
	assert.Contains(t, out, "DTSTAMP:20240318T113000Z\r\n")
	assert.Equal(t, out, cal.String())
}

func TestCalendar_WriteErrors(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	assert.ErrorContains(t, (&Calendar{}).Write(&sb), "PRODID is required")
	assert.ErrorContains(t, (&Calendar{ProdID: "x", Events: []Event{{Summary: "s"}}}).Write(&sb), "has no UID")
	assert.Equal(t, "", (&Calendar{}).String())

	err := (&Calendar{ProdID: "x"}).Write(failingWriter{})
	assert.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`a\b`, `a\\b`},
		{"a;b,c", `a\;b\,c`},
		{"a\r\nb\nc", `a\nb\nc`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escape(tt.in), tt.in)
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	t.Run("short line untouched", func(t *testing.T) {
		assert.Equal(t, []string{"SUMMARY:x"}, Fold("SUMMARY:x"))
	})

	t.Run("long ascii", func(t *testing.T) {
		line := "DESCRIPTION:" + strings.Repeat("a", 200)
		parts := Fold(line)
		require.Len(t, parts, 3)
		assert.Len(t, parts[0], 75)
		for _, p := range parts[1:] {
			assert.True(t, strings.HasPrefix(p, " "))
			assert.LessOrEqual(t, len(p), 75)
		}
		var joined string
		for i, p := range parts {
			if i > 0 {
				p = p[1:]
			}
			joined += p
		}
		assert.Equal(t, line, joined)
	})

	t.Run("multibyte not split", func(t *testing.T) {
		line := "SUMMARY:" + strings.Repeat("é", 60)
		for _, p := range Fold(line) {
			assert.LessOrEqual(t, len(p), 75)
			assert.True(t, strings.ToValidUTF8(p, "?") == p, "part %q split a rune", p)
		}
	})

	t.Run("invalid utf-8 still shrinks", func(t *testing.T) {
		line := "SUMMARY:" + strings.Repeat("\x80", 200)
		done := make(chan []string, 1)
		go func() { done <- Fold(line) }()

		var parts []string
		select {
		case parts = <-done:
		case <-time.After(3 * time.Second):
			t.Fatal("Fold did not return")
		}
		require.Len(t, parts, 3)
		var joined string
		for i, p := range parts {
			assert.LessOrEqual(t, len(p), 75)
			if i > 0 {
				p = p[1:]
			}
			joined += p
		}
		assert.Equal(t, line, joined)
	})
}
