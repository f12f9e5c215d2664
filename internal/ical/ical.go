// Package ical writes iCalendar (RFC 5545) feeds for meeting agendas.
package ical

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Version is the only iCalendar version written.
	Version = "2.0"

	maxLineOctets = 75
	timeFormat    = "20060102T150405Z"
)

// Calendar is a VCALENDAR object.
type Calendar struct {
	ProdID string
	// Name is written as X-WR-CALNAME when set.
	Name   string
	Events []Event
}

// Event is a VEVENT component.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	// Stamp defaults to Start.
	Stamp time.Time
}

// Write emits the calendar with CRLF line endings.
func (c *Calendar) Write(w io.Writer) error {
	if c.ProdID == "" {
		return fmt.Errorf("calendar PRODID is required")
	}

	bw := bufio.NewWriter(w)
	lw := &lineWriter{w: bw}

	lw.line("BEGIN:VCALENDAR")
	lw.line("VERSION:" + Version)
	lw.line("PRODID:" + c.ProdID)
	lw.line("CALSCALE:GREGORIAN")
	lw.line("METHOD:PUBLISH")
	if c.Name != "" {
		lw.line("X-WR-CALNAME:" + Escape(c.Name))
	}
	for i := range c.Events {
		if err := writeEvent(lw, &c.Events[i]); err != nil {
			return err
		}
	}
	lw.line("END:VCALENDAR")

	if lw.err != nil {
		return fmt.Errorf("failed to write calendar: %w", lw.err)
	}
	return bw.Flush()
}

// String renders the calendar, returning "" if it cannot be written.
func (c *Calendar) String() string {
	var sb strings.Builder
	if err := c.Write(&sb); err != nil {
		return ""
	}
	return sb.String()
}

func writeEvent(lw *lineWriter, e *Event) error {
	if e.UID == "" {
		return fmt.Errorf("event %q has no UID", e.Summary)
	}
	stamp := e.Stamp
	if stamp.IsZero() {
		stamp = e.Start
	}

	lw.line("BEGIN:VEVENT")
	lw.line("UID:" + Escape(e.UID))
	lw.line("DTSTAMP:" + formatTime(stamp))
	if !e.Start.IsZero() {
		lw.line("DTSTART:" + formatTime(e.Start))
	}
	if !e.End.IsZero() {
		lw.line("DTEND:" + formatTime(e.End))
	}
	lw.line("SUMMARY:" + Escape(e.Summary))
	if e.Location != "" {
		lw.line("LOCATION:" + Escape(e.Location))
	}
	if e.Description != "" {
		lw.line("DESCRIPTION:" + Escape(e.Description))
	}
	lw.line("END:VEVENT")
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// Escape escapes a TEXT property value.
func Escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

// Fold splits a content line into 75-octet chunks. Continuation lines
// start with a single space. Multi-byte runes are never split; bytes that
// do not form valid UTF-8 are cut at the octet limit.
func Fold(line string) []string {
	if len(line) <= maxLineOctets {
		return []string{line}
	}

	var out []string
	limit := maxLineOctets
	for len(line) > limit {
		// A rune starts at most UTFMax-1 bytes before the limit. Further
		// back than that the bytes are not UTF-8 and are cut as octets.
		cut := limit
		for i := 0; i < utf8.UTFMax-1 && !utf8.RuneStart(line[cut]); i++ {
			cut--
		}
		if !utf8.RuneStart(line[cut]) {
			cut = limit
		}
		out = append(out, line[:cut])
		line = line[cut:]
		// The leading space counts against the next line.
		limit = maxLineOctets - 1
	}
	out = append(out, line)
	for i := 1; i < len(out); i++ {
		out[i] = " " + out[i]
	}
	return out
}

type lineWriter struct {
	w   io.Writer
	err error
}

func (lw *lineWriter) line(s string) {
	if lw.err != nil {
		return
	}
	for _, part := range Fold(s) {
		if _, err := io.WriteString(lw.w, part+"\r\n"); err != nil {
			lw.err = err
			return
		}
	}
}
