// Package email composes, parses and delivers the notification mail the
// datatracker sends.
package email

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a parsed RFC 5322 message.
type Message struct {
	From      string
	To        []string
	Cc        []string
	Subject   string
	MessageID string
	Header    mail.Header
	TextBody  string
	HTMLBody  string
	// Raw is the message as it would go on the wire.
	Raw []byte
}

// Get returns the first value of the named header, decoded.
func (m *Message) Get(key string) string {
	if m.Header == nil {
		return ""
	}
	v := m.Header.Get(key)
	if dec, err := new(mime.WordDecoder).DecodeHeader(v); err == nil {
		return dec
	}
	return v
}

// String returns the raw message text.
func (m *Message) String() string {
	return string(m.Raw)
}

// Envelope describes a message to compose.
type Envelope struct {
	From    string
	To      []string
	Cc      []string
	Subject string
	Text    string
	HTML    string
	// Date defaults to the current time.
	Date time.Time
}

// Compose renders env as RFC 5322 bytes and returns the parsed result.
// A Message-ID of the form <uuid@host> is generated.
func Compose(env Envelope) (*Message, error) {
	if env.From == "" {
		return nil, fmt.Errorf("compose: sender is required")
	}
	if len(env.To) == 0 && len(env.Cc) == 0 {
		return nil, fmt.Errorf("compose: at least one recipient is required")
	}
	if env.Date.IsZero() {
		env.Date = time.Now()
	}

	var buf bytes.Buffer
	writeHeader(&buf, "From", env.From)
	if len(env.To) > 0 {
		writeHeader(&buf, "To", strings.Join(env.To, ", "))
	}
	if len(env.Cc) > 0 {
		writeHeader(&buf, "Cc", strings.Join(env.Cc, ", "))
	}
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", env.Subject))
	writeHeader(&buf, "Date", env.Date.Format(time.RFC1123Z))
	writeHeader(&buf, "Message-ID", newMessageID())
	writeHeader(&buf, "MIME-Version", "1.0")

	if env.HTML == "" {
		writeHeader(&buf, "Content-Type", "text/plain; charset=utf-8")
		writeHeader(&buf, "Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, env.Text); err != nil {
			return nil, err
		}
	} else {
		mw := multipart.NewWriter(&buf)
		writeHeader(&buf, "Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", mw.Boundary()))
		buf.WriteString("\r\n")
		for _, part := range []struct{ contentType, body string }{
			{"text/plain; charset=utf-8", env.Text},
			{"text/html; charset=utf-8", env.HTML},
		} {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Type", part.contentType)
			h.Set("Content-Transfer-Encoding", "quoted-printable")
			w, err := mw.CreatePart(h)
			if err != nil {
				return nil, fmt.Errorf("compose: failed to create part: %w", err)
			}
			qp := quotedprintable.NewWriter(w)
			if _, err := qp.Write([]byte(part.body)); err != nil {
				return nil, fmt.Errorf("compose: failed to write part: %w", err)
			}
			if err := qp.Close(); err != nil {
				return nil, fmt.Errorf("compose: failed to write part: %w", err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("compose: failed to close multipart: %w", err)
		}
	}

	return Parse(buf.Bytes())
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}

func writeQuotedPrintable(buf *bytes.Buffer, body string) error {
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return fmt.Errorf("compose: failed to encode body: %w", err)
	}
	return qp.Close()
}

func newMessageID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), host)
}
