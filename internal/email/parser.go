package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/ietf-tools/datatracker/internal/logging"
)

// Parse parses a raw RFC 5322 message. Plain text, single-part HTML and
// multipart bodies are understood; attachments are ignored.
func Parse(raw []byte) (*Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	m := &Message{
		Header:    msg.Header,
		MessageID: msg.Header.Get("Message-Id"),
		Raw:       append([]byte(nil), raw...),
	}
	m.From = m.Get("From")
	m.Subject = m.Get("Subject")
	m.To = parseAddressList(msg.Header.Get("To"))
	m.Cc = parseAddressList(msg.Header.Get("Cc"))

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		logging.Warn("unparseable content type, treating as plain text", "content_type", contentType, "error", err)
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body: %w", err)
		}
		m.TextBody = string(body)
		return m, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := parseMultipart(msg.Body, boundary, m); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
		return m, nil
	}

	body, err := decodeBody(msg.Body, msg.Header.Get("Content-Transfer-Encoding"))
	if err != nil {
		return nil, fmt.Errorf("failed to read message body: %w", err)
	}
	if mediaType == "text/html" {
		m.HTMLBody = normalizeNewlines(body)
	} else {
		m.TextBody = normalizeNewlines(body)
	}
	return m, nil
}

func parseMultipart(body io.Reader, boundary string, m *Message) error {
	reader := multipart.NewReader(body, boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partType := part.Header.Get("Content-Type")
		if partType == "" {
			partType = "text/plain"
		}
		mediaType, params, err := mime.ParseMediaType(partType)
		if err != nil {
			logging.Warn("skipping part with unparseable content type", "content_type", partType)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			if err := parseMultipart(part, params["boundary"], m); err != nil {
				logging.Warn("failed to parse nested multipart", "error", err)
			}
			continue
		}
		if strings.HasPrefix(part.Header.Get("Content-Disposition"), "attachment") {
			continue
		}

		// multipart.Reader has already undone quoted-printable.
		content, err := decodeBody(part, part.Header.Get("Content-Transfer-Encoding"))
		if err != nil {
			logging.Warn("failed to read part", "content_type", mediaType, "error", err)
			continue
		}

		switch mediaType {
		case "text/plain":
			if m.TextBody == "" {
				m.TextBody = normalizeNewlines(content)
			}
		case "text/html":
			if m.HTMLBody == "" {
				m.HTMLBody = normalizeNewlines(content)
			}
		}
	}
}

func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 content: %w", err)
		}
		return decoded, nil
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	default:
		return io.ReadAll(r)
	}
}

func parseAddressList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		var out []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a.Name == "" {
			out = append(out, a.Address)
		} else {
			out = append(out, a.String())
		}
	}
	return out
}

func normalizeNewlines(b []byte) string {
	return strings.ReplaceAll(string(b), "\r\n", "\n")
}
