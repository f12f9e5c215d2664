package email

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PayloadText returns the human-readable body of m: the text part when
// present, otherwise the visible text of the HTML part.
func PayloadText(m *Message) string {
	if m == nil {
		return ""
	}
	if m.TextBody != "" {
		return m.TextBody
	}
	if m.HTMLBody == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(m.HTMLBody))
	if err != nil {
		return m.HTMLBody
	}
	doc.Find("script, style").Remove()
	return strings.TrimSpace(doc.Text())
}
