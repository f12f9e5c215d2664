// Package htmlcheck reports markup problems in HTML documents, in the style
// of HTML Tidy diagnostics ("line 3 column 5 - Warning: ...").
//
// It is a tokenizer-level checker: it tracks open elements, ids and
// attributes, but does not build or repair a DOM.
package htmlcheck

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Level is the severity of an Issue.
type Level int

const (
	Warning Level = iota
	Error
)

func (l Level) String() string {
	if l == Error {
		return "Error"
	}
	return "Warning"
}

// Issue is a single diagnostic.
type Issue struct {
	Line    int
	Column  int
	Level   Level
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d column %d - %s: %s", i.Line, i.Column, i.Level, i.Message)
}

// Format renders issues one per line.
func Format(issues []Issue) string {
	lines := make([]string, len(issues))
	for i, issue := range issues {
		lines[i] = issue.String()
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether any issue is at Error level.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Level == Error {
			return true
		}
	}
	return false
}

// frame is one open element on the checker's stack. line and col locate
// the start tag so that a missing end tag can be reported where the
// element began. foreign marks content inside svg or math, where tag
// names are not checked.
type frame struct {
	tag        string
	line, col  int
	hasContent bool
	foreign    bool
}

// checker holds the state of a single Check call. stack mirrors the open
// elements as the tokenizer sees them, and foreign counts how many of
// those frames are foreign so that nested svg content is skipped cheaply.
// ids collects every id seen so far for the duplicate anchor warning.
//
// line and col track the position of the next token. The tokenizer does
// not report positions, so advance recomputes them from the raw bytes.
type checker struct {
	issues  []Issue
	stack   []frame
	ids     map[string]bool
	foreign int

	sawDoctype bool
	sawElement bool
	sawTitle   bool
	headLine   int
	headCol    int

	line, col int
}

// Check tokenizes content and returns the issues found, in the order
// they were detected.
func Check(content []byte) []Issue {
	c := &checker{
		ids:  make(map[string]bool),
		line: 1,
		col:  1,
	}

	z := html.NewTokenizer(bytes.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		line, col := c.line, c.col
		c.advance(z.Raw())

		switch tt {
		case html.DoctypeToken:
			c.sawDoctype = true
		case html.TextToken:
			if len(bytes.TrimSpace(z.Text())) > 0 {
				c.markContent()
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			var attrs []html.Attribute
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				attrs = append(attrs, html.Attribute{Key: string(key), Val: string(val)})
			}
			c.startTag(tag, attrs, tt == html.SelfClosingTagToken, line, col)
		case html.EndTagToken:
			name, _ := z.TagName()
			c.endTag(string(name), line, col)
		}
	}

	c.finish()
	return c.issues
}

// advance moves the position past raw. Columns count bytes, not runes.
func (c *checker) advance(raw []byte) {
	for _, b := range raw {
		if b == '\n' {
			c.line++
			c.col = 1
		} else {
			c.col++
		}
	}
}

func (c *checker) report(level Level, line, col int, format string, args ...interface{}) {
	c.issues = append(c.issues, Issue{
		Line:    line,
		Column:  col,
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	})
}

func (c *checker) top() *frame {
	if len(c.stack) == 0 {
		return nil
	}
	return &c.stack[len(c.stack)-1]
}

func (c *checker) markContent() {
	if f := c.top(); f != nil {
		f.hasContent = true
	}
}

func (c *checker) push(f frame) {
	if f.foreign {
		c.foreign++
	}
	c.stack = append(c.stack, f)
}

// pop removes the innermost element. Only an element closed by its own
// end tag is checked for emptiness: one closed implicitly by a sibling or
// an outer end tag already produced its own issue, or none is due.
// Leaving a foreign frame never reports anything.
func (c *checker) pop(explicit bool) {
	f := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	if f.foreign {
		c.foreign--
		return
	}
	if explicit && trimmedWhenEmpty[f.tag] && !f.hasContent {
		c.report(Warning, f.line, f.col, "trimming empty <%s>", f.tag)
	}
}

func (c *checker) startTag(tag string, attrs []html.Attribute, selfClosing bool, line, col int) {
	if !c.sawElement {
		c.sawElement = true
		if !c.sawDoctype {
			c.report(Warning, 1, 1, "missing <!DOCTYPE> declaration")
		}
	}

	if c.foreign > 0 {
		c.markContent()
		if !selfClosing {
			c.push(frame{tag: tag, line: line, col: col, foreign: true})
		}
		return
	}

	c.closeImplied(tag)
	c.markContent()

	switch tag {
	case "title":
		c.sawTitle = true
	case "head":
		c.headLine, c.headCol = line, col
	}

	if !isKnownElement(tag) {
		c.report(Error, line, col, "<%s> is not recognized!", tag)
	} else {
		c.checkAttributes(tag, attrs, line, col)
	}

	if foreignRoots[tag] {
		if !selfClosing {
			c.push(frame{tag: tag, line: line, col: col, foreign: true})
		}
		return
	}
	if voidElements[tag] || selfClosing {
		return
	}
	c.push(frame{tag: tag, line: line, col: col})
}

// closeImplied closes the elements that a new start tag ends without an
// explicit end tag. A block-level tag closes an open <p>, and tags such as
// <li>, <dt> and <tr> close any run of open siblings of the same family,
// so "<li>a<li>b" nests as two items rather than one inside the other.
func (c *checker) closeImplied(tag string) {
	if closesParagraph[tag] {
		if f := c.top(); f != nil && f.tag == "p" {
			c.pop(false)
		}
	}
	if siblings, ok := impliedSiblingClose[tag]; ok {
		for {
			f := c.top()
			if f == nil || !siblings[f.tag] {
				break
			}
			c.pop(false)
		}
	}
}

// checkAttributes reports repeated and proprietary attributes on a known
// element. The first value of a repeated attribute wins, matching what
// browsers keep. Ids are global to the document, so a second element with
// the same id is reported even when the two are far apart. On elements
// that take both id and name, the two must agree.
func (c *checker) checkAttributes(tag string, attrs []html.Attribute, line, col int) {
	seen := make(map[string]bool, len(attrs))
	var id, name string
	var hasID, hasName bool

	for _, a := range attrs {
		if seen[a.Key] {
			c.report(Warning, line, col, "<%s> dropping value %q for repeated attribute %q", tag, a.Val, a.Key)
			continue
		}
		seen[a.Key] = true

		if !isAllowedAttribute(tag, a.Key) {
			c.report(Warning, line, col, "<%s> proprietary attribute %q", tag, a.Key)
		}
		switch a.Key {
		case "id":
			id, hasID = a.Val, true
		case "name":
			name, hasName = a.Val, true
		}
	}

	if hasID {
		if c.ids[id] {
			c.report(Warning, line, col, "<%s> anchor %q already defined", tag, id)
		}
		c.ids[id] = true
	}
	if hasID && hasName && idNameElements[tag] && id != name {
		c.report(Warning, line, col, "<%s> id and name attribute value mismatch", tag)
	}
}

// endTag closes tag and everything opened after it. An end tag with no
// matching open element is discarded.
func (c *checker) endTag(tag string, line, col int) {
	idx := -1
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].tag == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.report(Error, line, col, "discarding unexpected </%s>", tag)
		return
	}

	for len(c.stack)-1 > idx {
		f := c.top()
		if !f.foreign && !optionalEndTag[f.tag] {
			c.report(Error, f.line, f.col, "missing </%s> before </%s>", f.tag, tag)
		}
		c.pop(false)
	}
	c.pop(true)
}

func (c *checker) finish() {
	for i := range c.stack {
		f := c.stack[i]
		if !f.foreign && !optionalEndTag[f.tag] {
			c.report(Error, f.line, f.col, "missing </%s>", f.tag)
		}
	}
	c.stack = nil

	if !c.sawElement && !c.sawDoctype {
		c.report(Warning, 1, 1, "missing <!DOCTYPE> declaration")
	}
	if !c.sawTitle {
		line, col := 1, 1
		if c.headLine > 0 {
			line, col = c.headLine, c.headCol
		}
		c.report(Warning, line, col, "inserting missing 'title' element")
	}
}
