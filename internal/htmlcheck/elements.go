package htmlcheck

import "strings"

// knownElements is the HTML element vocabulary. Tags outside it are reported
// as not recognized unless they are custom elements (contain a hyphen).
var knownElements = setOf(
	"a", "abbr", "address", "area", "article", "aside", "audio",
	"b", "base", "bdi", "bdo", "blockquote", "body", "br", "button",
	"canvas", "caption", "cite", "code", "col", "colgroup",
	"data", "datalist", "dd", "del", "details", "dfn", "dialog", "div", "dl", "dt",
	"em", "embed", "fieldset", "figcaption", "figure", "footer", "form",
	"h1", "h2", "h3", "h4", "h5", "h6", "head", "header", "hgroup", "hr", "html",
	"i", "iframe", "img", "input", "ins", "kbd", "label", "legend", "li", "link",
	"main", "map", "mark", "math", "menu", "meta", "meter", "nav", "noscript",
	"object", "ol", "optgroup", "option", "output", "p", "picture", "pre", "progress",
	"q", "rp", "rt", "ruby", "s", "samp", "script", "search", "section", "select",
	"slot", "small", "source", "span", "strong", "style", "sub", "summary", "sup", "svg",
	"table", "tbody", "td", "template", "textarea", "tfoot", "th", "thead", "time",
	"title", "tr", "track", "u", "ul", "var", "video", "wbr",
)

var voidElements = setOf(
	"area", "base", "br", "col", "embed", "hr", "img", "input", "link",
	"meta", "source", "track", "wbr",
)

// Elements whose end tag may be omitted; they never produce "missing </x>".
var optionalEndTag = setOf(
	"html", "head", "body", "p", "li", "dt", "dd", "option", "optgroup",
	"rp", "rt", "thead", "tbody", "tfoot", "tr", "td", "th", "colgroup", "caption",
)

// Elements whose empty instances are trimmed.
var trimmedWhenEmpty = setOf(
	"b", "button", "em", "h1", "h2", "h3", "h4", "h5", "h6", "i", "li",
	"optgroup", "p", "small", "span", "strong", "sub", "sup", "u",
)

// Elements on which id and name must agree.
var idNameElements = setOf("a", "form", "iframe", "img", "map")

var globalAttributes = setOf(
	"accesskey", "autocapitalize", "autofocus", "class", "contenteditable",
	"dir", "draggable", "enterkeyhint", "hidden", "id", "inert", "inputmode",
	"is", "itemid", "itemprop", "itemref", "itemscope", "itemtype", "lang",
	"nonce", "popover", "role", "slot", "spellcheck", "style", "tabindex",
	"title", "translate",
)

var elementAttributes = map[string]map[string]bool{
	"a":          setOf("href", "target", "download", "ping", "rel", "hreflang", "type", "referrerpolicy", "name"),
	"area":       setOf("alt", "coords", "shape", "href", "target", "download", "ping", "rel", "referrerpolicy"),
	"audio":      setOf("src", "crossorigin", "preload", "autoplay", "loop", "muted", "controls"),
	"base":       setOf("href", "target"),
	"blockquote": setOf("cite"),
	"button":     setOf("disabled", "form", "formaction", "formenctype", "formmethod", "formnovalidate", "formtarget", "name", "popovertarget", "popovertargetaction", "type", "value"),
	"canvas":     setOf("width", "height"),
	"col":        setOf("span"),
	"colgroup":   setOf("span"),
	"data":       setOf("value"),
	"del":        setOf("cite", "datetime"),
	"details":    setOf("open", "name"),
	"dialog":     setOf("open"),
	"embed":      setOf("src", "type", "width", "height"),
	"fieldset":   setOf("disabled", "form", "name"),
	"form":       setOf("accept-charset", "action", "autocomplete", "enctype", "method", "name", "novalidate", "target", "rel"),
	"html":       setOf("xmlns", "manifest"),
	"iframe":     setOf("src", "srcdoc", "name", "sandbox", "allow", "allowfullscreen", "width", "height", "referrerpolicy", "loading"),
	"img":        setOf("alt", "src", "srcset", "sizes", "crossorigin", "usemap", "ismap", "width", "height", "referrerpolicy", "decoding", "loading", "fetchpriority", "name"),
	"input": setOf("accept", "alt", "autocomplete", "checked", "dirname", "disabled", "form", "formaction",
		"formenctype", "formmethod", "formnovalidate", "formtarget", "height", "list", "max", "maxlength",
		"min", "minlength", "multiple", "name", "pattern", "placeholder", "readonly", "required", "size",
		"src", "step", "type", "value", "width"),
	"ins":      setOf("cite", "datetime"),
	"label":    setOf("for"),
	"li":       setOf("value"),
	"link":     setOf("href", "crossorigin", "rel", "as", "media", "hreflang", "type", "sizes", "imagesrcset", "imagesizes", "referrerpolicy", "integrity", "blocking", "color", "disabled", "fetchpriority"),
	"map":      setOf("name"),
	"meta":     setOf("name", "http-equiv", "content", "charset", "media"),
	"meter":    setOf("value", "min", "max", "low", "high", "optimum"),
	"object":   setOf("data", "type", "name", "form", "width", "height"),
	"ol":       setOf("reversed", "start", "type"),
	"optgroup": setOf("disabled", "label"),
	"option":   setOf("disabled", "label", "selected", "value"),
	"output":   setOf("for", "form", "name"),
	"progress": setOf("value", "max"),
	"q":        setOf("cite"),
	"script":   setOf("src", "type", "nomodule", "async", "defer", "crossorigin", "integrity", "referrerpolicy", "blocking", "fetchpriority"),
	"select":   setOf("autocomplete", "disabled", "form", "multiple", "name", "required", "size"),
	"slot":     setOf("name"),
	"source":   setOf("type", "media", "src", "srcset", "sizes", "width", "height"),
	"style":    setOf("media", "blocking"),
	"svg":      setOf("xmlns", "viewbox", "width", "height", "fill", "version", "preserveaspectratio"),
	"td":       setOf("colspan", "rowspan", "headers"),
	"template": setOf("shadowrootmode"),
	"textarea": setOf("autocomplete", "cols", "dirname", "disabled", "form", "maxlength", "minlength", "name", "placeholder", "readonly", "required", "rows", "wrap"),
	"th":       setOf("colspan", "rowspan", "headers", "scope", "abbr"),
	"time":     setOf("datetime"),
	"track":    setOf("default", "kind", "label", "src", "srclang"),
	"video":    setOf("src", "crossorigin", "poster", "preload", "autoplay", "playsinline", "loop", "muted", "controls", "width", "height"),
}

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func isKnownElement(tag string) bool {
	return knownElements[tag] || strings.Contains(tag, "-")
}

func isAllowedAttribute(tag, attr string) bool {
	if globalAttributes[attr] {
		return true
	}
	if strings.HasPrefix(attr, "data-") || strings.HasPrefix(attr, "aria-") || strings.HasPrefix(attr, "on") {
		return true
	}
	if strings.Contains(tag, "-") {
		return true
	}
	return elementAttributes[tag][attr]
}

// Starting one of these closes an open <p>.
var closesParagraph = setOf(
	"address", "article", "aside", "blockquote", "details", "dialog", "div",
	"dl", "fieldset", "figcaption", "figure", "footer", "form",
	"h1", "h2", "h3", "h4", "h5", "h6", "header", "hgroup", "hr", "main",
	"menu", "nav", "ol", "p", "pre", "search", "section", "table", "ul",
)

// Starting the key element closes an open element from the value set.
var impliedSiblingClose = map[string]map[string]bool{
	"li":       setOf("li"),
	"dt":       setOf("dt", "dd"),
	"dd":       setOf("dt", "dd"),
	"option":   setOf("option"),
	"optgroup": setOf("option", "optgroup"),
	"tr":       setOf("td", "th", "tr"),
	"td":       setOf("td", "th"),
	"th":       setOf("td", "th"),
	"tbody":    setOf("td", "th", "tr", "thead", "tbody"),
	"tfoot":    setOf("td", "th", "tr", "thead", "tbody"),
}

var foreignRoots = setOf("svg", "math")
