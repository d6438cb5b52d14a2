// Package extract turns a project detail page into titled sections of raw
// label/value fields. Extraction is best-effort: malformed markup yields
// fewer fields, never an error.
package extract

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
	"github.com/sells-group/rera-cli/internal/typer"
)

// maxHeadingLen bounds how long a heading or single-cell title may be.
const maxHeadingLen = 120

// maxInlineLabelLen bounds the label half of an inline "Label: value".
const maxInlineLabelLen = 60

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "body": true,
	"caption": true, "center": true, "dd": true, "details": true, "dialog": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "legend": true,
	"li": true, "main": true, "nav": true, "ol": true, "p": true, "pre": true,
	"section": true, "summary": true, "table": true, "tbody": true, "td": true,
	"tfoot": true, "th": true, "thead": true, "tr": true, "ul": true,
}

var skipTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true, "object": true,
}

var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "legend": true,
}

// emphasisTags render a lone line as a heading when it carries no colon.
var emphasisTags = map[string]bool{"b": true, "strong": true, "u": true}

// labelTags open a "label value" line.
var labelTags = map[string]bool{"label": true, "b": true, "strong": true}

// Sections parses an HTML page and extracts its sections in source order.
func Sections(body []byte) []model.Section {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		zap.L().Warn("extract: parse document", zap.Error(err))
		return nil
	}
	return FromDocument(doc)
}

// FromDocument extracts sections from an already parsed document.
func FromDocument(doc *goquery.Document) (sections []model.Section) {
	w := &walker{cur: -1}
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("extract: aborted walk, keeping partial result",
				zap.Any("panic", r),
				zap.Int("sections", len(w.sections)),
			)
			sections = w.sections
		}
	}()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	w.walk(root)
	return w.sections
}

// walker carries the extraction state across the document walk.
type walker struct {
	title    string
	cur      int
	pending  string
	sections []model.Section
}

func (w *walker) heading(text string) {
	text = normalize.TrimTrailingPunct(normalize.Text(text))
	if text == "" {
		return
	}
	w.title = text
	w.cur = -1
	w.pending = ""
}

func (w *walker) add(label string, f model.Field) {
	f.Label = cleanLabel(label)
	if f.Label == "" || !f.HasContent() {
		return
	}
	if w.cur < 0 {
		w.sections = append(w.sections, model.Section{Title: w.title})
		w.cur = len(w.sections) - 1
	}
	w.sections[w.cur].Fields = append(w.sections[w.cur].Fields, f)
}

// gridRow appends one section for a data row of a grid table.
func (w *walker) gridRow(row int, fields []model.Field) {
	var kept []model.Field
	for _, f := range fields {
		f.Label = cleanLabel(f.Label)
		if f.Label != "" && f.HasContent() {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return
	}
	w.sections = append(w.sections, model.Section{Title: w.title, Row: row, Fields: kept})
	w.cur = -1
}

// walk visits the children of s, grouping consecutive inline content into
// runs and dispatching block elements.
func (w *walker) walk(s *goquery.Selection) {
	var run []*goquery.Selection
	flush := func() {
		if len(run) > 0 {
			w.inline(run)
			run = nil
		}
	}

	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#comment" || skipTags[name]:
			return
		case name == "#text" || (!blockTags[name] && !hasBlockDescendant(c)):
			run = append(run, c)
			return
		}
		flush()
		w.block(c, name)
	})
	flush()
}

func (w *walker) block(c *goquery.Selection, name string) {
	switch {
	case name == "table":
		w.table(c)
	case name == "dl":
		w.definitionList(c)
	case headingTags[name] || isHeadingClass(c):
		w.heading(c.Text())
	default:
		w.walk(c)
	}
}

// inline splits a run of inline nodes into lines at <br> and reads each.
func (w *walker) inline(run []*goquery.Selection) {
	var line []*goquery.Selection
	for _, n := range run {
		if goquery.NodeName(n) == "br" {
			w.line(line)
			line = nil
			continue
		}
		line = append(line, n)
	}
	w.line(line)
}

func (w *walker) line(nodes []*goquery.Selection) {
	nodes = trimBlank(nodes)
	if len(nodes) == 0 {
		return
	}
	all := union(nodes)
	value := readValue(all)
	text := value.RawValue
	if !value.HasContent() {
		return
	}

	first := nodes[0]
	name := goquery.NodeName(first)
	interactive := len(value.Links) > 0 || value.PreviewHint != ""

	if len(nodes) == 1 && emphasisTags[name] && !interactive && !strings.HasSuffix(text, ":") {
		w.heading(text)
		return
	}

	if labelTags[name] && len(nodes) > 1 {
		label := cleanLabel(first.Text())
		if label != "" {
			rest := readValue(union(nodes[1:]))
			if trimmed := strings.TrimSpace(strings.TrimLeft(rest.RawValue, ":")); trimmed != rest.RawValue {
				rest.RawValue = trimmed
				rest.IsPreviewOnly = typer.IsActionLabel(trimmed) ||
					(trimmed == "" && (len(rest.Links) > 0 || rest.PreviewHint != ""))
			}
			if rest.HasContent() {
				w.add(label, rest)
			} else {
				w.pending = label
			}
			return
		}
	}

	if len(nodes) == 1 && (name == "label" || hasLabelClass(first)) && !interactive {
		w.pending = cleanLabel(text)
		return
	}

	if label, rest, ok := splitInline(text); ok {
		if rest == "" && !interactive {
			w.pending = label
			return
		}
		value.RawValue = rest
		value.IsPreviewOnly = typer.IsActionLabel(rest) || (rest == "" && interactive)
		w.add(label, value)
		w.pending = ""
		return
	}

	if w.pending != "" {
		w.add(w.pending, value)
		w.pending = ""
		return
	}
	zap.L().Debug("extract: loose text without label", zap.String("text", truncate(text, 80)))
}

func (w *walker) definitionList(dl *goquery.Selection) {
	w.pending = ""
	label := ""
	dl.Children().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "dt":
			label = cleanLabel(c.Text())
		case "dd":
			if label != "" {
				w.add(label, readValue(c))
			}
		}
	})
}

// splitInline splits "Label: value" at the first colon. The label must be
// short, contain a letter and not be a URL scheme.
func splitInline(text string) (string, string, bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return "", "", false
	}
	label := strings.TrimSpace(text[:idx])
	if label == "" || utf8.RuneCountInString(label) > maxInlineLabelLen || !strings.ContainsFunc(label, unicode.IsLetter) {
		return "", "", false
	}
	switch strings.ToLower(label) {
	case "http", "https", "ftp", "javascript", "mailto":
		return "", "", false
	}
	return cleanLabel(label), strings.TrimSpace(text[idx+1:]), true
}

func cleanLabel(s string) string {
	return normalize.TrimTrailingPunct(normalize.Text(s))
}

func isHeadingClass(c *goquery.Selection) bool {
	class, ok := c.Attr("class")
	if !ok {
		return false
	}
	matched := false
	for _, tok := range strings.Fields(strings.ToLower(class)) {
		if strings.Contains(tok, "heading") || strings.Contains(tok, "header") || strings.Contains(tok, "title") {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if c.Find("table, dl, input, select, textarea, a[href]").Length() > 0 {
		return false
	}
	text := normalize.Text(c.Text())
	return text != "" && utf8.RuneCountInString(text) <= maxHeadingLen && !strings.Contains(text, ":")
}

func hasLabelClass(c *goquery.Selection) bool {
	class, ok := c.Attr("class")
	if !ok {
		return false
	}
	for _, tok := range strings.Fields(strings.ToLower(class)) {
		if strings.Contains(tok, "label") || tok == "lbl" || tok == "key" {
			return true
		}
	}
	return false
}

func hasBlockDescendant(c *goquery.Selection) bool {
	found := false
	c.Find("*").EachWithBreak(func(_ int, d *goquery.Selection) bool {
		if blockTags[goquery.NodeName(d)] {
			found = true
			return false
		}
		return true
	})
	return found
}

// trimBlank drops whitespace-only text nodes from both ends of a line.
func trimBlank(nodes []*goquery.Selection) []*goquery.Selection {
	blank := func(n *goquery.Selection) bool {
		return goquery.NodeName(n) == "#text" && strings.TrimSpace(n.Text()) == ""
	}
	for len(nodes) > 0 && blank(nodes[0]) {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && blank(nodes[len(nodes)-1]) {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

func union(nodes []*goquery.Selection) *goquery.Selection {
	out := nodes[0]
	for _, n := range nodes[1:] {
		out = out.AddSelection(n)
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "…"
}
