package reconcile

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/sells-group/rera-cli/internal/normalize"
)

// Entry is one label/value pair read back from the source page.
type Entry struct {
	Label  string   `json:"label"`
	Value  string   `json:"value,omitempty"`
	Links  []string `json:"links,omitempty"`
	Hint   string   `json:"hint,omitempty"`
	Action bool     `json:"action,omitempty"`
}

// Block is one section instance of the source page: a titled run of
// entries, or a grid table kept whole.
type Block struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
	Grid    *Grid   `json:"grid,omitempty"`
}

// Grid is a table read under a header row. Every row holds one entry per
// header cell, empty or not. How its columns pair up is left to the
// Reconciler, which knows the taxonomy.
type Grid struct {
	Header []string  `json:"header"`
	Rows   [][]Entry `json:"rows"`
	// Joined marks a grid that continues the block open before it.
	Joined bool `json:"joined,omitempty"`
}

var (
	layoutBlocks = toSet("address article aside blockquote body caption center dd details dialog div dl dt " +
		"fieldset figcaption figure footer form h1 h2 h3 h4 h5 h6 header hr legend li main nav ol p pre " +
		"section summary table tbody td tfoot th thead tr ul")
	ignoredElems  = toSet("head script style noscript template svg iframe object")
	textlessElems = toSet("script style noscript template")
	titleElems    = toSet("h1 h2 h3 h4 h5 h6 legend")
	emphasis      = toSet("b strong u")
	labelOpeners  = toSet("label b strong")
	hintKeys      = []string{"data-url", "data-href", "data-src", "data-file", "onclick"}
	pathArg       = regexp.MustCompile(`['"]([^'"]*[./][^'"]*)['"]`)
)

// toSet builds a lookup set; underscores in words stand for spaces.
func toSet(words string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		out[strings.ReplaceAll(w, "_", " ")] = true
	}
	return out
}

// Flatten re-reads a page into blocks without touching the extractor.
// Header-row tables come back as grids; they are paired by content and
// taxonomy when expected values are built, not by header wording.
func Flatten(body []byte) []Block {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}
	f := &flattener{}
	start := findElement(root, "body")
	if start == nil {
		start = root
	}
	f.container(start)
	return f.blocks
}

type flattener struct {
	title   string
	open    bool
	pending string
	blocks  []Block
}

func (f *flattener) setTitle(s string) {
	s = normalize.TrimTrailingPunct(normalize.Text(s))
	if s == "" {
		return
	}
	f.title, f.open, f.pending = s, false, ""
}

func (f *flattener) emit(label string, c cell) {
	label = normalize.TrimTrailingPunct(normalize.Text(label))
	if label == "" || !c.present() {
		return
	}
	if !f.open {
		f.blocks = append(f.blocks, Block{Title: f.title})
		f.open = true
	}
	last := &f.blocks[len(f.blocks)-1]
	last.Entries = append(last.Entries, c.entry(label))
}

func (f *flattener) container(n *html.Node) {
	var run []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.CommentNode:
			continue
		case c.Type == html.ElementNode && ignoredElems[c.Data]:
			continue
		case c.Type != html.ElementNode || (!layoutBlocks[c.Data] && !hasLayoutChild(c)):
			run = append(run, c)
			continue
		}
		if len(run) > 0 {
			f.run(run)
			run = nil
		}
		f.element(c)
	}
	if len(run) > 0 {
		f.run(run)
	}
}

func (f *flattener) element(n *html.Node) {
	switch {
	case n.Data == "table":
		f.table(n)
	case n.Data == "dl":
		f.pending = ""
		label := ""
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "dt":
				label = normalize.TrimTrailingPunct(normalize.Text(allText(c)))
			case "dd":
				if label != "" {
					f.emit(label, readCell(c))
				}
			}
		}
	case titleElems[n.Data] || titleByClass(n):
		f.setTitle(allText(n))
	default:
		f.container(n)
	}
}

func (f *flattener) run(nodes []*html.Node) {
	start := 0
	for i, n := range nodes {
		if n.Type == html.ElementNode && n.Data == "br" {
			f.line(nodes[start:i])
			start = i + 1
		}
	}
	f.line(nodes[start:])
}

func (f *flattener) line(nodes []*html.Node) {
	for len(nodes) > 0 && isBlankText(nodes[0]) {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && isBlankText(nodes[len(nodes)-1]) {
		nodes = nodes[:len(nodes)-1]
	}
	if len(nodes) == 0 {
		return
	}
	c := readCell(nodes...)
	if !c.present() {
		return
	}
	head := nodes[0]
	tag := ""
	if head.Type == html.ElementNode {
		tag = head.Data
	}
	interactive := len(c.links) > 0 || c.hint != ""

	switch {
	case len(nodes) == 1 && emphasis[tag] && !interactive && !strings.HasSuffix(c.text, ":"):
		f.setTitle(c.text)
		return
	case labelOpeners[tag] && len(nodes) > 1:
		if label := normalize.TrimTrailingPunct(normalize.Text(allText(head))); label != "" {
			rest := readCell(nodes[1:]...)
			if t := strings.TrimSpace(strings.TrimLeft(rest.text, ":")); t != rest.text {
				rest.text = t
				rest.clickable = false
			}
			if rest.present() {
				f.emit(label, rest)
			} else {
				f.pending = label
			}
			return
		}
	}

	if len(nodes) == 1 && (tag == "label" || labelByClass(head)) && !interactive {
		f.pending = normalize.TrimTrailingPunct(c.text)
		return
	}
	if label, rest, ok := inlinePair(c.text); ok {
		if rest == "" && !interactive {
			f.pending = label
			return
		}
		c.text = rest
		c.clickable = false
		f.emit(label, c)
		f.pending = ""
		return
	}
	if f.pending != "" {
		f.emit(f.pending, c)
		f.pending = ""
	}
}

type tableRowInfo struct {
	cells  []*html.Node
	header bool
	nested bool
}

func (f *flattener) table(t *html.Node) {
	f.pending = ""
	for c := t.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "caption" {
			f.setTitle(allText(c))
			break
		}
	}

	var rows []tableRowInfo
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "tr":
				if r, ok := rowInfo(c); ok {
					rows = append(rows, r)
				}
				continue
			}
			collect(c)
		}
	}
	collect(t)

	var (
		header []string
		grid   *Grid
	)
	flush := func() {
		if grid != nil && len(grid.Rows) > 0 {
			f.blocks = append(f.blocks, Block{Title: f.title, Grid: grid})
			f.open = false
		}
		grid = nil
	}
	for _, r := range rows {
		switch {
		case r.nested:
			flush()
			for _, c := range r.cells {
				f.container(c)
			}
			header = nil
		case len(r.cells) == 1:
			flush()
			f.lonelyCell(r.cells[0])
			header = nil
		case r.header && len(r.cells) >= 3:
			flush()
			header = make([]string, len(r.cells))
			for i, c := range r.cells {
				header[i] = normalize.TrimTrailingPunct(normalize.Text(allText(c)))
			}
		case r.header:
		case header != nil && len(r.cells) == len(header):
			if grid == nil {
				grid = &Grid{Header: header, Joined: f.open}
			}
			row := make([]Entry, len(r.cells))
			for i, c := range r.cells {
				row[i] = readCell(c).entry(header[i])
			}
			grid.Rows = append(grid.Rows, row)
		default:
			flush()
			f.cellPairs(r.cells)
		}
	}
	flush()
}

func rowInfo(tr *html.Node) (tableRowInfo, bool) {
	var r tableRowInfo
	th := 0
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		r.cells = append(r.cells, c)
		if c.Data == "th" {
			th++
		}
		if findElement(c, "table") != nil {
			r.nested = true
		}
	}
	if len(r.cells) == 0 {
		return r, false
	}
	r.header = th == len(r.cells) || (tr.Parent != nil && tr.Parent.Type == html.ElementNode && tr.Parent.Data == "thead")
	return r, true
}

func (f *flattener) lonelyCell(n *html.Node) {
	c := readCell(n)
	plain := len(c.links) == 0 && c.hint == "" &&
		findElement(n, "input") == nil && findElement(n, "select") == nil && findElement(n, "textarea") == nil
	if plain && c.text != "" && !strings.Contains(c.text, ":") && utf8.RuneCountInString(c.text) <= 120 {
		f.setTitle(c.text)
		return
	}
	f.container(n)
}

func (f *flattener) cellPairs(cells []*html.Node) {
	var kept []*html.Node
	for _, n := range cells {
		c := readCell(n)
		if (c.text == ":" || c.text == "-" || c.text == ":-") && len(c.links) == 0 {
			continue
		}
		kept = append(kept, n)
	}
	if len(kept) > 1 && len(kept)%2 == 1 && isRowNumber(kept[0]) {
		kept = kept[1:]
	}
	for i := 1; i < len(kept); i += 2 {
		f.emit(allText(kept[i-1]), readCell(kept[i]))
	}
	if len(kept)%2 == 1 {
		c := readCell(kept[len(kept)-1])
		if label, rest, ok := inlinePair(c.text); ok && rest != "" {
			c.text = rest
			c.clickable = false
			f.emit(label, c)
		}
	}
}

func isRowNumber(n *html.Node) bool {
	s := strings.TrimRight(normalize.Text(allText(n)), ".)")
	return s != "" && strings.Trim(s, "0123456789") == ""
}

// inlinePair splits "Label: value" at the first colon.
func inlinePair(text string) (string, string, bool) {
	label, rest, found := strings.Cut(text, ":")
	label = strings.TrimSpace(label)
	if !found || label == "" || utf8.RuneCountInString(label) > 60 {
		return "", "", false
	}
	if strings.IndexFunc(label, unicode.IsLetter) < 0 {
		return "", "", false
	}
	switch strings.ToLower(label) {
	case "http", "https", "ftp", "javascript", "mailto":
		return "", "", false
	}
	return normalize.TrimTrailingPunct(normalize.Text(label)), strings.TrimSpace(rest), true
}

func titleByClass(n *html.Node) bool {
	if !classHas(n, func(tok string) bool {
		return strings.Contains(tok, "heading") || strings.Contains(tok, "header") || strings.Contains(tok, "title")
	}) {
		return false
	}
	for _, tag := range []string{"table", "dl", "input", "select", "textarea"} {
		if findElement(n, tag) != nil {
			return false
		}
	}
	if hasHref(n) {
		return false
	}
	text := normalize.Text(allText(n))
	return text != "" && utf8.RuneCountInString(text) <= 120 && !strings.Contains(text, ":")
}

func labelByClass(n *html.Node) bool {
	return classHas(n, func(tok string) bool {
		return strings.Contains(tok, "label") || tok == "lbl" || tok == "key"
	})
}

func classHas(n *html.Node, pred func(string) bool) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, tok := range strings.Fields(strings.ToLower(a.Val)) {
			if pred(tok) {
				return true
			}
		}
	}
	return false
}

func hasHref(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.Data == "a" {
			for _, a := range c.Attr {
				if a.Key == "href" {
					return true
				}
			}
		}
		if hasHref(c) {
			return true
		}
	}
	return false
}

func hasLayoutChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (layoutBlocks[c.Data] || hasLayoutChild(c)) {
			return true
		}
	}
	return false
}

// findElement returns the first element named tag at or below n.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// allText concatenates every text node below n, scripts included.
func allText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(allText(c))
	}
	return b.String()
}

func isBlankText(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}
