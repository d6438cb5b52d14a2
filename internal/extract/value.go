package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
	"github.com/sells-group/rera-cli/internal/typer"
)

// hintAttrs are the attributes that may carry a client-side preview target,
// checked in order.
var hintAttrs = []string{"data-url", "data-href", "data-src", "data-file", "onclick"}

// quotedPathRe finds the first quoted argument that looks like a path.
var quotedPathRe = regexp.MustCompile(`['"]([^'"]*[./][^'"]*)['"]`)

// valueScan accumulates what a value cell exposes: visible text, real links
// in document order and the best preview hint.
type valueScan struct {
	text      strings.Builder
	links     []string
	seen      map[string]bool
	hint      string
	clickable bool
}

// readValue scans the nodes of sel and builds the value half of a field.
func readValue(sel *goquery.Selection) model.Field {
	sc := &valueScan{seen: make(map[string]bool)}
	for _, n := range sel.Nodes {
		sc.node(n)
	}
	return sc.field()
}

func (sc *valueScan) field() model.Field {
	raw := normalize.Text(sc.text.String())
	f := model.Field{
		RawValue:    raw,
		Links:       sc.links,
		PreviewHint: sc.hint,
	}
	f.IsPreviewOnly = typer.IsActionLabel(raw) ||
		(raw == "" && (len(sc.links) > 0 || sc.hint != "" || sc.clickable))
	return f
}

func (sc *valueScan) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sc.text.WriteString(n.Data)
		return
	case html.ElementNode:
	case html.DocumentNode:
		sc.children(n)
		return
	default:
		return
	}

	switch n.Data {
	case "script", "style", "noscript", "template":
		return
	case "br":
		sc.text.WriteString(" ")
		return
	case "input":
		sc.input(n)
		return
	case "select":
		if opt := selectedOption(n); opt != nil {
			sc.text.WriteString(" ")
			sc.children(opt)
			sc.text.WriteString(" ")
		}
		return
	case "a":
		sc.anchor(n)
	case "button":
		sc.clickable = true
	}

	sc.hintFrom(n)
	if blockTags[n.Data] {
		sc.text.WriteString(" ")
	}
	sc.children(n)
	if blockTags[n.Data] {
		sc.text.WriteString(" ")
	}
}

func (sc *valueScan) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sc.node(c)
	}
}

func (sc *valueScan) input(n *html.Node) {
	switch strings.ToLower(attr(n, "type")) {
	case "hidden", "checkbox", "radio", "file", "password":
	case "button", "submit", "reset", "image":
		sc.clickable = true
		sc.text.WriteString(" " + attr(n, "value") + " ")
	default:
		sc.text.WriteString(" " + attr(n, "value") + " ")
	}
	sc.hintFrom(n)
}

func (sc *valueScan) anchor(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" {
		return
	}
	sc.clickable = true
	if typer.IsPseudoURL(href) {
		if strings.HasPrefix(strings.ToLower(href), "javascript:") {
			sc.offerHint(hintFromHandler(href))
		}
		return
	}
	if !sc.seen[href] {
		sc.seen[href] = true
		sc.links = append(sc.links, href)
	}
}

func (sc *valueScan) hintFrom(n *html.Node) {
	for _, key := range hintAttrs {
		v := strings.TrimSpace(attr(n, key))
		if v == "" {
			continue
		}
		if key == "onclick" {
			sc.clickable = true
			sc.offerHint(hintFromHandler(v))
		} else {
			sc.offerHint(v)
		}
	}
}

// offerHint keeps the first hint, upgrading a pseudo-URL hint to a real one.
func (sc *valueScan) offerHint(h string) {
	if h == "" {
		return
	}
	if sc.hint == "" || (typer.IsPseudoURL(sc.hint) && !typer.IsPseudoURL(h)) {
		sc.hint = h
	}
}

// hintFromHandler pulls the document path out of a script handler such as
// "window.open('../Content/a.pdf')". Handlers without a path-like argument
// are kept as javascript: pseudo-URLs.
func hintFromHandler(handler string) string {
	if m := quotedPathRe.FindStringSubmatch(handler); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(strings.ToLower(handler), "javascript:") {
		return handler
	}
	return "javascript:" + handler
}

func selectedOption(sel *html.Node) *html.Node {
	var found *html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil && found == nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "option" && hasAttr(c, "selected") {
				found = c
				return
			}
			visit(c)
		}
	}
	visit(sel)
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
