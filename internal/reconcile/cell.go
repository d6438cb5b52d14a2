package reconcile

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/sells-group/rera-cli/internal/normalize"
	"github.com/sells-group/rera-cli/internal/typer"
)

// cell is what a value position of the page shows to a reader.
type cell struct {
	text      string
	links     []string
	hint      string
	clickable bool
}

func readCell(nodes ...*html.Node) cell {
	var b strings.Builder
	var c cell
	seen := map[string]bool{}

	offer := func(h string) {
		if h != "" && (c.hint == "" || (typer.IsPseudoURL(c.hint) && !typer.IsPseudoURL(h))) {
			c.hint = h
		}
	}
	hints := func(n *html.Node) {
		for _, key := range hintKeys {
			v := strings.TrimSpace(getAttr(n, key))
			switch {
			case v == "":
			case key == "onclick":
				c.clickable = true
				offer(handlerTarget(v))
			default:
				offer(v)
			}
		}
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.DocumentNode:
			for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
				visit(ch)
			}
			return
		case html.ElementNode:
		default:
			return
		}
		if textlessElems[n.Data] {
			return
		}

		switch n.Data {
		case "br":
			b.WriteByte(' ')
			return
		case "input":
			kind := strings.ToLower(getAttr(n, "type"))
			switch kind {
			case "hidden", "checkbox", "radio", "file", "password":
			default:
				if kind == "button" || kind == "submit" || kind == "reset" || kind == "image" {
					c.clickable = true
				}
				b.WriteString(" " + getAttr(n, "value") + " ")
			}
			hints(n)
			return
		case "select":
			if opt := firstSelected(n); opt != nil {
				b.WriteByte(' ')
				for ch := opt.FirstChild; ch != nil; ch = ch.NextSibling {
					visit(ch)
				}
				b.WriteByte(' ')
			}
			return
		case "a":
			if href := strings.TrimSpace(getAttr(n, "href")); href != "" {
				c.clickable = true
				switch {
				case strings.HasPrefix(strings.ToLower(href), "javascript:"):
					offer(handlerTarget(href))
				case typer.IsPseudoURL(href):
				case !seen[href]:
					seen[href] = true
					c.links = append(c.links, href)
				}
			}
		case "button":
			c.clickable = true
		}

		hints(n)
		pad := layoutBlocks[n.Data]
		if pad {
			b.WriteByte(' ')
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			visit(ch)
		}
		if pad {
			b.WriteByte(' ')
		}
	}

	for _, n := range nodes {
		visit(n)
	}
	c.text = normalize.Text(b.String())
	return c
}

// action reports whether the visible value is an affordance rather than
// content.
func (c cell) action() bool {
	return typer.IsActionLabel(c.text) ||
		(c.text == "" && (len(c.links) > 0 || c.hint != "" || c.clickable))
}

func (c cell) present() bool {
	return c.text != "" || len(c.links) > 0 || c.hint != "" || c.action()
}

func (c cell) entry(label string) Entry {
	return Entry{Label: label, Value: c.text, Links: c.links, Hint: c.hint, Action: c.action()}
}

// handlerTarget extracts the quoted path argument of a script handler.
func handlerTarget(handler string) string {
	if m := pathArg.FindStringSubmatch(handler); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(strings.ToLower(handler), "javascript:") {
		return handler
	}
	return "javascript:" + handler
}

func firstSelected(n *html.Node) *html.Node {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && ch.Data == "option" {
			for _, a := range ch.Attr {
				if a.Key == "selected" {
					return ch
				}
			}
		}
		if found := firstSelected(ch); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
