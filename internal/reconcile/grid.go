package reconcile

import (
	"strconv"
	"strings"

	"github.com/sells-group/rera-cli/internal/model"
)

// expand turns grid blocks into plain blocks. A grid whose rows name
// documents becomes one entry per row, labelled by the name cell and
// valued by the link cell. Any other grid becomes one block per row.
func (r *Reconciler) expand(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Grid == nil {
			out = append(out, b)
			continue
		}
		g := b.Grid
		key := pick(b.Title, r.titles)
		cols := r.dataColumns(key, g)

		if name, link, ok := r.documentColumns(key, g, cols); ok {
			var entries []Entry
			for _, row := range g.Rows {
				e := row[link]
				e.Label = row[name].Value
				if e.Label != "" && hasContent(e) {
					entries = append(entries, e)
				}
			}
			if len(entries) == 0 {
				continue
			}
			if n := len(out); g.Joined && n > 0 && out[n-1].Title == b.Title {
				out[n-1].Entries = append(out[n-1].Entries, entries...)
				continue
			}
			out = append(out, Block{Title: b.Title, Entries: entries})
			continue
		}

		for _, row := range g.Rows {
			nb := Block{Title: b.Title}
			for _, i := range cols {
				if e := row[i]; e.Label != "" && hasContent(e) {
					nb.Entries = append(nb.Entries, e)
				}
			}
			if len(nb.Entries) > 0 {
				out = append(out, nb)
			}
		}
	}
	return out
}

// dataColumns returns the grid's columns minus a leading column that only
// numbers the rows 1..n and names no field of the section.
func (r *Reconciler) dataColumns(key string, g *Grid) []int {
	cols := make([]int, 0, len(g.Header))
	for i := range g.Header {
		if i == 0 && numbersRows(g) && !r.sectionField(key, g.Header[0]) {
			continue
		}
		cols = append(cols, i)
	}
	return cols
}

func numbersRows(g *Grid) bool {
	for i, row := range g.Rows {
		if strings.TrimRight(row[0].Value, ".)") != strconv.Itoa(i+1) {
			return false
		}
	}
	return len(g.Rows) > 0
}

// documentColumns finds the link column (the one with the most clickable
// cells) and the name column (the one whose cells most often name a
// document of the taxonomy). Outside the document section, columns whose
// header is a field of that section hold data and never pair. With no
// taxonomy hit, a grid of exactly two data columns still pairs when only
// one of them is clickable.
func (r *Reconciler) documentColumns(key string, g *Grid, cols []int) (int, int, bool) {
	var candidates []int
	for _, i := range cols {
		if key == model.SectionDocument || !r.sectionField(key, g.Header[i]) {
			candidates = append(candidates, i)
		}
	}

	link, best := -1, 0
	for _, i := range candidates {
		if n := countRows(g, i, interactive); n > best {
			link, best = i, n
		}
	}
	if link < 0 {
		return -1, -1, false
	}

	docs := r.fields[model.SectionDocument]
	name, best := -1, 0
	for _, i := range candidates {
		if i == link {
			continue
		}
		named := countRows(g, i, func(e Entry) bool {
			return !interactive(e) && pick(e.Value, docs) != ""
		})
		withText := countRows(g, i, func(e Entry) bool { return e.Value != "" })
		if named > best && 2*named >= withText {
			name, best = i, named
		}
	}
	if name >= 0 {
		return name, link, true
	}

	if len(cols) == 2 {
		other := cols[0]
		if other == link {
			other = cols[1]
		}
		if countRows(g, other, interactive) == 0 && countRows(g, other, func(e Entry) bool { return e.Value != "" }) > 0 {
			return other, link, true
		}
	}
	return -1, -1, false
}

func (r *Reconciler) sectionField(key, label string) bool {
	return key != "" && pick(label, r.fields[key]) != ""
}

func countRows(g *Grid, col int, pred func(Entry) bool) int {
	n := 0
	for _, row := range g.Rows {
		if pred(row[col]) {
			n++
		}
	}
	return n
}

func interactive(e Entry) bool {
	return len(e.Links) > 0 || e.Hint != "" || e.Action
}

func hasContent(e Entry) bool {
	return e.Value != "" || interactive(e)
}
