package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
	"github.com/sells-group/rera-cli/internal/typer"
)

// serialHeaders are grid columns that only number the rows.
var serialHeaders = map[string]bool{
	"s no": true, "sr no": true, "sl no": true, "sno": true, "srno": true,
	"serial no": true, "serial number": true, "sr": true, "no": true, "#": true,
}

// nameHeaders mark the column that labels each row of a document-style grid.
var nameHeaders = map[string]bool{
	"document name": true, "name of document": true, "document": true, "documents": true,
	"particulars": true, "document type": true, "description": true, "title": true,
	"name": true, "document title": true, "details": true, "document details": true,
}

// linkHeaders mark the column holding the document affordance.
var linkHeaders = map[string]bool{
	"view": true, "preview": true, "download": true, "action": true, "file": true,
	"attachment": true, "link": true, "view document": true, "uploaded document": true,
	"document": true, "view download": true, "uploaded file": true,
}

// separatorCells are cells that only separate a label from its value.
var separatorCells = map[string]bool{":": true, "-": true, ":-": true}

type tableRow struct {
	cells  []*goquery.Selection
	header bool
	nested bool
}

// table extracts a table. A header row of three or more cells followed by
// rows of the same width is a grid: each data row becomes its own section.
// Everything else is read as label/value cell pairs.
func (w *walker) table(t *goquery.Selection) {
	w.pending = ""
	if caption := t.ChildrenFiltered("caption").First(); caption.Length() > 0 {
		w.heading(caption.Text())
	}

	var rows []tableRow
	t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.Closest("table").IsSelection(t) {
			return
		}
		cells := tr.ChildrenFiltered("td, th")
		if cells.Length() == 0 {
			return
		}
		r := tableRow{
			header: cells.Length() == cells.Filter("th").Length() || goquery.NodeName(tr.Parent()) == "thead",
			nested: cells.Find("table").Length() > 0,
		}
		cells.Each(func(_ int, c *goquery.Selection) { r.cells = append(r.cells, c) })
		rows = append(rows, r)
	})

	var header []string
	dataRow := 0
	for _, r := range rows {
		switch {
		case r.nested:
			for _, c := range r.cells {
				w.walk(c)
			}
			header = nil
		case len(r.cells) == 1:
			w.singleCell(r.cells[0])
			header = nil
		case r.header && len(r.cells) >= 3:
			header = headerTexts(r.cells)
			dataRow = 0
		case r.header:
			// two-cell header over label/value pairs
		case header != nil && len(r.cells) == len(header):
			dataRow++
			w.gridRowFrom(header, r.cells, dataRow)
		default:
			w.pairs(r.cells)
		}
	}
}

func headerTexts(cells []*goquery.Selection) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cleanLabel(c.Text())
	}
	return out
}

// gridRowFrom emits one grid data row. A grid with a name column and a link
// column reads each row as one "name: document" field of the current
// section instead.
func (w *walker) gridRowFrom(header []string, cells []*goquery.Selection, row int) {
	nameCol, linkCol := documentColumns(header)
	if nameCol >= 0 && linkCol >= 0 {
		w.add(cells[nameCol].Text(), readValue(cells[linkCol]))
		return
	}

	fields := make([]model.Field, 0, len(cells))
	for i, c := range cells {
		if serialHeaders[normalize.Label(header[i])] {
			continue
		}
		f := readValue(c)
		f.Label = header[i]
		fields = append(fields, f)
	}
	w.gridRow(row, fields)
}

// documentColumns finds the name and link columns of a document-style grid,
// ignoring serial-number columns. With exactly two columns left, either a
// name header or a link header is enough.
func documentColumns(header []string) (int, int) {
	var cols []int
	for i, h := range header {
		if !serialHeaders[normalize.Label(h)] {
			cols = append(cols, i)
		}
	}
	if len(cols) == 2 {
		first, second := normalize.Label(header[cols[0]]), normalize.Label(header[cols[1]])
		if nameHeaders[first] || linkHeaders[second] || typer.IsActionLabel(second) {
			return cols[0], cols[1]
		}
		return -1, -1
	}
	nameCol, linkCol := -1, -1
	for _, i := range cols {
		if nameCol < 0 && nameHeaders[normalize.Label(header[i])] {
			nameCol = i
		}
	}
	for _, i := range cols {
		h := normalize.Label(header[i])
		if i != nameCol && linkCol < 0 && (linkHeaders[h] || typer.IsActionLabel(h)) {
			linkCol = i
		}
	}
	if nameCol < 0 || linkCol < 0 {
		return -1, -1
	}
	return nameCol, linkCol
}

// singleCell reads a row holding one cell: a sub-heading when it is short
// plain text, otherwise its content is walked.
func (w *walker) singleCell(c *goquery.Selection) {
	v := readValue(c)
	plain := len(v.Links) == 0 && v.PreviewHint == "" && c.Find("input, select, textarea").Length() == 0
	if plain && v.RawValue != "" && !strings.Contains(v.RawValue, ":") && utf8.RuneCountInString(v.RawValue) <= maxHeadingLen {
		w.heading(v.RawValue)
		return
	}
	w.walk(c)
}

// pairs reads a row as consecutive label/value cells.
func (w *walker) pairs(cells []*goquery.Selection) {
	var kept []*goquery.Selection
	for _, c := range cells {
		v := readValue(c)
		if separatorCells[v.RawValue] && len(v.Links) == 0 {
			continue
		}
		kept = append(kept, c)
	}
	if len(kept)%2 == 1 && len(kept) > 1 && isSerial(kept[0]) {
		kept = kept[1:]
	}

	for i := 0; i+1 < len(kept); i += 2 {
		w.add(kept[i].Text(), readValue(kept[i+1]))
	}
	if len(kept)%2 == 1 {
		last := readValue(kept[len(kept)-1])
		if label, rest, ok := splitInline(last.RawValue); ok && rest != "" {
			last.RawValue = rest
			last.IsPreviewOnly = typer.IsActionLabel(rest)
			w.add(label, last)
		}
	}
}

func isSerial(c *goquery.Selection) bool {
	s := strings.TrimRight(normalize.Text(c.Text()), ".)")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
