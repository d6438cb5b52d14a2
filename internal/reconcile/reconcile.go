// Package reconcile checks a canonical ProjectRecord against the page it came
// from. The page is re-read by an independent flattener, so the comparison
// never consults the extractor's or mapper's intermediate state.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
	"github.com/sells-group/rera-cli/internal/taxonomy"
	"github.com/sells-group/rera-cli/internal/typer"
)

// phrase is one normalized taxonomy string and the key it names.
type phrase struct {
	text string
	key  string
}

// Reconciler compares records with their source pages. It is read-only
// after New and safe for concurrent use.
type Reconciler struct {
	tax    *taxonomy.Taxonomy
	titles []phrase
	fields map[string][]phrase
}

// New builds a Reconciler with its own label tables taken from tax.
func New(tax *taxonomy.Taxonomy) *Reconciler {
	r := &Reconciler{tax: tax, fields: make(map[string][]phrase)}
	for key, titles := range tax.Titles() {
		for _, t := range titles {
			r.titles = append(r.titles, phrase{text: t, key: key})
		}
	}
	for _, key := range tax.SectionKeys() {
		for fieldKey, variants := range tax.Variants(key) {
			for _, v := range variants {
				r.fields[key] = append(r.fields[key], phrase{text: v, key: fieldKey})
			}
		}
	}
	return r
}

// pick scores every candidate against label: an exact match beats any
// contained phrase, longer phrases beat shorter ones and ties go to the
// smaller key.
func pick(label string, candidates []phrase) string {
	n := normalize.Label(label)
	if n == "" {
		return ""
	}
	padded := " " + n + " "
	bestKey, bestScore := "", 0
	for _, p := range candidates {
		score := 0
		switch {
		case p.text == n:
			score = math.MaxInt32
		case strings.Contains(padded, " "+p.text+" "):
			score = len(p.text)
		}
		if score == 0 {
			continue
		}
		if score > bestScore || (score == bestScore && p.key < bestKey) {
			bestKey, bestScore = p.key, score
		}
	}
	return bestKey
}

type slotEntry struct {
	field string
	entry Entry
}

type expectedDoc struct {
	section  string
	field    string
	unmapped bool
	entry    Entry
}

// sourceView is what the page says the record should contain.
type sourceView struct {
	instances map[string][][]slotEntry
	documents []expectedDoc
}

func (r *Reconciler) expect(blocks []Block) sourceView {
	v := sourceView{instances: make(map[string][][]slotEntry)}
	for _, b := range r.expand(blocks) {
		key := pick(b.Title, r.titles)
		var inst []slotEntry
		for _, e := range b.Entries {
			field := ""
			if key != "" {
				field = pick(e.Label, r.fields[key])
			}
			switch {
			case field == "":
				if e.Action {
					v.documents = append(v.documents, expectedDoc{section: key, field: normalize.Slug(e.Label), unmapped: true, entry: e})
				}
			case key == model.SectionDocument:
				v.documents = append(v.documents, expectedDoc{section: key, field: field, entry: e})
			default:
				fd, _ := r.tax.Field(key, field)
				if fd.Type != model.TypeURL && e.Action {
					v.documents = append(v.documents, expectedDoc{section: key, field: field, entry: e})
					continue
				}
				inst = append(inst, slotEntry{field: field, entry: e})
			}
		}

		switch {
		case key == "" || key == model.SectionDocument:
		case r.tax.Repeated(key):
			v.instances[key] = append(v.instances[key], inst)
		default:
			if len(v.instances[key]) == 0 {
				v.instances[key] = make([][]slotEntry, 1)
			}
			v.instances[key][0] = append(v.instances[key][0], inst...)
		}
	}
	return v
}

// Reconcile re-reads body and compares it with rec field by field.
func (r *Reconciler) Reconcile(body []byte, rec *model.ProjectRecord) *model.ReconciliationReport {
	view := r.expect(Flatten(body))
	report := &model.ReconciliationReport{
		ProjectKey:      rec.ProjectKey,
		TaxonomyVersion: r.tax.Version(),
		Comparisons:     []model.FieldComparison{},
	}

	for _, key := range r.tax.SectionKeys() {
		if key == model.SectionDocument {
			continue
		}
		report.Comparisons = append(report.Comparisons, r.compareSection(key, view.instances[key], rec.Entities(key))...)
	}
	report.Comparisons = append(report.Comparisons, compareDocuments(view.documents, rec.Documents)...)

	for _, c := range report.Comparisons {
		report.Counts.Add(c.Status)
	}
	zap.L().Debug("reconcile: report built",
		zap.String("project_key", report.ProjectKey),
		zap.Int("match", report.Counts.Match),
		zap.Int("mismatch", report.Counts.Mismatch),
		zap.Int("missing_in_source", report.Counts.MissingInSource),
		zap.Int("missing_in_canonical", report.Counts.MissingInCanonical),
		zap.Int("unverifiable", report.Counts.Unverifiable),
	)
	return report
}

func (r *Reconciler) compareSection(key string, src [][]slotEntry, canon []model.Entity) []model.FieldComparison {
	var out []model.FieldComparison
	n := max(len(src), len(canon))
	for i := 0; i < n; i++ {
		prefix := collectionPath(key)
		if r.tax.Repeated(key) {
			prefix = fmt.Sprintf("%s[%d]", prefix, i)
		}

		first := make(map[string]Entry)
		if i < len(src) {
			for _, se := range src[i] {
				if _, ok := first[se.field]; !ok {
					first[se.field] = se.entry
				}
			}
		}
		var ent *model.Entity
		if i < len(canon) {
			ent = &canon[i]
		}

		keys := make(map[string]bool, len(first))
		for k := range first {
			keys[k] = true
		}
		if ent != nil {
			for _, k := range ent.Keys() {
				keys[k] = true
			}
		}
		sorted := make([]string, 0, len(keys))
		for k := range keys {
			sorted = append(sorted, k)
		}
		sort.Strings(sorted)

		for _, field := range sorted {
			e, inSrc := first[field]
			canonical, inCanon := "", false
			if ent != nil {
				canonical, inCanon = ent.Lookup(field)
			}
			fd, _ := r.tax.Field(key, field)
			out = append(out, compareLeaf(prefix+"."+field, fd, e, inSrc, canonical, inCanon))
		}
	}
	return out
}

// compareLeaf runs one field through the comparison states.
func compareLeaf(path string, fd taxonomy.FieldDef, e Entry, inSrc bool, canonical string, inCanon bool) model.FieldComparison {
	c := model.FieldComparison{FieldPath: path, SourceLabel: e.Label, SourceValue: e.Value, CanonicalValue: canonical}
	switch {
	case !inSrc:
		c.Status = model.StatusMissingInSource
	case fd.Type == model.TypeURL:
		u, ok := sourceURL(e)
		switch {
		case !ok:
			c.Status = model.StatusUnverifiable
		case !inCanon:
			c.SourceValue = u
			c.Status = model.StatusMissingInCanonical
		default:
			c.SourceValue = u
			c.Status = verdict(sameURL(u, canonical))
		}
	case !inCanon:
		c.Status = model.StatusMissingInCanonical
	default:
		c.Status = verdict(equivalent(fd, e.Value, canonical))
	}
	return c
}

// equivalent types the source value the way the record's slot is typed,
// then compares normalized renderings. Untypable source text is compared
// as is, which is how it appears in overflow.
func equivalent(fd taxonomy.FieldDef, raw, canonical string) bool {
	src := raw
	if v, err := typer.Apply(typer.Spec{Type: fd.Type, EnumValues: fd.Values}, raw); err == nil {
		src = v.String()
	}
	return normalize.Value(src) == normalize.Value(canonical)
}

func compareDocuments(expected []expectedDoc, docs []model.DocumentArtifact) []model.FieldComparison {
	type id struct {
		section  string
		field    string
		unmapped bool
	}
	byID := make(map[id][]model.DocumentArtifact)
	var order []id
	for _, d := range docs {
		k := id{d.SectionKey, d.FieldKey, d.Unmapped}
		if _, ok := byID[k]; !ok {
			order = append(order, k)
		}
		byID[k] = append(byID[k], d)
	}

	var out []model.FieldComparison
	used := make(map[id]int)
	for _, exp := range expected {
		k := id{exp.section, exp.field, exp.unmapped}
		occ := used[k]
		used[k]++
		c := model.FieldComparison{
			FieldPath:   documentPath(exp.section, exp.field, exp.unmapped, occ),
			SourceLabel: exp.entry.Label,
			SourceValue: exp.entry.Value,
		}
		u, ok := sourceURL(exp.entry)
		if ok {
			c.SourceValue = u
		}
		switch {
		case occ >= len(byID[k]):
			c.Status = model.StatusMissingInCanonical
			if !ok {
				c.Status = model.StatusUnverifiable
			}
		case !ok:
			c.CanonicalValue = byID[k][occ].SourceURL
			c.Status = model.StatusUnverifiable
		default:
			c.CanonicalValue = byID[k][occ].SourceURL
			c.Status = verdict(sameURL(u, c.CanonicalValue))
		}
		out = append(out, c)
	}

	for _, k := range order {
		for occ := used[k]; occ < len(byID[k]); occ++ {
			d := byID[k][occ]
			out = append(out, model.FieldComparison{
				FieldPath:      documentPath(k.section, k.field, k.unmapped, occ),
				Status:         model.StatusMissingInSource,
				SourceLabel:    d.Label,
				CanonicalValue: d.SourceURL,
			})
		}
	}
	return out
}

// sourceURL walks the page-side URL priority: link, non-pseudo hint, then
// visible text that is not an action label.
func sourceURL(e Entry) (string, bool) {
	for _, l := range e.Links {
		if l = strings.TrimSpace(l); !typer.IsPseudoURL(l) {
			return l, true
		}
	}
	if h := strings.TrimSpace(e.Hint); h != "" && !typer.IsPseudoURL(h) {
		return h, true
	}
	if v := strings.TrimSpace(e.Value); v != "" && !typer.IsActionLabel(v) {
		return v, true
	}
	return "", false
}

func sameURL(a, b string) bool {
	return normalize.Text(a) == normalize.Text(b)
}

func verdict(equal bool) model.ComparisonStatus {
	if equal {
		return model.StatusMatch
	}
	return model.StatusMismatch
}

// collectionPath names a section's slot in the record's JSON shape.
func collectionPath(key string) string {
	switch key {
	case model.SectionProject:
		return "project"
	case model.SectionLand:
		return "land"
	case model.SectionPromoter:
		return "promoters"
	case model.SectionBuilding:
		return "buildings"
	case model.SectionUnitType:
		return "unit_types"
	case model.SectionBankAccount:
		return "bank_accounts"
	case model.SectionQuarterlyUpdate:
		return "quarterly_updates"
	}
	return "extra." + key
}

func documentPath(section, field string, unmapped bool, occ int) string {
	p := "documents"
	if unmapped {
		p += ".unmapped"
	}
	if section != "" && section != model.SectionDocument {
		p += "." + section
	}
	p += "." + field
	if occ > 0 {
		p = fmt.Sprintf("%s[%d]", p, occ)
	}
	return p
}
