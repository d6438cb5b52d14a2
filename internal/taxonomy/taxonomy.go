// Package taxonomy loads the label-variant taxonomy and resolves raw fields
// to canonical (section_key, field_key) slots. A Taxonomy is immutable after
// construction and safe to share between goroutines.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

//go:embed default.yaml
var defaultTaxonomy []byte

// FieldDef declares one canonical field: its type and accepted label
// variants. In YAML it is either a mapping or, as shorthand, a bare list of
// variants (type string).
type FieldDef struct {
	Type     model.FieldType `yaml:"type" json:"type"`
	Variants []string        `yaml:"variants" json:"variants"`
	Values   []string        `yaml:"values,omitempty" json:"values,omitempty"`
}

// UnmarshalYAML accepts both the mapping and the bare-list form.
func (f *FieldDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var variants []string
		if err := node.Decode(&variants); err != nil {
			return err
		}
		*f = FieldDef{Variants: variants}
		return nil
	}
	type plain FieldDef
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = FieldDef(p)
	return nil
}

// SectionDef declares one logical section.
type SectionDef struct {
	Titles   []string            `yaml:"titles" json:"titles"`
	Repeated bool                `yaml:"repeated" json:"repeated"`
	Fields   map[string]FieldDef `yaml:"fields" json:"fields"`
}

// File is the on-disk taxonomy document.
type File struct {
	Version  string                `yaml:"version" json:"version"`
	Sections map[string]SectionDef `yaml:"sections" json:"sections"`
}

// ValidationError lists every problem found in a taxonomy document. It is
// fatal: resolution over a contradictory taxonomy is not deterministic.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("taxonomy: %d problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// variant is one normalized label variant and the key it resolves to.
type variant struct {
	norm string
	key  string
}

// byLengthDesc orders variants longest first, then by key, then by text, so
// fallback matching is deterministic.
func byLengthDesc(vs []variant) {
	sort.Slice(vs, func(i, j int) bool {
		if len(vs[i].norm) != len(vs[j].norm) {
			return len(vs[i].norm) > len(vs[j].norm)
		}
		if vs[i].key != vs[j].key {
			return vs[i].key < vs[j].key
		}
		return vs[i].norm < vs[j].norm
	})
}

type sectionIndex struct {
	key       string
	repeated  bool
	fields    map[string]FieldDef
	fieldKeys []string
	exact     map[string]string
	ordered   []variant
}

// Taxonomy is the validated, indexed, read-only form of a File.
type Taxonomy struct {
	version     string
	sections    map[string]*sectionIndex
	sectionKeys []string
	titleExact  map[string]string
	titles      []variant
}

// Default returns the taxonomy embedded in the binary.
func Default() (*Taxonomy, error) {
	t, err := Parse(defaultTaxonomy)
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: load embedded default")
	}
	return t, nil
}

// Load reads and validates a taxonomy file. An empty path loads the embedded
// default.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "taxonomy: read file")
	}
	t, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "taxonomy: load %s", path)
	}
	return t, nil
}

// Parse decodes and validates a YAML taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var f File
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, eris.Wrap(err, "taxonomy: decode yaml")
	}
	return New(f)
}

// New validates f and builds its lookup indexes. Every problem is collected
// into a single *ValidationError.
func New(f File) (*Taxonomy, error) {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(f.Version) == "" {
		addf("version is required")
	}
	if len(f.Sections) == 0 {
		addf("no sections defined")
	}

	t := &Taxonomy{
		version:    f.Version,
		sections:   make(map[string]*sectionIndex, len(f.Sections)),
		titleExact: make(map[string]string),
	}

	for _, sectionKey := range sortedKeys(f.Sections) {
		def := f.Sections[sectionKey]
		if strings.TrimSpace(sectionKey) == "" {
			addf("empty section key")
			continue
		}
		if model.IsKnownSection(sectionKey) && sectionKey != model.SectionDocument &&
			def.Repeated == model.IsSingletonSection(sectionKey) {
			addf("section %s: repeated must be %t", sectionKey, !model.IsSingletonSection(sectionKey))
		}
		if len(def.Titles) == 0 {
			addf("section %s: no titles", sectionKey)
		}
		for _, title := range def.Titles {
			n := normalize.Label(title)
			if n == "" {
				addf("section %s: empty title", sectionKey)
				continue
			}
			if owner, ok := t.titleExact[n]; ok && owner != sectionKey {
				addf("title %q claimed by sections %s and %s", title, owner, sectionKey)
				continue
			}
			if _, ok := t.titleExact[n]; !ok {
				t.titleExact[n] = sectionKey
				t.titles = append(t.titles, variant{norm: n, key: sectionKey})
			}
		}

		idx := &sectionIndex{
			key:      sectionKey,
			repeated: def.Repeated,
			fields:   make(map[string]FieldDef, len(def.Fields)),
			exact:    make(map[string]string),
		}
		if len(def.Fields) == 0 {
			addf("section %s: no fields", sectionKey)
		}
		for _, fieldKey := range sortedKeys(def.Fields) {
			fd := def.Fields[fieldKey]
			if strings.TrimSpace(fieldKey) == "" {
				addf("section %s: empty field key", sectionKey)
				continue
			}
			if fd.Type == "" {
				fd.Type = model.TypeString
				if sectionKey == model.SectionDocument {
					fd.Type = model.TypeURL
				}
			}
			if !fd.Type.Valid() {
				addf("%s.%s: unknown type %q", sectionKey, fieldKey, fd.Type)
			}
			if fd.Type == model.TypeEnum && len(fd.Values) == 0 {
				addf("%s.%s: enum without values", sectionKey, fieldKey)
			}
			if sectionKey == model.SectionDocument && fd.Type != model.TypeURL {
				addf("%s.%s: document fields must be url, got %s", sectionKey, fieldKey, fd.Type)
			}
			if len(fd.Variants) == 0 {
				addf("%s.%s: no variants", sectionKey, fieldKey)
			}
			for _, v := range fd.Variants {
				n := normalize.Label(v)
				if n == "" {
					addf("%s.%s: empty variant %q", sectionKey, fieldKey, v)
					continue
				}
				owner, ok := idx.exact[n]
				switch {
				case !ok:
					idx.exact[n] = fieldKey
					idx.ordered = append(idx.ordered, variant{norm: n, key: fieldKey})
				case owner != fieldKey:
					addf("section %s: variant %q claimed by %s and %s", sectionKey, v, owner, fieldKey)
				}
			}
			fd.Variants = append([]string(nil), fd.Variants...)
			fd.Values = append([]string(nil), fd.Values...)
			idx.fields[fieldKey] = fd
			idx.fieldKeys = append(idx.fieldKeys, fieldKey)
		}
		byLengthDesc(idx.ordered)
		t.sections[sectionKey] = idx
		t.sectionKeys = append(t.sectionKeys, sectionKey)
	}
	byLengthDesc(t.titles)

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return t, nil
}

// Version returns the taxonomy's declared version.
func (t *Taxonomy) Version() string {
	return t.version
}

// SectionKeys returns every section key, sorted.
func (t *Taxonomy) SectionKeys() []string {
	return append([]string(nil), t.sectionKeys...)
}

// FieldKeys returns the field keys of a section, sorted.
func (t *Taxonomy) FieldKeys(sectionKey string) []string {
	idx, ok := t.sections[sectionKey]
	if !ok {
		return nil
	}
	return append([]string(nil), idx.fieldKeys...)
}

// Field returns the definition of one field.
func (t *Taxonomy) Field(sectionKey, fieldKey string) (FieldDef, bool) {
	idx, ok := t.sections[sectionKey]
	if !ok {
		return FieldDef{}, false
	}
	fd, ok := idx.fields[fieldKey]
	return fd, ok
}

// Repeated reports whether instances of the section form a collection.
func (t *Taxonomy) Repeated(sectionKey string) bool {
	idx, ok := t.sections[sectionKey]
	return ok && idx.repeated
}

// Variants returns the normalized variants of a section keyed by field key.
func (t *Taxonomy) Variants(sectionKey string) map[string][]string {
	idx, ok := t.sections[sectionKey]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(idx.fieldKeys))
	for _, v := range idx.ordered {
		out[v.key] = append(out[v.key], v.norm)
	}
	return out
}

// Titles returns the normalized section titles keyed by section key.
func (t *Taxonomy) Titles() map[string][]string {
	out := make(map[string][]string, len(t.sectionKeys))
	for _, v := range t.titles {
		out[v.key] = append(out[v.key], v.norm)
	}
	return out
}

// ResolveTitle maps a section heading to a section key: an exact normalized
// match first, then the longest title variant contained in the heading on
// word boundaries.
func (t *Taxonomy) ResolveTitle(title string) (string, model.MatchKind) {
	n := normalize.Label(title)
	if n == "" {
		return "", model.MatchNone
	}
	if key, ok := t.titleExact[n]; ok {
		return key, model.MatchExact
	}
	for _, v := range t.titles {
		if normalize.ContainsPhrase(n, v.norm) {
			return v.key, model.MatchContains
		}
	}
	return "", model.MatchNone
}

// MatchLabel resolves a normalized label within one section: exact lookup,
// then the longest contained variant.
func (t *Taxonomy) MatchLabel(sectionKey, normLabel string) (string, model.MatchKind) {
	idx, ok := t.sections[sectionKey]
	if !ok || normLabel == "" {
		return "", model.MatchNone
	}
	if key, ok := idx.exact[normLabel]; ok {
		return key, model.MatchExact
	}
	for _, v := range idx.ordered {
		if normalize.ContainsPhrase(normLabel, v.norm) {
			return v.key, model.MatchContains
		}
	}
	return "", model.MatchNone
}

// Stats summarizes the taxonomy for display.
type Stats struct {
	Version  string         `json:"version"`
	Sections int            `json:"sections"`
	Fields   int            `json:"fields"`
	Variants int            `json:"variants"`
	Titles   int            `json:"titles"`
	PerField map[string]int `json:"fields_per_section"`
}

// Stats counts sections, fields and variants.
func (t *Taxonomy) Stats() Stats {
	s := Stats{
		Version:  t.version,
		Sections: len(t.sectionKeys),
		Titles:   len(t.titles),
		PerField: make(map[string]int, len(t.sectionKeys)),
	}
	for _, key := range t.sectionKeys {
		idx := t.sections[key]
		s.Fields += len(idx.fieldKeys)
		s.Variants += len(idx.ordered)
		s.PerField[key] = len(idx.fieldKeys)
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
