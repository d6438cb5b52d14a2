package model

// Field is one label/value occurrence extracted from a source section.
// An empty RawValue stands for "no value". RawValue and Links are both empty
// only when IsPreviewOnly is set.
type Field struct {
	Label         string   `json:"label"`
	RawValue      string   `json:"raw_value,omitempty"`
	Links         []string `json:"links,omitempty"`
	IsPreviewOnly bool     `json:"is_preview_only,omitempty"`
	PreviewHint   string   `json:"preview_hint,omitempty"`
}

// HasContent reports whether the field carries anything a consumer can use.
func (f Field) HasContent() bool {
	return f.RawValue != "" || len(f.Links) > 0 || f.PreviewHint != "" || f.IsPreviewOnly
}

// Section is a titled group of fields in source order. Row is the 1-based data
// row when the section was produced from a multi-row grid table, 0 otherwise.
type Section struct {
	Title  string  `json:"title"`
	Row    int     `json:"row,omitempty"`
	Fields []Field `json:"fields"`
}

// MatchKind records how a label was resolved to a field key.
type MatchKind string

const (
	MatchNone     MatchKind = ""
	MatchExact    MatchKind = "exact"
	MatchContains MatchKind = "contains"
)

// ResolvedField is a Field plus its optional (section_key, field_key) slot.
type ResolvedField struct {
	Field
	SectionKey string    `json:"section_key,omitempty"`
	FieldKey   string    `json:"field_key,omitempty"`
	Match      MatchKind `json:"match,omitempty"`
	// NormalizedLabel is the key used for lookups and for the unmapped bucket.
	NormalizedLabel string `json:"normalized_label"`
}

// Resolved reports whether the field was assigned a canonical slot.
func (r ResolvedField) Resolved() bool {
	return r.FieldKey != ""
}

// ResolvedSection is the resolver's view of one source section. Fields keeps
// every field in source order; Unmapped indexes the unassigned ones by their
// normalized label.
type ResolvedSection struct {
	Title      string             `json:"title"`
	SectionKey string             `json:"section_key,omitempty"`
	Row        int                `json:"row,omitempty"`
	Fields     []ResolvedField    `json:"fields"`
	Unmapped   map[string][]Field `json:"unmapped,omitempty"`
}

// Assigned returns the fields that resolved to a canonical slot.
func (s ResolvedSection) Assigned() []ResolvedField {
	var out []ResolvedField
	for _, f := range s.Fields {
		if f.Resolved() {
			out = append(out, f)
		}
	}
	return out
}
