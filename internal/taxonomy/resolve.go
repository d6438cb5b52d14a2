package taxonomy

import (
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// Resolver assigns extracted fields to taxonomy slots. It holds no mutable
// state, so one Resolver may serve many goroutines.
type Resolver struct {
	tax *Taxonomy
}

// NewResolver creates a Resolver over t.
func NewResolver(t *Taxonomy) *Resolver {
	return &Resolver{tax: t}
}

// Resolve resolves every section in source order.
func (r *Resolver) Resolve(sections []model.Section) []model.ResolvedSection {
	out := make([]model.ResolvedSection, 0, len(sections))
	for _, s := range sections {
		out = append(out, r.ResolveSection(s))
	}
	return out
}

// ResolveSection maps the section title to a section key and each field
// label to a field key within it. Fields that do not resolve are kept in
// the Unmapped bucket under their normalized label.
func (r *Resolver) ResolveSection(s model.Section) model.ResolvedSection {
	key, _ := r.tax.ResolveTitle(s.Title)
	rs := model.ResolvedSection{
		Title:      s.Title,
		SectionKey: key,
		Row:        s.Row,
		Fields:     make([]model.ResolvedField, 0, len(s.Fields)),
	}

	for _, f := range s.Fields {
		norm := normalize.Label(normalize.TrimTrailingPunct(f.Label))
		rf := model.ResolvedField{Field: f, NormalizedLabel: norm}
		if key != "" {
			fieldKey, match := r.tax.MatchLabel(key, norm)
			if match != model.MatchNone {
				rf.SectionKey = key
				rf.FieldKey = fieldKey
				rf.Match = match
			}
		}
		if !rf.Resolved() {
			if rs.Unmapped == nil {
				rs.Unmapped = make(map[string][]model.Field)
			}
			rs.Unmapped[norm] = append(rs.Unmapped[norm], f)
		}
		rs.Fields = append(rs.Fields, rf)
	}

	if key == "" && len(s.Fields) > 0 {
		zap.L().Debug("taxonomy: unresolved section",
			zap.String("title", s.Title),
			zap.Int("row", s.Row),
			zap.Int("fields", len(s.Fields)),
		)
	}
	return rs
}
