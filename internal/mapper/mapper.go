// Package mapper builds the canonical ProjectRecord from resolved sections:
// it types each assigned field, merges singleton sections, collects
// repeated ones and lifts document references into artifacts.
package mapper

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
	"github.com/sells-group/rera-cli/internal/taxonomy"
	"github.com/sells-group/rera-cli/internal/typer"
)

// errNoURL is recorded on URL slots whose priority chain found nothing.
var errNoURL = errors.New("no usable url")

// Mapper maps resolved sections onto a ProjectRecord. It is stateless
// between calls.
type Mapper struct {
	tax *taxonomy.Taxonomy
}

// New creates a Mapper over tax.
func New(tax *taxonomy.Taxonomy) *Mapper {
	return &Mapper{tax: tax}
}

// Map builds the record for one source document. Every extracted field ends
// up in a typed slot, an overflow slot, a document artifact or an unmapped
// bucket.
func (m *Mapper) Map(sections []model.ResolvedSection, doc model.SourceDocument) *model.ProjectRecord {
	rec := model.NewProjectRecord(m.tax.Version())
	rec.SourceURL = doc.URL

	for _, s := range sections {
		m.section(rec, s, doc.URL)
	}
	rec.ProjectKey = ProjectKey(rec, doc)

	zap.L().Debug("mapper: record built",
		zap.String("project_key", rec.ProjectKey),
		zap.Int("promoters", len(rec.Promoters)),
		zap.Int("buildings", len(rec.Buildings)),
		zap.Int("documents", len(rec.Documents)),
		zap.Int("unmapped_buckets", len(rec.Unmapped)),
	)
	return rec
}

func (m *Mapper) section(rec *model.ProjectRecord, s model.ResolvedSection, base string) {
	key := s.SectionKey
	if len(s.Unmapped) > 0 {
		rec.Unmapped = append(rec.Unmapped, model.UnmappedBucket{
			SectionTitle: s.Title,
			SectionKey:   key,
			Row:          s.Row,
			Labels:       s.Unmapped,
		})
	}

	var target *model.Entity
	var instance model.Entity
	switch {
	case key == "" || key == model.SectionDocument:
	case m.tax.Repeated(key):
		instance = model.NewEntity()
		target = &instance
	default:
		target = singletonSlot(rec, key)
	}

	for _, f := range s.Fields {
		if !f.Resolved() {
			if f.IsPreviewOnly {
				rec.Documents = append(rec.Documents, artifact(f, key, normalize.Slug(f.Label), true, base))
			}
			continue
		}

		fd, _ := m.tax.Field(key, f.FieldKey)
		switch {
		case key == model.SectionDocument:
			rec.Documents = append(rec.Documents, artifact(f, key, f.FieldKey, false, base))
		case fd.Type == model.TypeURL:
			u, tier := ChooseURL(f.Field)
			switch tier {
			case model.TierUnavailable:
				assign(target, f, model.Value{}, errNoURL)
			case model.TierVisible:
				v, err := typer.Apply(typer.Spec{Type: model.TypeURL}, u)
				assign(target, f, v, err)
			default:
				assign(target, f, model.TextValue(model.TypeURL, u), nil)
			}
		case f.IsPreviewOnly:
			rec.Documents = append(rec.Documents, artifact(f, key, f.FieldKey, false, base))
		default:
			v, err := typer.Apply(typer.Spec{Type: fd.Type, EnumValues: fd.Values}, f.RawValue)
			assign(target, f, v, err)
		}
	}

	if target == &instance {
		rec.AppendEntity(key, instance)
	}
}

// singletonSlot returns the merge target of a non-repeated section.
// Sections without a dedicated slot keep one entity under Extra.
func singletonSlot(rec *model.ProjectRecord, key string) *model.Entity {
	if e := rec.Singleton(key); e != nil {
		return e
	}
	if len(rec.Extra[key]) == 0 {
		rec.AppendEntity(key, model.NewEntity())
	}
	return &rec.Extra[key][0]
}

// assign stores a field into e, first occurrence wins. A later occurrence
// whose value differs from the stored one is kept as duplicate overflow.
func assign(e *model.Entity, f model.ResolvedField, v model.Value, typeErr error) {
	candidate := f.RawValue
	if typeErr == nil {
		candidate = v.String()
	}

	if existing, ok := e.Lookup(f.FieldKey); ok || e.Has(f.FieldKey) {
		if normalize.Value(existing) != normalize.Value(candidate) {
			e.AddOverflow(f.FieldKey, model.OverflowValue{
				Raw:    f.RawValue,
				Label:  f.Label,
				Reason: model.OverflowDuplicate,
			})
		}
		return
	}

	if typeErr == nil {
		e.Set(f.FieldKey, v)
		return
	}
	e.AddOverflow(f.FieldKey, model.OverflowValue{
		Raw:    f.RawValue,
		Label:  f.Label,
		Reason: model.OverflowUntyped,
		Error:  typeErrText(typeErr),
	})
}

func typeErrText(err error) string {
	var te *typer.TypeError
	if errors.As(err, &te) {
		return te.Err.Error()
	}
	return err.Error()
}

// artifact lifts a field into a document artifact.
func artifact(f model.ResolvedField, sectionKey, fieldKey string, unmapped bool, base string) model.DocumentArtifact {
	u, tier := ChooseURL(f.Field)
	return model.DocumentArtifact{
		FieldKey:    fieldKey,
		Label:       f.Label,
		SectionKey:  sectionKey,
		SourceURL:   u,
		ResolvedURL: resolveAgainst(base, u, tier),
		Tier:        tier,
		Category:    typer.ClassifyDocument(fieldKey, f.Label),
		IsPreview:   f.IsPreviewOnly,
		Unmapped:    unmapped,
	}
}

// ProjectKey identifies a record: the project's registration number, else
// the page URL, else a content hash of the page.
func ProjectKey(rec *model.ProjectRecord, doc model.SourceDocument) string {
	if reg, ok := rec.Project.Lookup("registration_number"); ok && normalize.Text(reg) != "" {
		return normalize.Text(reg)
	}
	if doc.URL != "" {
		return doc.URL
	}
	sum := sha1.Sum(doc.Body)
	return "sha1:" + hex.EncodeToString(sum[:])
}
