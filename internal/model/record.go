package model

import (
	"encoding/json"
	"sort"

	"github.com/rotisserie/eris"
)

// Logical section keys with a dedicated slot in ProjectRecord. Any other
// section key declared by the taxonomy lands in ProjectRecord.Extra.
const (
	SectionProject         = "project"
	SectionPromoter        = "promoter"
	SectionLand            = "land"
	SectionBuilding        = "building"
	SectionUnitType        = "unit_type"
	SectionBankAccount     = "bank_account"
	SectionDocument        = "document"
	SectionQuarterlyUpdate = "quarterly_update"
)

// singletonSections are merged into one entity; every other known section
// is a collection.
var singletonSections = map[string]bool{
	SectionProject: true,
	SectionLand:    true,
}

// IsSingletonSection reports whether the section key has a single-entity slot.
func IsSingletonSection(key string) bool {
	return singletonSections[key]
}

// IsKnownSection reports whether the section key has a dedicated slot.
func IsKnownSection(key string) bool {
	switch key {
	case SectionProject, SectionPromoter, SectionLand, SectionBuilding,
		SectionUnitType, SectionBankAccount, SectionDocument, SectionQuarterlyUpdate:
		return true
	}
	return false
}

// OverflowReason explains why a raw value sits in the overflow slot.
type OverflowReason string

const (
	// OverflowUntyped marks a value that failed its Value Typer.
	OverflowUntyped OverflowReason = "untyped"
	// OverflowDuplicate marks a differing value from a later occurrence of a
	// singleton field that lost to the first one.
	OverflowDuplicate OverflowReason = "duplicate"
)

// OverflowValue is a raw string kept instead of a typed leaf.
type OverflowValue struct {
	Raw    string         `json:"raw"`
	Label  string         `json:"label,omitempty"`
	Reason OverflowReason `json:"reason"`
	Error  string         `json:"error,omitempty"`
}

// OverflowKey is the JSON key of an entity's overflow slot.
const OverflowKey = "_raw_overflow"

// Entity is one instance of a logical section: typed leaves keyed by field
// key, plus raw overflow for values that could not be typed.
type Entity struct {
	Fields   map[string]Value
	Overflow map[string][]OverflowValue
}

// NewEntity returns an empty entity ready for writes.
func NewEntity() Entity {
	return Entity{
		Fields:   make(map[string]Value),
		Overflow: make(map[string][]OverflowValue),
	}
}

// IsEmpty reports whether the entity carries neither typed nor raw values.
func (e Entity) IsEmpty() bool {
	return len(e.Fields) == 0 && len(e.Overflow) == 0
}

// Has reports whether the field key already holds a typed value or overflow.
func (e Entity) Has(key string) bool {
	if _, ok := e.Fields[key]; ok {
		return true
	}
	return len(e.Overflow[key]) > 0
}

// Get returns the typed value for key.
func (e Entity) Get(key string) (Value, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// Lookup returns the canonical text for key: the typed value's rendering, or
// the first untyped overflow value. Duplicate overflow never answers a lookup.
func (e Entity) Lookup(key string) (string, bool) {
	if v, ok := e.Fields[key]; ok {
		return v.String(), true
	}
	for _, o := range e.Overflow[key] {
		if o.Reason == OverflowUntyped {
			return o.Raw, true
		}
	}
	return "", false
}

// Set stores a typed value.
func (e *Entity) Set(key string, v Value) {
	if e.Fields == nil {
		e.Fields = make(map[string]Value)
	}
	e.Fields[key] = v
}

// AddOverflow appends a raw value to the overflow slot for key.
func (e *Entity) AddOverflow(key string, o OverflowValue) {
	if e.Overflow == nil {
		e.Overflow = make(map[string][]OverflowValue)
	}
	e.Overflow[key] = append(e.Overflow[key], o)
}

// Keys returns every field key with a typed value or overflow, sorted.
func (e Entity) Keys() []string {
	seen := make(map[string]bool, len(e.Fields)+len(e.Overflow))
	for k := range e.Fields {
		seen[k] = true
	}
	for k := range e.Overflow {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON flattens typed leaves into one object and nests overflow
// under OverflowKey.
func (e Entity) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	if len(e.Overflow) > 0 {
		out[OverflowKey] = e.Overflow
	}
	return json.Marshal(out)
}

// UnmarshalJSON reverses MarshalJSON.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode entity")
	}
	*e = NewEntity()
	for k, msg := range raw {
		if k == OverflowKey {
			if err := json.Unmarshal(msg, &e.Overflow); err != nil {
				return eris.Wrap(err, "model: decode overflow")
			}
			continue
		}
		var v Value
		if err := json.Unmarshal(msg, &v); err != nil {
			return eris.Wrapf(err, "model: decode field %s", k)
		}
		e.Fields[k] = v
	}
	return nil
}

// UnmappedBucket holds the unresolved fields of one source section, keyed by
// normalized label.
type UnmappedBucket struct {
	SectionTitle string             `json:"section_title"`
	SectionKey   string             `json:"section_key,omitempty"`
	Row          int                `json:"row,omitempty"`
	Labels       map[string][]Field `json:"labels"`
}

// ProjectRecord is the canonical, typed project record. Its JSON shape is
// consumed by the persistence and presentation layers and must stay stable.
type ProjectRecord struct {
	TaxonomyVersion  string              `json:"taxonomy_version"`
	ProjectKey       string              `json:"project_key"`
	SourceURL        string              `json:"source_url,omitempty"`
	Project          Entity              `json:"project"`
	Promoters        []Entity            `json:"promoters"`
	Land             Entity              `json:"land"`
	Buildings        []Entity            `json:"buildings"`
	UnitTypes        []Entity            `json:"unit_types"`
	BankAccounts     []Entity            `json:"bank_accounts"`
	Documents        []DocumentArtifact  `json:"documents"`
	QuarterlyUpdates []Entity            `json:"quarterly_updates"`
	Extra            map[string][]Entity `json:"extra,omitempty"`
	Unmapped         []UnmappedBucket    `json:"unmapped,omitempty"`
}

// NewProjectRecord returns a record with every slot initialized so the JSON
// shape is identical for sparse and full documents.
func NewProjectRecord(taxonomyVersion string) *ProjectRecord {
	return &ProjectRecord{
		TaxonomyVersion:  taxonomyVersion,
		Project:          NewEntity(),
		Promoters:        []Entity{},
		Land:             NewEntity(),
		Buildings:        []Entity{},
		UnitTypes:        []Entity{},
		BankAccounts:     []Entity{},
		Documents:        []DocumentArtifact{},
		QuarterlyUpdates: []Entity{},
	}
}

// Singleton returns the entity slot for a singleton section key, or nil.
func (r *ProjectRecord) Singleton(sectionKey string) *Entity {
	switch sectionKey {
	case SectionProject:
		return &r.Project
	case SectionLand:
		return &r.Land
	}
	return nil
}

// Entities returns the instances held for a section key in source order.
// A singleton section yields at most one entity.
func (r *ProjectRecord) Entities(sectionKey string) []Entity {
	if e := r.Singleton(sectionKey); e != nil {
		if e.IsEmpty() {
			return nil
		}
		return []Entity{*e}
	}
	switch sectionKey {
	case SectionPromoter:
		return r.Promoters
	case SectionBuilding:
		return r.Buildings
	case SectionUnitType:
		return r.UnitTypes
	case SectionBankAccount:
		return r.BankAccounts
	case SectionQuarterlyUpdate:
		return r.QuarterlyUpdates
	case SectionDocument:
		return nil
	}
	return r.Extra[sectionKey]
}

// AppendEntity adds an entity to the collection slot for sectionKey.
func (r *ProjectRecord) AppendEntity(sectionKey string, e Entity) {
	switch sectionKey {
	case SectionPromoter:
		r.Promoters = append(r.Promoters, e)
	case SectionBuilding:
		r.Buildings = append(r.Buildings, e)
	case SectionUnitType:
		r.UnitTypes = append(r.UnitTypes, e)
	case SectionBankAccount:
		r.BankAccounts = append(r.BankAccounts, e)
	case SectionQuarterlyUpdate:
		r.QuarterlyUpdates = append(r.QuarterlyUpdates, e)
	default:
		if r.Extra == nil {
			r.Extra = make(map[string][]Entity)
		}
		r.Extra[sectionKey] = append(r.Extra[sectionKey], e)
	}
}
