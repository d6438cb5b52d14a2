package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	assert.Equal(t, "2023-01-15", DateValue(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)).String())
	assert.Equal(t, "125000000", NumberValue(TypeAmount, decimal.RequireFromString("12.5e7")).String())
	assert.Equal(t, "Raipur", TextValue(TypeString, "Raipur").String())
	assert.Equal(t, "raw", Value{Type: TypeDate, Text: "raw"}.String())
}

func TestValue_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(NumberValue(TypeDecimal, decimal.RequireFromString("1234.50")))
	require.NoError(t, err)
	assert.Equal(t, "1234.5", string(b))

	b, err = json.Marshal(DateValue(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, `"2023-01-15"`, string(b))

	var v Value
	require.NoError(t, json.Unmarshal([]byte("42"), &v))
	assert.True(t, v.Type.Numeric())
	assert.Equal(t, "42", v.String())

	require.NoError(t, json.Unmarshal([]byte("null"), &v))
	assert.Equal(t, Value{}, v)

	assert.Error(t, json.Unmarshal([]byte("tru"), &v))
}

func TestFieldType_Valid(t *testing.T) {
	for _, ft := range AllFieldTypes() {
		assert.True(t, ft.Valid(), ft)
	}
	assert.False(t, FieldType("money").Valid())
	assert.True(t, TypeInteger.Numeric())
	assert.False(t, TypePincode.Numeric())
}

func TestEntity_LookupPrefersTyped(t *testing.T) {
	e := NewEntity()
	assert.True(t, e.IsEmpty())

	e.AddOverflow("total_cost", OverflowValue{Raw: "abc", Reason: OverflowUntyped})
	got, ok := e.Lookup("total_cost")
	require.True(t, ok)
	assert.Equal(t, "abc", got)

	e.AddOverflow("district", OverflowValue{Raw: "Durg", Reason: OverflowDuplicate})
	_, ok = e.Lookup("district")
	assert.False(t, ok, "duplicate overflow never answers a lookup")

	e.Set("district", TextValue(TypeString, "Raipur"))
	got, _ = e.Lookup("district")
	assert.Equal(t, "Raipur", got)
	assert.True(t, e.Has("total_cost"))
	assert.Equal(t, []string{"district", "total_cost"}, e.Keys())
}

func TestEntity_JSONShape(t *testing.T) {
	e := NewEntity()
	e.Set("district", TextValue(TypeString, "Raipur"))
	e.AddOverflow("start_date", OverflowValue{Raw: "soon", Reason: OverflowUntyped, Error: "invalid date"})

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"district":"Raipur","_raw_overflow":{"start_date":[{"raw":"soon","reason":"untyped","error":"invalid date"}]}}`, string(b))

	var back Entity
	require.NoError(t, json.Unmarshal(b, &back))
	got, _ := back.Lookup("district")
	assert.Equal(t, "Raipur", got)
	got, _ = back.Lookup("start_date")
	assert.Equal(t, "soon", got)
}

func TestProjectRecord_EmptyShape(t *testing.T) {
	b, err := json.Marshal(NewProjectRecord("2024.06"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"taxonomy_version": "2024.06",
		"project_key": "",
		"project": {},
		"promoters": [],
		"land": {},
		"buildings": [],
		"unit_types": [],
		"bank_accounts": [],
		"documents": [],
		"quarterly_updates": []
	}`, string(b))
}

func TestProjectRecord_Slots(t *testing.T) {
	r := NewProjectRecord("v")
	assert.Nil(t, r.Entities(SectionProject), "empty singleton yields nothing")

	r.Project.Set("district", TextValue(TypeString, "Raipur"))
	assert.Len(t, r.Entities(SectionProject), 1)

	r.AppendEntity(SectionBuilding, NewEntity())
	r.AppendEntity(SectionBuilding, NewEntity())
	r.AppendEntity("professional", NewEntity())
	assert.Len(t, r.Entities(SectionBuilding), 2)
	assert.Len(t, r.Entities("professional"), 1)
	assert.Len(t, r.Extra["professional"], 1)
	assert.Nil(t, r.Singleton(SectionBuilding))
	assert.Nil(t, r.Entities(SectionDocument))
}

func TestSectionKinds(t *testing.T) {
	assert.True(t, IsSingletonSection(SectionLand))
	assert.False(t, IsSingletonSection(SectionPromoter))
	assert.True(t, IsKnownSection(SectionQuarterlyUpdate))
	assert.False(t, IsKnownSection("professional"))
}

func TestStatusCounts(t *testing.T) {
	var c StatusCounts
	for _, s := range AllComparisonStatuses() {
		c.Add(s)
	}
	c.Add(StatusMismatch)
	c.Add("bogus")
	assert.Equal(t, 6, c.Total())

	c.Merge(StatusCounts{Match: 2, Unverifiable: 1})
	assert.Equal(t, StatusCounts{Match: 3, Mismatch: 2, MissingInSource: 1, MissingInCanonical: 1, Unverifiable: 2}, c)
}

func TestReconciliationReport(t *testing.T) {
	r := ReconciliationReport{Comparisons: []FieldComparison{
		{FieldPath: "project.district", Status: StatusMatch},
		{FieldPath: "project.tehsil", Status: StatusMismatch},
		{FieldPath: "land.area", Status: StatusMatch},
	}}
	for _, c := range r.Comparisons {
		r.Counts.Add(c.Status)
	}

	assert.False(t, r.Clean())
	assert.Len(t, r.Filter(StatusMatch), 2)
	assert.Equal(t, "project.tehsil", r.Filter(StatusMismatch)[0].FieldPath)
	assert.Empty(t, r.Filter(StatusUnverifiable))
}

func TestDocumentArtifact_Available(t *testing.T) {
	assert.True(t, DocumentArtifact{SourceURL: "/docs/a.pdf"}.Available())
	assert.False(t, DocumentArtifact{SourceURL: URLUnavailable}.Available())
	assert.False(t, DocumentArtifact{}.Available())
}

func TestField_HasContent(t *testing.T) {
	assert.False(t, Field{Label: "District"}.HasContent())
	assert.True(t, Field{Label: "Plan", IsPreviewOnly: true}.HasContent())
	assert.True(t, Field{Label: "Plan", Links: []string{"/a.pdf"}}.HasContent())

	s := ResolvedSection{Fields: []ResolvedField{
		{Field: Field{Label: "District"}, FieldKey: "district"},
		{Field: Field{Label: "Misc"}},
	}}
	require.Len(t, s.Assigned(), 1)
	assert.Equal(t, "district", s.Assigned()[0].FieldKey)
}
