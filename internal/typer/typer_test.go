package typer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rera-cli/internal/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"15/01/2023", "2023-01-15"},
		{"15-01-2023", "2023-01-15"},
		{"15.01.2023", "2023-01-15"},
		{"5/1/2023", "2023-01-05"},
		{"15/01/23", "2023-01-15"},
		{"01/02/99", "1999-02-01"},
		{"2023-01-15", "2023-01-15"},
		{"15-Jan-2023", "2023-01-15"},
		{"15 January 2023", "2023-01-15"},
		{"15th Jan, 2023", "2023-01-15"},
		{"Jan 15, 2023", "2023-01-15"},
		{"15/01/2023 10:30:00 AM", "2023-01-15"},
		{"2023-01-15T10:30:00", "2023-01-15"},
		{"  29/02/2024 ", "2024-02-29"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(model.DateLayout))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDate_DayFirstPrecedence(t *testing.T) {
	// 03/04 is ambiguous; day-first reads it as 3 April.
	got, err := ParseDate("03/04/2022")
	require.NoError(t, err)
	assert.Equal(t, time.April, got.Month())
	assert.Equal(t, 3, got.Day())
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "NA", "31/02/2023", "29/02/2023", "15/13/2023", "15/01/202", "2023", "sometime in 2023", "123/01/2023"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			require.Error(t, err)
			var te *TypeError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, model.TypeDate, te.Type)
			assert.Equal(t, in, te.Raw)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1500000", "1500000"},
		{"15,00,000", "1500000"},
		{"1,500,000.50", "1500000.5"},
		{"Rs. 1,50,000/-", "150000"},
		{"₹ 2.5 Crore", "25000000"},
		{"1.5 crores", "15000000"},
		{"25 Lakhs", "2500000"},
		{"25 lac", "2500000"},
		{"INR 10 lakh only", "1000000"},
		{"3 cr.", "30000000"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "NA", "lakh", "12 apples", "1.2.3"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseAmount(in)
			require.Error(t, err)
		})
	}
}

func TestParseDecimal(t *testing.T) {
	got, err := ParseDecimal("1,234.56 Sq.Mtr.")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", got.String())

	got, err = ParseDecimal("12.5 %")
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.String())

	_, err = ParseDecimal("approx twelve")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestParseInteger(t *testing.T) {
	got, err := ParseInteger("12 Floors")
	require.NoError(t, err)
	assert.Equal(t, "12", got.String())

	got, err = ParseInteger("1,024")
	require.NoError(t, err)
	assert.Equal(t, "1024", got.String())

	got, err = ParseInteger("7.00")
	require.NoError(t, err)
	assert.Equal(t, "7", got.String())

	_, err = ParseInteger("G+12")
	assert.ErrorIs(t, err, ErrInvalidInteger)
}

func TestExtractPincode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Village Tuta, Raipur, Chhattisgarh - 492001", "492001"},
		{"492015", "492015"},
		{"Pin:493661, Ph 0771-2345678", "493661"},
		{"Plot 12, Sector 4, 492001 and 492002", "492001"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExtractPincode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPincode_NotFound(t *testing.T) {
	for _, in := range []string{"", "Raipur", "Phone 9876543210", "012345", "12345"} {
		t.Run(in, func(t *testing.T) {
			_, err := ExtractPincode(in)
			require.Error(t, err)
		})
	}
}

func TestParseURL(t *testing.T) {
	valid := []string{
		"https://rera.cgstate.gov.in/Content/a.pdf",
		"/docs/a.pdf",
		"../Content/ProjectDocuments/BUILDING_xyz.pdf",
		"./files/b.jpg",
		"~/Uploads/c.pdf",
		"www.example.com",
		"Content/Uploads/My Plan.pdf",
	}
	for _, in := range valid {
		t.Run(in, func(t *testing.T) {
			got, err := ParseURL("  " + in + " ")
			require.NoError(t, err)
			assert.Equal(t, in, got)
		})
	}

	invalid := []string{"", "Preview", "View", "javascript:void(0)", "#", "not a url", "mailto:x@y.com", "http://"}
	for _, in := range invalid {
		t.Run("invalid "+in, func(t *testing.T) {
			_, err := ParseURL(in)
			require.Error(t, err)
		})
	}
}

func TestIsActionLabel(t *testing.T) {
	for _, s := range []string{"Preview", " VIEW ", "Download", "Click Here", "View / Download", "view document"} {
		assert.True(t, IsActionLabel(s), s)
	}
	for _, s := range []string{"Raipur", "Preview of plan.pdf", ""} {
		assert.False(t, IsActionLabel(s), s)
	}
}

func TestIsPseudoURL(t *testing.T) {
	assert.True(t, IsPseudoURL("javascript:ShowPreview('a.pdf')"))
	assert.True(t, IsPseudoURL("#"))
	assert.True(t, IsPseudoURL("#top"))
	assert.True(t, IsPseudoURL(""))
	assert.True(t, IsPseudoURL("void(0)"))
	assert.False(t, IsPseudoURL("../a.pdf"))
}

func TestResolveURL(t *testing.T) {
	base := "https://rera.cgstate.gov.in/Promoter/ProjectDetails.aspx?id=1"
	assert.Equal(t, "https://rera.cgstate.gov.in/Content/a.pdf", ResolveURL(base, "../Content/a.pdf"))
	assert.Equal(t, "https://rera.cgstate.gov.in/Uploads/b.pdf", ResolveURL(base, "~/Uploads/b.pdf"))
	assert.Equal(t, "https://cdn.example.com/x.pdf", ResolveURL(base, "https://cdn.example.com/x.pdf"))
	assert.Equal(t, "", ResolveURL("", "../a.pdf"))
	assert.Equal(t, "", ResolveURL(base, ""))
}

func TestParseEmail(t *testing.T) {
	got, err := ParseEmail("Info@Builder.COM")
	require.NoError(t, err)
	assert.Equal(t, "info@builder.com", got)

	got, err = ParseEmail("sales[at]builder[dot]in")
	require.NoError(t, err)
	assert.Equal(t, "sales@builder.in", got)

	_, err = ParseEmail("not an email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestParseEnum(t *testing.T) {
	allowed := []string{"new", "ongoing", "completed"}

	got, err := ParseEnum("Ongoing", allowed)
	require.NoError(t, err)
	assert.Equal(t, "ongoing", got)

	got, err = ParseEnum("Ongoing Project", allowed)
	require.NoError(t, err)
	assert.Equal(t, "ongoing", got)

	_, err = ParseEnum("Stalled", allowed)
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestClassifyDocument(t *testing.T) {
	tests := []struct {
		key, label string
		want       model.DocumentCategory
	}{
		{"building_permission", "Building Permission from local Authority", model.CategoryApproval},
		{"", "Layout Plan Approval", model.CategoryApproval},
		{"title_deed", "Copy of Title Deed", model.CategoryLegal},
		{"khasra", "Khasra / B1 / P2", model.CategoryLegal},
		{"", "Sanctioned Building Plan", model.CategoryApproval},
		{"structural_design", "Structural Design", model.CategoryTechnical},
		{"", "Site Photograph", model.CategoryTechnical},
		{"", "Project Photographs", model.CategoryMedia},
		{"", "Brochure", model.CategoryMedia},
		{"misc", "Miscellaneous", model.CategoryOther},
		{"", "", model.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDocument(tt.key, tt.label))
		})
	}
}

func TestApply(t *testing.T) {
	v, err := Apply(Spec{Type: model.TypeString}, "  Raipur ")
	require.NoError(t, err)
	assert.Equal(t, "Raipur", v.String())

	v, err = Apply(Spec{Type: model.TypeDate}, "15/01/2023")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-15", v.String())

	v, err = Apply(Spec{Type: model.TypeAmount}, "1.5 Crore")
	require.NoError(t, err)
	assert.Equal(t, "15000000", v.String())

	v, err = Apply(Spec{Type: model.TypeEnum, EnumValues: []string{"residential", "commercial", "mixed"}}, "RESIDENTIAL")
	require.NoError(t, err)
	assert.Equal(t, "residential", v.String())

	_, err = Apply(Spec{Type: model.TypeDate}, "   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Apply(Spec{Type: "geo"}, "21.25,81.63")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestApply_Total(t *testing.T) {
	// Every type yields a value or a *TypeError for arbitrary input.
	inputs := []string{"", " ", "x", "15/01/2023", "₹", "../a.pdf", "492001", "@@", "\x00\xff"}
	for _, ft := range model.AllFieldTypes() {
		for _, in := range inputs {
			_, err := Apply(Spec{Type: ft, EnumValues: []string{"x"}}, in)
			if err != nil {
				var te *TypeError
				assert.True(t, errors.As(err, &te), "type %s input %q returned %T", ft, in, err)
			}
		}
	}
}

func TestApply_ErrorKeepsRawInput(t *testing.T) {
	raw := "  sometime\n   next  year "
	_, err := Apply(Spec{Type: model.TypeDate}, raw)
	var te *TypeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, raw, te.Raw)
	assert.ErrorIs(t, err, ErrInvalidDate)

	v, err := Apply(Spec{Type: model.TypeDate}, " 15/01/2023\n")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-15", v.String())
}
