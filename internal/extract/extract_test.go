package extract

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rera-cli/internal/model"
)

func fieldByLabel(t *testing.T, s model.Section, label string) model.Field {
	t.Helper()
	for _, f := range s.Fields {
		if f.Label == label {
			return f
		}
	}
	t.Fatalf("section %q has no field %q", s.Title, label)
	return model.Field{}
}

func TestSections_KeyValueTable(t *testing.T) {
	secs := Sections([]byte(`<html><body>
		<h2>Project Details</h2>
		<table><tr><td>District</td><td>Raipur</td></tr></table>
	</body></html>`))

	require.Len(t, secs, 1)
	assert.Equal(t, "Project Details", secs[0].Title)
	assert.Equal(t, []model.Field{{Label: "District", RawValue: "Raipur"}}, secs[0].Fields)
}

func TestSections_PreviewLink(t *testing.T) {
	secs := Sections([]byte(`<h3>Documents</h3>
		<table><tr>
			<td>Building Permission from local Authority</td>
			<td><a href="../Content/ProjectDocuments/BUILDING_xyz.pdf">Preview</a></td>
		</tr></table>`))

	require.Len(t, secs, 1)
	f := fieldByLabel(t, secs[0], "Building Permission from local Authority")
	assert.Equal(t, "Preview", f.RawValue)
	assert.Equal(t, []string{"../Content/ProjectDocuments/BUILDING_xyz.pdf"}, f.Links)
	assert.True(t, f.IsPreviewOnly)
}

func TestSections_PreviewHints(t *testing.T) {
	secs := Sections([]byte(`<h3>Documents</h3><table>
		<tr><td>Layout Plan</td><td><a href="javascript:void(0)" onclick="window.open('../Content/L.pdf','_blank')">View</a></td></tr>
		<tr><td>Title Deed</td><td><button data-url="/files/deed.pdf">Preview</button></td></tr>
		<tr><td>Affidavit</td><td><a href="javascript:ShowDoc(12)">Preview</a></td></tr>
		<tr><td>Photo</td><td><a href="#" onclick="openDoc(7)"><img src="pdf.png"></a></td></tr>
	</table>`))

	require.Len(t, secs, 1)
	s := secs[0]

	f := fieldByLabel(t, s, "Layout Plan")
	assert.Empty(t, f.Links)
	assert.Equal(t, "../Content/L.pdf", f.PreviewHint)
	assert.True(t, f.IsPreviewOnly)

	f = fieldByLabel(t, s, "Title Deed")
	assert.Equal(t, "/files/deed.pdf", f.PreviewHint)
	assert.True(t, f.IsPreviewOnly)

	f = fieldByLabel(t, s, "Affidavit")
	assert.Empty(t, f.Links)
	assert.Equal(t, "javascript:ShowDoc(12)", f.PreviewHint)

	f = fieldByLabel(t, s, "Photo")
	assert.Empty(t, f.RawValue)
	assert.True(t, f.IsPreviewOnly)
	assert.Equal(t, "javascript:openDoc(7)", f.PreviewHint)
}

func TestSections_GridTable(t *testing.T) {
	secs := Sections([]byte(`<h3>Building Details</h3>
	<table>
		<thead><tr><th>S.No</th><th>Building Name</th><th>Floors</th><th>Units</th></tr></thead>
		<tbody>
			<tr><td>1</td><td>Tower A</td><td>12</td><td>48</td></tr>
			<tr><td>2</td><td>Tower B</td><td>14</td><td></td></tr>
		</tbody>
	</table>`))

	require.Len(t, secs, 2)
	assert.Equal(t, model.Section{Title: "Building Details", Row: 1, Fields: []model.Field{
		{Label: "Building Name", RawValue: "Tower A"},
		{Label: "Floors", RawValue: "12"},
		{Label: "Units", RawValue: "48"},
	}}, secs[0])
	assert.Equal(t, 2, secs[1].Row)
	assert.Len(t, secs[1].Fields, 2, "empty cells carry no field")
}

func TestSections_InlineLayouts(t *testing.T) {
	secs := Sections([]byte(`
	<div class="panel-heading">Promoter Details</div>
	<div class="row">
		<div class="col"><label>Promoter Name</label></div>
		<div class="col"><span>Shree Developers</span></div>
	</div>
	<p><b>PAN:</b> AAACS1234F<br><strong>Email</strong> info@shree.in<br>Mobile: 9876543210</p>
	<ul><li>Website: <a href="http://shree.in">shree.in</a></li></ul>
	<p>Some loose sentence without a label.</p>
	`))

	require.Len(t, secs, 1)
	s := secs[0]
	assert.Equal(t, "Promoter Details", s.Title)
	assert.Equal(t, "Shree Developers", fieldByLabel(t, s, "Promoter Name").RawValue)
	assert.Equal(t, "AAACS1234F", fieldByLabel(t, s, "PAN").RawValue)
	assert.Equal(t, "info@shree.in", fieldByLabel(t, s, "Email").RawValue)
	assert.Equal(t, "9876543210", fieldByLabel(t, s, "Mobile").RawValue)

	web := fieldByLabel(t, s, "Website")
	assert.Equal(t, "shree.in", web.RawValue)
	assert.Equal(t, []string{"http://shree.in"}, web.Links)
	assert.False(t, web.IsPreviewOnly)
	assert.Len(t, s.Fields, 5)
}

func TestSections_HeadingVariants(t *testing.T) {
	secs := Sections([]byte(`
	<fieldset><legend>Land Details</legend>
		<dl><dt>Khasra No.</dt><dd>123/4</dd></dl>
	</fieldset>
	<p><strong>Bank Details</strong></p>
	<table><caption>Bank Account</caption><tr><td>IFSC</td><td>SBIN0001</td></tr></table>
	<table>
		<tr><td colspan="2">Quarterly Progress</td></tr>
		<tr><td>Quarter</td><td>Q1</td></tr>
	</table>`))

	require.Len(t, secs, 3)
	assert.Equal(t, "Land Details", secs[0].Title)
	assert.Equal(t, []model.Field{{Label: "Khasra No", RawValue: "123/4"}}, secs[0].Fields)
	assert.Equal(t, "Bank Account", secs[1].Title)
	assert.Equal(t, "Quarterly Progress", secs[2].Title)
}

func TestSections_FormControlsAndSeparators(t *testing.T) {
	secs := Sections([]byte(`<h3>Project Details</h3><table>
		<tr><td>Project Name</td><td>:</td><td><input type="text" value="Green Valley"></td></tr>
		<tr><td>Project Type</td><td><select><option>--Select--</option><option selected>Residential</option></select></td></tr>
		<tr><td>Description</td><td><textarea>Two towers</textarea></td></tr>
		<tr><td>1.</td><td>Tehsil</td><td>Abhanpur</td></tr>
		<tr><td>Hidden</td><td><input type="hidden" value="x"></td></tr>
	</table>`))

	require.Len(t, secs, 1)
	s := secs[0]
	assert.Equal(t, "Green Valley", fieldByLabel(t, s, "Project Name").RawValue)
	assert.Equal(t, "Residential", fieldByLabel(t, s, "Project Type").RawValue)
	assert.Equal(t, "Two towers", fieldByLabel(t, s, "Description").RawValue)
	assert.Equal(t, "Abhanpur", fieldByLabel(t, s, "Tehsil").RawValue)
	assert.Len(t, s.Fields, 4, "empty hidden input yields no field")
}

func TestSections_NestedTable(t *testing.T) {
	secs := Sections([]byte(`<table>
		<tr><td><h4>Land Details</h4><table><tr><td>Land Area</td><td>500</td></tr></table></td></tr>
	</table>`))

	require.Len(t, secs, 1)
	assert.Equal(t, "Land Details", secs[0].Title)
	assert.Equal(t, "500", fieldByLabel(t, secs[0], "Land Area").RawValue)
}

func TestSections_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"<<<>>>",
		"<table><tr><td>District<td>Raipur",
		"<div><p>Label: <b>unclosed",
		"<h3>Only heading</h3>",
		string([]byte{0xff, 0xfe, 0x00}),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Sections([]byte(in)) }, in)
	}

	secs := Sections([]byte("<table><tr><td>District<td>Raipur"))
	require.Len(t, secs, 1)
	assert.Equal(t, "Raipur", fieldByLabel(t, secs[0], "District").RawValue)
}

func TestSections_Fixture(t *testing.T) {
	body, err := os.ReadFile("../testdata/project_detail.html")
	require.NoError(t, err)

	secs := Sections(body)
	titles := make([]string, len(secs))
	for i, s := range secs {
		titles[i] = s.Title
	}
	assert.Equal(t, []string{
		"Project Details",
		"Promoter Details",
		"Land Details",
		"Building Details",
		"Building Details",
		"Bank Account Details",
		"Uploaded Documents",
	}, titles)

	assert.Len(t, secs[0].Fields, 14)
	brochure := fieldByLabel(t, secs[0], "Project Brochure")
	assert.True(t, brochure.IsPreviewOnly)
	assert.Equal(t, "../Content/Brochures/GV_brochure.pdf", brochure.PreviewHint)

	assert.Equal(t, "info[at]shreedev[dot]in", fieldByLabel(t, secs[1], "Email").RawValue)
	assert.Equal(t, 2, secs[4].Row)
	assert.Equal(t, "G+14", fieldByLabel(t, secs[4], "Number of Floors").RawValue)
	assert.Len(t, secs[6].Fields, 5)

	// Determinism: a second pass yields an identical result.
	assert.Equal(t, secs, Sections(body))
}
