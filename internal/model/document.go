package model

// DocumentCategory is the coarse class of a document artifact.
type DocumentCategory string

const (
	CategoryLegal     DocumentCategory = "legal"
	CategoryTechnical DocumentCategory = "technical"
	CategoryApproval  DocumentCategory = "approval"
	CategoryMedia     DocumentCategory = "media"
	CategoryOther     DocumentCategory = "other"
)

// AllDocumentCategories returns all defined document categories.
func AllDocumentCategories() []DocumentCategory {
	return []DocumentCategory{
		CategoryLegal,
		CategoryTechnical,
		CategoryApproval,
		CategoryMedia,
		CategoryOther,
	}
}

// URLUnavailable is the sentinel stored when no tier of the URL priority
// chain produced a usable location.
const URLUnavailable = "unavailable"

// URLTier names the tier of the URL priority chain that produced a value.
type URLTier string

const (
	TierLink        URLTier = "link"
	TierPreviewHint URLTier = "preview_hint"
	TierVisible     URLTier = "visible"
	TierUnavailable URLTier = "unavailable"
)

// DocumentArtifact is a document reference lifted from a resolved field or
// from an unmapped preview-only field.
type DocumentArtifact struct {
	FieldKey    string           `json:"field_key"`
	Label       string           `json:"label"`
	SectionKey  string           `json:"section_key,omitempty"`
	SourceURL   string           `json:"source_url"`
	ResolvedURL string           `json:"resolved_url,omitempty"`
	Tier        URLTier          `json:"url_tier"`
	Category    DocumentCategory `json:"category"`
	IsPreview   bool             `json:"is_preview"`
	Unmapped    bool             `json:"unmapped,omitempty"`
}

// Available reports whether the artifact points at a real location.
func (d DocumentArtifact) Available() bool {
	return d.SourceURL != "" && d.SourceURL != URLUnavailable
}
