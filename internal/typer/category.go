package typer

import (
	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// categoryRule maps trigger keywords to a document category.
type categoryRule struct {
	category model.DocumentCategory
	keywords []string
}

// categoryRules is evaluated in order; the first rule with a keyword present
// wins. Approval comes first so "Layout Plan Approval" is an approval, not a
// technical drawing.
var categoryRules = []categoryRule{
	{model.CategoryApproval, []string{
		"permission", "approval", "approved", "sanction", "sanctioned", "noc", "no objection",
		"clearance", "commencement", "completion certificate", "occupancy",
		"environment", "fire", "diversion", "licence", "license", "consent",
	}},
	{model.CategoryLegal, []string{
		"title", "deed", "agreement", "registration certificate", "lease",
		"encumbrance", "affidavit", "declaration", "khasra", "b1", "p2",
		"search report", "partnership", "incorporation", "pan", "mutation",
		"legal", "collaboration", "power of attorney", "litigation",
	}},
	{model.CategoryTechnical, []string{
		"plan", "layout", "drawing", "specification", "structural", "design",
		"map", "elevation", "section", "soil", "estimate", "architect",
		"engineer", "technical", "site", "floor",
	}},
	{model.CategoryMedia, []string{
		"photo", "photos", "photograph", "photographs", "image", "images",
		"picture", "pictures", "video", "videos", "brochure", "gallery",
		"advertisement", "prospectus",
	}},
}

// ClassifyDocument assigns a document category from the field key and the
// visible label. It never fails: anything unrecognized is CategoryOther.
func ClassifyDocument(fieldKey, label string) model.DocumentCategory {
	text := normalize.Label(fieldKey + " " + label)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if normalize.ContainsPhrase(text, kw) {
				return checkedCategory(rule.category)
			}
		}
	}
	return model.CategoryOther
}

// checkedCategory passes through known categories and folds anything else
// into CategoryOther.
func checkedCategory(c model.DocumentCategory) model.DocumentCategory {
	switch c {
	case model.CategoryLegal, model.CategoryTechnical, model.CategoryApproval, model.CategoryMedia:
		return c
	case model.CategoryOther:
		return model.CategoryOther
	default:
		return model.CategoryOther
	}
}
