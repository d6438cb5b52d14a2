package mapper

import (
	"strings"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/typer"
)

// ChooseURL applies the URL priority chain to a field: the first real link,
// then a preview hint that is not a pseudo-URL, then the visible value when
// it is not an action label. Nothing usable yields URLUnavailable.
func ChooseURL(f model.Field) (string, model.URLTier) {
	for _, l := range f.Links {
		if l = strings.TrimSpace(l); !typer.IsPseudoURL(l) {
			return l, model.TierLink
		}
	}
	if h := strings.TrimSpace(f.PreviewHint); h != "" && !typer.IsPseudoURL(h) {
		return h, model.TierPreviewHint
	}
	if v := strings.TrimSpace(f.RawValue); v != "" && !typer.IsActionLabel(v) {
		return v, model.TierVisible
	}
	return model.URLUnavailable, model.TierUnavailable
}

// resolveAgainst returns the absolute form of a chosen URL when the page
// address is known. Visible-tier text only resolves when it looks like a URL.
func resolveAgainst(base, u string, tier model.URLTier) string {
	switch tier {
	case model.TierLink, model.TierPreviewHint:
		return typer.ResolveURL(base, u)
	case model.TierVisible:
		if _, err := typer.ParseURL(u); err == nil {
			return typer.ResolveURL(base, u)
		}
	}
	return ""
}
