package typer

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// actionLabels are visible texts that stand for a client-side action rather
// than literal content. Keys are normalized labels.
var actionLabels = map[string]bool{
	"preview":            true,
	"view":               true,
	"download":           true,
	"click here":         true,
	"click to view":      true,
	"click here to view": true,
	"view document":      true,
	"view file":          true,
	"view pdf":           true,
	"view details":       true,
	"view certificate":   true,
	"download pdf":       true,
	"download file":      true,
	"view download":      true,
	"preview download":   true,
	"show":               true,
	"open":               true,
}

// IsActionLabel reports whether the visible text is a generic action
// affordance ("Preview", "View", "Download", "Click here") rather than
// content.
func IsActionLabel(s string) bool {
	return actionLabels[normalize.Label(s)]
}

var pseudoURLRe = regexp.MustCompile(`(?i)^\s*(?:javascript:|#|void\s*\(|about:blank)`)

// IsPseudoURL reports whether s is a client-side pseudo-URL that names no
// document: empty, a bare fragment, a javascript: handler, or about:blank.
func IsPseudoURL(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || pseudoURLRe.MatchString(s)
}

// documentExtRe recognizes bare file references like "Content/a.pdf".
var documentExtRe = regexp.MustCompile(`(?i)\.(?:pdf|jpe?g|png|gif|tiff?|docx?|xlsx?|dwg|zip|kml)(?:[?#].*)?$`)

// ParseURL accepts absolute http(s)/ftp URLs, root- or dot-relative paths and
// bare file references with a known document extension. The value is
// returned trimmed but otherwise verbatim so relative targets survive.
func ParseURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", typeErr(model.TypeURL, raw, ErrEmpty)
	}
	if IsPseudoURL(s) || IsActionLabel(s) || (strings.ContainsAny(s, " \t\n") && !documentExtRe.MatchString(s)) {
		return "", typeErr(model.TypeURL, raw, ErrInvalidURL)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", typeErr(model.TypeURL, raw, ErrInvalidURL)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ftp":
		if u.Host == "" {
			return "", typeErr(model.TypeURL, raw, ErrInvalidURL)
		}
		return s, nil
	case "":
	default:
		return "", typeErr(model.TypeURL, raw, ErrInvalidURL)
	}

	switch {
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "./"), strings.HasPrefix(s, "../"), strings.HasPrefix(s, "~/"):
		return s, nil
	case strings.HasPrefix(strings.ToLower(s), "www."):
		return s, nil
	case documentExtRe.MatchString(s):
		return s, nil
	}
	return "", typeErr(model.TypeURL, raw, ErrInvalidURL)
}

// ResolveURL resolves ref against base. It returns "" when base is empty or
// either side fails to parse. "~/" application-root paths resolve against
// the host root.
func ResolveURL(base, ref string) string {
	if base == "" || ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" {
		return ""
	}
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "~/") {
		ref = ref[1:]
	}
	if strings.HasPrefix(strings.ToLower(ref), "www.") {
		ref = b.Scheme + "://" + ref
	}
	r, err := url.Parse(strings.ReplaceAll(ref, " ", "%20"))
	if err != nil {
		return ""
	}
	return b.ResolveReference(r).String()
}
