package typer

import (
	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// ParseEnum maps raw onto one of allowed. An exact normalized match wins;
// otherwise the longest allowed value contained in raw on word boundaries
// is chosen ("Ongoing Project" → "ongoing"). The allowed spelling is
// returned.
func ParseEnum(raw string, allowed []string) (string, error) {
	label := normalize.Label(raw)
	if label == "" {
		return "", typeErr(model.TypeEnum, raw, ErrEmpty)
	}

	best := ""
	bestLen := 0
	for _, a := range allowed {
		na := normalize.Label(a)
		if na == label {
			return a, nil
		}
		if normalize.ContainsPhrase(label, na) && len(na) > bestLen {
			best, bestLen = a, len(na)
		}
	}
	if best != "" {
		return best, nil
	}
	return "", typeErr(model.TypeEnum, raw, ErrInvalidEnum)
}
