package typer

import (
	"net/mail"
	"strings"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// obfuscations are the "[at]"/"[dot]" spellings some portals use to hide
// addresses from scrapers.
var obfuscations = strings.NewReplacer(
	"[at]", "@", "(at)", "@", " at ", "@",
	"[dot]", ".", "(dot)", ".", " dot ", ".",
)

// ParseEmail returns the lowercased bare address.
func ParseEmail(raw string) (string, error) {
	s := normalize.Text(raw)
	if s == "" {
		return "", typeErr(model.TypeEmail, raw, ErrEmpty)
	}
	s = obfuscations.Replace(strings.ToLower(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || !strings.Contains(addr.Address, ".") {
		return "", typeErr(model.TypeEmail, raw, ErrInvalidEmail)
	}
	return addr.Address, nil
}
