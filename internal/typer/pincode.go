package typer

import (
	"regexp"

	"github.com/sells-group/rera-cli/internal/model"
)

// PincodeLength is the length of an Indian postal index number.
const PincodeLength = 6

// pincodeRe matches a six-digit run that is not part of a longer number.
// PINs never start with 0.
var pincodeRe = regexp.MustCompile(`(?:^|\D)([1-9]\d{5})(?:\D|$)`)

// ExtractPincode returns the first six-digit postal code found in free text
// such as an address line.
func ExtractPincode(raw string) (string, error) {
	if raw == "" {
		return "", typeErr(model.TypePincode, raw, ErrEmpty)
	}
	m := pincodeRe.FindStringSubmatch(raw)
	if m == nil {
		return "", typeErr(model.TypePincode, raw, ErrNoPincode)
	}
	return m[1], nil
}
