package typer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

// scaleWords maps Indian and western large-number words to their multiplier.
var scaleWords = map[string]decimal.Decimal{
	"thousand": decimal.New(1, 3),
	"lakh":     decimal.New(1, 5),
	"lakhs":    decimal.New(1, 5),
	"lac":      decimal.New(1, 5),
	"lacs":     decimal.New(1, 5),
	"million":  decimal.New(1, 6),
	"mn":       decimal.New(1, 6),
	"crore":    decimal.New(1, 7),
	"crores":   decimal.New(1, 7),
	"cr":       decimal.New(1, 7),
	"billion":  decimal.New(1, 9),
}

// currencyTokens are stripped before parsing. Order matters: longer tokens
// first so "rs." goes before "rs".
var currencyTokens = []string{
	"₹", "rupees", "rupee", "inr", "rs.", "rs", "/-", "only",
}

var (
	// number with optional scale word: "1.5 crore", "25 lakhs", "1500000"
	amountRe = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?)\s*([a-z]+)?\.?$`)
	// number followed by a unit of measure: "1234.56 sq.mtr", "12.5 %"
	decimalRe = regexp.MustCompile(`^([+-]?\d+(?:\.\d+)?)\s*([a-z%²³.\s()/]*)$`)
	// integer followed by an optional unit word: "12", "12 floors"
	integerRe = regexp.MustCompile(`^([+-]?\d+)(?:\.0+)?\s*([a-z.\s()]*)$`)
)

// ParseAmount parses a currency amount. Thousands separators (western and
// Indian grouping) and currency glyphs are stripped; a trailing "lakh",
// "crore" or similar scale word multiplies the number.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.ToLower(normalize.Text(raw))
	if s == "" {
		return decimal.Zero, typeErr(model.TypeAmount, raw, ErrEmpty)
	}
	s = stripAll(s, currencyTokens...)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, typeErr(model.TypeAmount, raw, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, typeErr(model.TypeAmount, raw, ErrInvalidAmount)
	}
	if m[2] == "" {
		return d, nil
	}
	scale, ok := scaleWords[m[2]]
	if !ok {
		return decimal.Zero, typeErr(model.TypeAmount, raw, ErrInvalidAmount)
	}
	return d.Mul(scale), nil
}

// ParseDecimal parses a plain decimal quantity, tolerating thousands
// separators and a trailing unit of measure.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.ToLower(normalize.Text(raw))
	if s == "" {
		return decimal.Zero, typeErr(model.TypeDecimal, raw, ErrEmpty)
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	m := decimalRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, typeErr(model.TypeDecimal, raw, ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, typeErr(model.TypeDecimal, raw, ErrInvalidAmount)
	}
	return d, nil
}

// ParseInteger parses a whole number, tolerating thousands separators, a
// zero fraction and a trailing unit word.
func ParseInteger(raw string) (decimal.Decimal, error) {
	s := strings.ToLower(normalize.Text(raw))
	if s == "" {
		return decimal.Zero, typeErr(model.TypeInteger, raw, ErrEmpty)
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	m := integerRe.FindStringSubmatch(s)
	if m == nil {
		return decimal.Zero, typeErr(model.TypeInteger, raw, ErrInvalidInteger)
	}
	d, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, typeErr(model.TypeInteger, raw, ErrInvalidInteger)
	}
	return d, nil
}
