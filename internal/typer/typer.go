// Package typer holds the Value Typers: pure functions that turn raw source
// strings into typed values or an explicit *TypeError. None of them panic.
package typer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/normalize"
)

var (
	ErrEmpty          = eris.New("empty value")
	ErrInvalidDate    = eris.New("invalid date")
	ErrInvalidAmount  = eris.New("invalid amount")
	ErrInvalidInteger = eris.New("invalid integer")
	ErrNoPincode      = eris.New("no pincode found")
	ErrInvalidURL     = eris.New("invalid url")
	ErrInvalidEmail   = eris.New("invalid email")
	ErrInvalidEnum    = eris.New("value not in enum")
	ErrUnknownType    = eris.New("unknown field type")
)

// TypeError reports a raw value that could not be typed.
type TypeError struct {
	Type model.FieldType
	Raw  string
	Err  error
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("typer: %s: %q: %s", e.Type, e.Raw, e.Err.Error())
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

func typeErr(t model.FieldType, raw string, err error) *TypeError {
	return &TypeError{Type: t, Raw: raw, Err: err}
}

// Spec carries what Apply needs to know about a slot.
type Spec struct {
	Type       model.FieldType
	EnumValues []string
}

// Apply runs the typer for spec.Type over raw. Text-like types only require
// a non-empty value after whitespace collapse. Errors carry raw unchanged.
func Apply(spec Spec, raw string) (model.Value, error) {
	clean := normalize.Text(raw)
	if clean == "" {
		return model.Value{}, typeErr(spec.Type, raw, ErrEmpty)
	}

	switch spec.Type {
	case "":
		return model.TextValue(model.TypeString, clean), nil
	case model.TypeString, model.TypeText:
		return model.TextValue(spec.Type, clean), nil
	case model.TypeDate:
		d, err := ParseDate(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.DateValue(d), nil
	case model.TypeDecimal:
		d, err := ParseDecimal(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.NumberValue(model.TypeDecimal, d), nil
	case model.TypeAmount:
		d, err := ParseAmount(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.NumberValue(model.TypeAmount, d), nil
	case model.TypeInteger:
		d, err := ParseInteger(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.NumberValue(model.TypeInteger, d), nil
	case model.TypePincode:
		p, err := ExtractPincode(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.TextValue(model.TypePincode, p), nil
	case model.TypeURL:
		u, err := ParseURL(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.TextValue(model.TypeURL, u), nil
	case model.TypeEmail:
		e, err := ParseEmail(raw)
		if err != nil {
			return model.Value{}, err
		}
		return model.TextValue(model.TypeEmail, e), nil
	case model.TypeEnum:
		v, err := ParseEnum(raw, spec.EnumValues)
		if err != nil {
			return model.Value{}, err
		}
		return model.TextValue(model.TypeEnum, v), nil
	default:
		return model.Value{}, typeErr(spec.Type, raw, ErrUnknownType)
	}
}

// stripAll removes every occurrence of each cut from s.
func stripAll(s string, cuts ...string) string {
	for _, c := range cuts {
		s = strings.ReplaceAll(s, c, "")
	}
	return s
}
