package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// FieldType is the declared type of a canonical slot.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeText    FieldType = "text"
	TypeDate    FieldType = "date"
	TypeDecimal FieldType = "decimal"
	TypeAmount  FieldType = "amount"
	TypeInteger FieldType = "integer"
	TypePincode FieldType = "pincode"
	TypeURL     FieldType = "url"
	TypeEmail   FieldType = "email"
	TypeEnum    FieldType = "enum"
)

// AllFieldTypes returns all defined field types.
func AllFieldTypes() []FieldType {
	return []FieldType{
		TypeString,
		TypeText,
		TypeDate,
		TypeDecimal,
		TypeAmount,
		TypeInteger,
		TypePincode,
		TypeURL,
		TypeEmail,
		TypeEnum,
	}
}

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	for _, known := range AllFieldTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Numeric reports whether values of this type are carried as decimals.
func (t FieldType) Numeric() bool {
	return t == TypeDecimal || t == TypeAmount || t == TypeInteger
}

// DateLayout is the canonical rendering of date leaves.
const DateLayout = "2006-01-02"

// Value is a typed leaf of the canonical record. Only the member matching
// Type is meaningful.
type Value struct {
	Type   FieldType
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// TextValue builds a string-like value of the given type.
func TextValue(t FieldType, s string) Value {
	return Value{Type: t, Text: s}
}

// NumberValue builds a numeric value of the given type.
func NumberValue(t FieldType, d decimal.Decimal) Value {
	return Value{Type: t, Number: d}
}

// DateValue builds a calendar date value.
func DateValue(d time.Time) Value {
	return Value{Type: TypeDate, Date: d}
}

// String renders the value canonically. Dates render as YYYY-MM-DD and
// numbers as their exact decimal text.
func (v Value) String() string {
	switch {
	case v.Type == TypeDate:
		if v.Date.IsZero() {
			return v.Text
		}
		return v.Date.Format(DateLayout)
	case v.Type.Numeric():
		return v.Number.String()
	default:
		return v.Text
	}
}

// MarshalJSON emits the value as a bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Type.Numeric() {
		return []byte(v.Number.String()), nil
	}
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts the scalars produced by MarshalJSON. The declared
// type is not part of the wire shape: numbers come back as decimals and
// strings as plain text (dates included, in canonical form).
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "model: decode value")
		}
		*v = Value{Type: TypeString, Text: s}
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return eris.Wrapf(err, "model: decode numeric value %s", data)
	}
	*v = Value{Type: TypeDecimal, Number: d}
	return nil
}
