// Package flagvalue holds the typed value union shared by traits and
// feature state values. The type tags mirror the column values used by
// the persistence schema, so they are stable identifiers, not display
// strings.
package flagvalue

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

type Type string

const (
	TypeInteger Type = "int"
	TypeString  Type = "unicode"
	TypeBoolean Type = "bool"
	TypeNull    Type = "none"
)

var (
	ErrTypeMismatch = errors.New("type_mismatch")
)

// Value is a closed tagged union over integer, string and boolean
// payloads. Exactly the field matching Type carries meaning; the zero
// Value is Null.
type Value struct {
	Type Type   `json:"type"`
	Int  int64  `json:"integer_value,omitempty"`
	Str  string `json:"string_value,omitempty"`
	Bool bool   `json:"boolean_value,omitempty"`
}

func Null() Value                { return Value{Type: TypeNull} }
func Integer(v int64) Value      { return Value{Type: TypeInteger, Int: v} }
func String(v string) Value      { return Value{Type: TypeString, Str: v} }
func Boolean(v bool) Value       { return Value{Type: TypeBoolean, Bool: v} }
func (v Value) IsNull() bool     { return v.Type == TypeNull || v.Type == "" }

// Infer maps an untyped input onto the union. Only native booleans and
// native integers (plus integral float64, which is how JSON numbers
// arrive) get a typed tag; everything else, including numeric strings,
// is formatted and stored as a string. nil stays Null.
func Infer(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Boolean(t)
	case int:
		return Integer(int64(t))
	case int8:
		return Integer(int64(t))
	case int16:
		return Integer(int64(t))
	case int32:
		return Integer(int64(t))
	case int64:
		return Integer(t)
	case uint:
		return Integer(int64(t))
	case uint8:
		return Integer(int64(t))
	case uint16:
		return Integer(int64(t))
	case uint32:
		return Integer(int64(t))
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) && math.Abs(t) < math.MaxInt64 {
			return Integer(int64(t))
		}
		return String(strconv.FormatFloat(t, 'f', -1, 64))
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i)
		}
		return String(t.String())
	case string:
		return String(t)
	default:
		return String(fmt.Sprint(t))
	}
}

// ParseAs coerces a raw string onto the given tag. It is used when a
// stored condition value must be compared against a typed trait.
func ParseAs(t Type, raw string) (Value, error) {
	switch t {
	case TypeInteger:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Null(), ErrTypeMismatch
		}
		return Integer(i), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Null(), ErrTypeMismatch
		}
		return Boolean(b), nil
	case TypeString:
		return String(raw), nil
	default:
		return Null(), ErrTypeMismatch
	}
}

// Equal reports tag-aware equality. Mismatched tags are unequal, not an
// error: equality has a sensible answer across tags, ordering does not.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeInteger:
		return v.Int == other.Int
	case TypeString:
		return v.Str == other.Str
	case TypeBoolean:
		return v.Bool == other.Bool
	default:
		return true
	}
}

// Compare returns -1, 0 or 1 ordering v against other. Ordering is only
// defined between two Integer values; everything else, including a pair
// of strings, is ErrTypeMismatch.
func (v Value) Compare(other Value) (int, error) {
	if v.Type != TypeInteger || other.Type != TypeInteger {
		return 0, ErrTypeMismatch
	}
	switch {
	case v.Int < other.Int:
		return -1, nil
	case v.Int > other.Int:
		return 1, nil
	default:
		return 0, nil
	}
}

// Interface returns the payload as an untyped value for serialization.
func (v Value) Interface() any {
	switch v.Type {
	case TypeInteger:
		return v.Int
	case TypeString:
		return v.Str
	case TypeBoolean:
		return v.Bool
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case TypeString:
		return v.Str
	default:
		return ""
	}
}
