package domain

import (
	"math"
	"strconv"
)

type valueKind uint8

const (
	intValue valueKind = iota
	floatValue
	textValue
)

// Value is a measurement ready for the wire: an integer, a float or free text.
type Value struct {
	kind valueKind
	i    int64
	f    float64
	s    string
}

// Int wraps an integer value.
func Int(v int64) Value { return Value{kind: intValue, i: v} }

// Float wraps a float value.
func Float(v float64) Value { return Value{kind: floatValue, f: v} }

// Text wraps a value that is rendered verbatim.
func Text(v string) Value { return Value{kind: textValue, s: v} }

// AppendTo renders v onto dst. Integers are plain base-10, floats carry exactly
// two fractional digits and text is copied as is.
func (v Value) AppendTo(dst []byte) ([]byte, error) {
	switch v.kind {
	case intValue:
		return strconv.AppendInt(dst, v.i, 10), nil
	case floatValue:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return dst, ErrNonFinite
		}
		return strconv.AppendFloat(dst, v.f, 'f', 2, 64), nil
	default:
		return append(dst, v.s...), nil
	}
}

// String renders v, returning "" for non-finite floats.
func (v Value) String() string {
	b, err := v.AppendTo(nil)
	if err != nil {
		return ""
	}
	return string(b)
}
