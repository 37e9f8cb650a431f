package sarg

import (
	"github.com/cockroachdb/errors"
)

// TruthValue is the set of outcomes a predicate can produce over a range of
// rows. Each bit is one elementary SQL outcome; a value is a non-empty union
// of them, which gives exactly seven valid values. The zero value is invalid.
//
// Combining values with And, Or and Not never loses a possible outcome, so a
// row group whose statistics fold to exactly No cannot contain a matching row.
type TruthValue uint8

const (
	outcomeTrue TruthValue = 1 << iota
	outcomeFalse
	outcomeNull

	outcomeMask = outcomeTrue | outcomeFalse | outcomeNull
)

const (
	Yes       = outcomeTrue
	No        = outcomeFalse
	Null      = outcomeNull
	YesNo     = outcomeTrue | outcomeFalse
	YesNull   = outcomeTrue | outcomeNull
	NoNull    = outcomeFalse | outcomeNull
	YesNoNull = outcomeTrue | outcomeFalse | outcomeNull
)

// ErrInvalidTruthValue is returned when parsing an unknown truth value name.
var ErrInvalidTruthValue = errors.New("invalid truth value")

// TruthValues lists the seven values in declaration order.
var TruthValues = []TruthValue{Yes, No, Null, YesNo, YesNull, NoNull, YesNoNull}

var truthValueNames = map[TruthValue]string{
	Yes:       "YES",
	No:        "NO",
	Null:      "NULL",
	YesNo:     "YES_NO",
	YesNull:   "YES_NULL",
	NoNull:    "NO_NULL",
	YesNoNull: "YES_NO_NULL",
}

// ParseTruthValue parses the String form of a truth value.
func ParseTruthValue(s string) (TruthValue, error) {
	for tv, name := range truthValueNames {
		if name == s {
			return tv, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidTruthValue, "%q", s)
}

func (v TruthValue) String() string {
	if name, ok := truthValueNames[v]; ok {
		return name
	}
	return "INVALID"
}

// Valid reports whether v is one of the seven truth values.
func (v TruthValue) Valid() bool {
	return v != 0 && v&^outcomeMask == 0
}

func (v TruthValue) CanBeTrue() bool  { return v&outcomeTrue != 0 }
func (v TruthValue) CanBeFalse() bool { return v&outcomeFalse != 0 }
func (v TruthValue) CanBeNull() bool  { return v&outcomeNull != 0 }

// Not swaps the true and false outcomes; unknown stays unknown.
func (v TruthValue) Not() TruthValue {
	r := v & outcomeNull
	if v.CanBeTrue() {
		r |= outcomeFalse
	}
	if v.CanBeFalse() {
		r |= outcomeTrue
	}
	return r
}

// And is the union of the three-valued AND over every pair of outcomes.
func (v TruthValue) And(other TruthValue) TruthValue {
	return combine(v, other, and3)
}

// Or is the union of the three-valued OR over every pair of outcomes.
func (v TruthValue) Or(other TruthValue) TruthValue {
	return combine(v, other, or3)
}

func combine(a, b TruthValue, op func(x, y TruthValue) TruthValue) TruthValue {
	var r TruthValue
	for x := outcomeTrue; x <= outcomeNull; x <<= 1 {
		if a&x == 0 {
			continue
		}
		for y := outcomeTrue; y <= outcomeNull; y <<= 1 {
			if b&y != 0 {
				r |= op(x, y)
			}
		}
	}
	return r
}

// and3 and or3 operate on single outcomes.
func and3(x, y TruthValue) TruthValue {
	switch {
	case x == outcomeFalse || y == outcomeFalse:
		return outcomeFalse
	case x == outcomeTrue:
		return y
	case y == outcomeTrue:
		return x
	default:
		return outcomeNull
	}
}

func or3(x, y TruthValue) TruthValue {
	switch {
	case x == outcomeTrue || y == outcomeTrue:
		return outcomeTrue
	case x == outcomeFalse:
		return y
	case y == outcomeFalse:
		return x
	default:
		return outcomeNull
	}
}

// MarshalText renders the value by name.
func (v TruthValue) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, errors.Wrapf(ErrInvalidTruthValue, "%d", uint8(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText parses a value name.
func (v *TruthValue) UnmarshalText(text []byte) error {
	parsed, err := ParseTruthValue(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
