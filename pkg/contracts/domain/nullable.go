package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// NA is the textual form of an undefined value in flat-file output.
const NA = "NA"

// Float is an optional float64. The zero value is undefined.
type Float struct {
	Value float64
	Valid bool
}

// Some returns a defined Float. NaN and infinities are never defined.
func Some(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{Value: v, Valid: true}
}

// None returns an undefined Float.
func None() Float {
	return Float{}
}

// Get returns the value and whether it is defined.
func (f Float) Get() (float64, bool) {
	return f.Value, f.Valid
}

// Format renders the value with the given precision, or NA.
func (f Float) Format(precision int) string {
	if !f.Valid {
		return NA
	}
	return strconv.FormatFloat(f.Value, 'f', precision, 64)
}

// String implements fmt.Stringer
func (f Float) String() string {
	if !f.Valid {
		return NA
	}
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

// MarshalJSON encodes undefined values as null
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON accepts a number or null
func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Some(v)
	return nil
}

// Flag is an optional 0/1 indicator. The zero value is undefined.
type Flag struct {
	Set   bool
	Valid bool
}

// FlagOf returns a defined Flag.
func FlagOf(b bool) Flag {
	return Flag{Set: b, Valid: true}
}

// Int returns 1 or 0 and whether the flag is defined.
func (f Flag) Int() (int, bool) {
	if f.Set {
		return 1, f.Valid
	}
	return 0, f.Valid
}

// Float converts the flag into an optional float (1/0/undefined).
func (f Flag) Float() Float {
	if !f.Valid {
		return Float{}
	}
	if f.Set {
		return Some(1)
	}
	return Some(0)
}

// String renders 1, 0 or NA.
func (f Flag) String() string {
	switch {
	case !f.Valid:
		return NA
	case f.Set:
		return "1"
	default:
		return "0"
	}
}

// MarshalJSON encodes the flag as 1, 0 or null
func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(f.String()), nil
}
