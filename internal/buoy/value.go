package buoy

import "strconv"

type valueKind uint8

const (
	kindMissing valueKind = iota
	kindFloat
	kindInt
)

// Value is a feed cell: missing, a float, or an integer.
// The zero Value is missing.
type Value struct {
	kind valueKind
	f    float64
	i    int64
}

func Missing() Value        { return Value{kind: kindMissing} }
func Float(f float64) Value { return Value{kind: kindFloat, f: f} }
func Int(i int64) Value     { return Value{kind: kindInt, i: i} }

// IsMissing reports whether the cell held the MM sentinel.
func (v Value) IsMissing() bool {
	return v.kind == kindMissing
}

// Float returns the numeric value as a float64. ok is false for missing cells.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case kindFloat:
		return v.f, true
	case kindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// Int returns integer cells. ok is false for floats and missing cells.
func (v Value) Int() (int64, bool) {
	if v.kind != kindInt {
		return 0, false
	}
	return v.i, true
}

// Any returns the value as float64 or int64, or nil when missing.
func (v Value) Any() any {
	switch v.kind {
	case kindFloat:
		return v.f
	case kindInt:
		return v.i
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case kindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return MissingToken
	}
}
